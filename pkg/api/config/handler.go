package config

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	coreConfig "valuation_synthesis/pkg/core/config"
)

// Response is the effective configuration a client needs to interpret default grids.
// Connection strings are never echoed.
type Response struct {
	PeerStore      string                       `json:"peer_store"`
	RequestTimeout string                       `json:"request_timeout"`
	Sensitivity    coreConfig.SensitivityConfig `json:"sensitivity"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	cfg *coreConfig.Config
}

// NewHandler creates a new config handler
func NewHandler(cfg *coreConfig.Config) *Handler {
	return &Handler{cfg: cfg}
}

// Routes mounts the handler under /api/config.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.HandleConfig)
}

// HandleConfig handles GET /api/config
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	store := "files"
	if h.cfg.Store.DatabaseURL != "" {
		store = "postgres"
	}
	resp := Response{
		PeerStore:      store,
		RequestTimeout: h.cfg.Server.RequestTimeout.String(),
		Sensitivity:    h.cfg.Sensitivity,
	}
	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "failed to encode config", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
