// Package peers exposes the stored comparable universes over HTTP.
package peers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"valuation_synthesis/pkg/core/logger"
	"valuation_synthesis/pkg/core/scenario"
	"valuation_synthesis/pkg/core/store"
	"valuation_synthesis/pkg/core/valuation"
)

const maxBodyBytes = 4 << 20

// Handler serves /api/peer-sets.
type Handler struct {
	repo *store.PeerSetRepo
	log  zerolog.Logger
}

// NewHandler creates a peer set handler.
func NewHandler(repo *store.PeerSetRepo, log zerolog.Logger) *Handler {
	return &Handler{repo: repo, log: logger.Component(log, "peer_sets_api")}
}

// Routes mounts the handler under /api/peer-sets.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Get("/{name}", h.HandleGet)
	r.Put("/{name}", h.HandlePut)
	r.Delete("/{name}", h.HandleDelete)
}

// HandleList handles GET /api/peer-sets
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	names, err := h.repo.List(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"peer_sets": names})
}

// HandleGet handles GET /api/peer-sets/{name}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	set, err := h.repo.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, set)
}

// HandlePut handles PUT /api/peer-sets/{name}. The body is either a full peer set or a bare
// list of entities; the name always comes from the path.
func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	format := scenario.FormatFromContentType(r.Header.Get("Content-Type"))

	var set store.PeerSet
	if _, err := scenario.DecodeInto(body, format, &set); err != nil || len(set.Entities) == 0 {
		var entities []valuation.FinancialEntity
		if _, listErr := scenario.DecodeInto(body, format, &entities); listErr != nil {
			if err == nil {
				err = listErr
			}
			h.writeFailure(w, err)
			return
		}
		set = store.PeerSet{Kind: set.Kind, Entities: entities}
	}
	set.ID = ""
	set.Name = chi.URLParam(r, "name")

	if err := h.repo.Save(r.Context(), &set); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.log.Info().Str("peer_set", set.Name).Str("kind", string(set.Kind)).Int("entities", len(set.Entities)).Msg("Peer set saved")
	h.writeJSON(w, http.StatusOK, set)
}

// HandleDelete handles DELETE /api/peer-sets/{name}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrPeerSetNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidPeerSet),
		errors.Is(err, valuation.ErrInvalidEntity),
		errors.Is(err, scenario.ErrUndecodable):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Peer set request failed")
		h.writeError(w, http.StatusInternalServerError, "peer set store unavailable")
	}
}

// HTTP helpers

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		buf.Reset()
		buf.WriteString(`{"error":"failed to encode response"}` + "\n")
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Error().Err(err).Msg("Failed to write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}
