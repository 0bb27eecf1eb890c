package valuation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"valuation_synthesis/pkg/core/logger"
	"valuation_synthesis/pkg/core/metrics"
	"valuation_synthesis/pkg/core/projection"
	"valuation_synthesis/pkg/core/report"
	"valuation_synthesis/pkg/core/scenario"
	"valuation_synthesis/pkg/core/store"
	"valuation_synthesis/pkg/core/synthesis"
	coreValuation "valuation_synthesis/pkg/core/valuation"
)

// maxBodyBytes caps request bodies; peer universes are a few hundred entities at most.
const maxBodyBytes = 4 << 20

// Handler serves the valuation endpoints.
type Handler struct {
	engine *synthesis.Engine
	log    zerolog.Logger
}

// NewHandler creates a valuation handler.
func NewHandler(engine *synthesis.Engine, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		log:    logger.Component(log, "valuation_api"),
	}
}

// Routes mounts the handler under /api/valuation.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/run", h.HandleRun)
	r.Post("/report", h.HandleReport)
	r.Post("/comps", h.HandleComps)
	r.Post("/precedents", h.HandlePrecedents)
	r.Post("/football-field", h.HandleFootballField)
	r.Post("/sensitivity/dcf", h.HandleDCFSensitivity)
	r.Post("/sotp", h.HandleSOTP)
	r.Post("/accretion", h.HandleAccretion)
}

// HandleRun handles POST /api/valuation/run - runs every methodology in the request.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.run(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, rep)
}

// HandleReport handles POST /api/valuation/report?format=md|html.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "md"
	}
	if format != "md" && format != "markdown" && format != "html" {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown report format %q", format))
		return
	}

	rep, ok := h.run(w, r)
	if !ok {
		return
	}

	if format == "html" {
		html, err := report.HTML(rep)
		if err != nil {
			h.log.Error().Err(err).Str("run_id", rep.RunID).Msg("Failed to render report")
			h.writeError(w, http.StatusInternalServerError, "Failed to render report")
			return
		}
		h.writeText(w, "text/html; charset=utf-8", html)
		return
	}
	h.writeText(w, "text/markdown; charset=utf-8", report.Markdown(rep))
}

// HandleComps handles POST /api/valuation/comps - trading comparables only.
func (h *Handler) HandleComps(w http.ResponseWriter, r *http.Request) {
	h.relative(w, r, coreValuation.KindPeer)
}

// HandlePrecedents handles POST /api/valuation/precedents - precedent transactions only.
func (h *Handler) HandlePrecedents(w http.ResponseWriter, r *http.Request) {
	h.relative(w, r, coreValuation.KindDeal)
}

type footballFieldRequest struct {
	Methods []coreValuation.MethodologyRanges `json:"methods" yaml:"methods"`
}

type footballFieldResponse struct {
	FootballField coreValuation.FootballField  `json:"football_field"`
	Summary       []coreValuation.SummaryTable `json:"summary"`
}

// HandleFootballField handles POST /api/valuation/football-field - aggregates ranges computed
// elsewhere.
func (h *Handler) HandleFootballField(w http.ResponseWriter, r *http.Request) {
	var req footballFieldRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Methods) == 0 {
		h.writeError(w, http.StatusBadRequest, "at least one methodology is required")
		return
	}
	ff := coreValuation.BuildFootballField(req.Methods)
	h.writeResult(w, footballFieldResponse{FootballField: ff, Summary: ff.SummaryTables()})
}

// HandleDCFSensitivity handles POST /api/valuation/sensitivity/dcf.
func (h *Handler) HandleDCFSensitivity(w http.ResponseWriter, r *http.Request) {
	var req coreValuation.DCFSensitivityInput
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.WACC.Values) == 0 || len(req.Growth.Values) == 0 {
		h.writeError(w, http.StatusBadRequest, "wacc and growth axes need at least one value")
		return
	}
	switch req.Mode {
	case "", coreValuation.TerminalRescale, coreValuation.TerminalGordon:
	default:
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown sensitivity mode %q", req.Mode))
		return
	}
	h.writeResult(w, h.engine.DCFSensitivity(req))
}

// HandleSOTP handles POST /api/valuation/sotp.
func (h *Handler) HandleSOTP(w http.ResponseWriter, r *http.Request) {
	var req synthesis.SOTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := synthesis.SOTP(req)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeResult(w, res)
}

// HandleAccretion handles POST /api/valuation/accretion.
func (h *Handler) HandleAccretion(w http.ResponseWriter, r *http.Request) {
	var req synthesis.AccretionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Buyer.SharesOutstanding <= 0 {
		h.writeError(w, http.StatusBadRequest, "buyer shares outstanding must be positive")
		return
	}
	h.writeResult(w, h.engine.Accretion(req))
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) run(w http.ResponseWriter, r *http.Request) (*synthesis.Report, bool) {
	body, ok := h.readBody(w, r)
	if !ok {
		return nil, false
	}
	req, err := scenario.Decode(body, scenario.FormatFromContentType(r.Header.Get("Content-Type")))
	if err != nil {
		h.writeFailure(w, err)
		return nil, false
	}
	rep, err := h.engine.Run(r.Context(), *req)
	if err != nil {
		h.writeFailure(w, err)
		return nil, false
	}
	return rep, true
}

func (h *Handler) relative(w http.ResponseWriter, r *http.Request, kind coreValuation.EntityKind) {
	var req synthesis.Request
	if !h.decode(w, r, &req) {
		return
	}
	target, err := coreValuation.NewFinancialEntity(req.Target)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	inline, set := req.Peers, req.PeerSet
	if kind == coreValuation.KindDeal {
		inline, set = req.Deals, req.DealSet
	}
	comparables, err := h.engine.Comparables(r.Context(), inline, set, kind)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if len(comparables) == 0 {
		h.writeError(w, http.StatusBadRequest, "no comparables given")
		return
	}

	var res coreValuation.RelativeValuationResult
	if kind == coreValuation.KindDeal {
		res = coreValuation.CalculateTransactions(target, comparables)
	} else {
		res = coreValuation.CalculateComps(target, comparables)
	}
	outcome := metrics.OutcomeOK
	if res.Insufficient {
		outcome = metrics.OutcomeInsufficient
	}
	metrics.RecordMethodology(res.Methodology, outcome)
	h.writeResult(w, res)
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	return body, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, ok := h.readBody(w, r)
	if !ok {
		return false
	}
	if _, err := scenario.DecodeInto(body, scenario.FormatFromContentType(r.Header.Get("Content-Type")), v); err != nil {
		h.writeFailure(w, err)
		return false
	}
	if err := synthesis.CheckInput(v); err != nil {
		h.writeFailure(w, err)
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scenario.ErrUndecodable),
		errors.Is(err, scenario.ErrMissingTarget),
		errors.Is(err, coreValuation.ErrInvalidEntity),
		errors.Is(err, coreValuation.ErrInvalidSegment),
		errors.Is(err, projection.ErrInvalidDrivers),
		errors.Is(err, synthesis.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, synthesis.ErrNonFiniteResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrPeerSetNotFound):
		return http.StatusNotFound
	case errors.Is(err, synthesis.ErrNoPeerSource):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Int("status", status).Msg("Valuation request failed")
	} else {
		h.log.Debug().Err(err).Int("status", status).Msg("Valuation request rejected")
	}
	h.writeError(w, status, err.Error())
}

// writeResult answers 200 with v, or 422 when the computation overflowed.
func (h *Handler) writeResult(w http.ResponseWriter, v interface{}) {
	if err := synthesis.CheckResult(v); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, v)
}

// HTTP helpers

// writeJSON encodes before writing the status so an encoding failure still reaches the
// client as a 500.
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

func (h *Handler) writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		h.log.Error().Err(err).Msg("Failed to write response")
	}
}
