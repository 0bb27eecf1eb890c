package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation_synthesis/pkg/core/config"
	"valuation_synthesis/pkg/core/store"
	"valuation_synthesis/pkg/core/synthesis"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	repo, err := store.NewPeerSetRepo(nil, t.TempDir())
	require.NoError(t, err)
	return New(Config{
		Log:    zerolog.Nop(),
		Config: &cfg,
		Engine: synthesis.NewEngine(repo, cfg.Sensitivity, zerolog.Nop()),
		Peers:  repo,
	})
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, s.server.Addr)
}

func TestServer_StoredPeerSetFeedsRun(t *testing.T) {
	// Setup
	s := newTestServer(t)
	h := s.Handler()
	peers := `[
	  {"name": "A", "ebitda": 10, "enterprise_value": 60},
	  {"name": "B", "ebitda": 10, "enterprise_value": 80},
	  {"name": "C", "ebitda": 10, "enterprise_value": 100}
	]`
	put := httptest.NewRequest("PUT", "/api/peer-sets/industrials", strings.NewReader(peers))
	put.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, put)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Execute
	run := httptest.NewRequest("POST", "/api/valuation/run",
		strings.NewReader(`{"target": {"name": "T", "ebitda": 100}, "peer_set": "industrials"}`))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, run)

	// Verify: EV/EBITDA 6, 8, 10 -> 700 / 800 / 900
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"ev_overall":{"min":700,"max":900,"range":200}`)
}

func TestServer_MetricsAndCORS(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	// One request so the route counter has a sample.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `valuation_http_requests_total{route="/health",status="200"}`)

	pre := httptest.NewRequest("OPTIONS", "/api/valuation/run", nil)
	pre.Header.Set("Origin", "http://localhost:3000")
	pre.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, pre)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Config(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer(t).Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/config/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"peer_store":"files"`)
}

func TestServer_UnknownRoute(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer(t).Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
