package adminserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltdomains/domain-analyzer/internal/orchestrator"
)

type fakeRunner struct {
	results []orchestrator.ScanResult
	err     error
	called  bool
	domains []string
}

func (f *fakeRunner) Run(ctx context.Context, domains []string, profilesCSV string, concurrency int) ([]orchestrator.ScanResult, error) {
	f.called = true
	f.domains = domains
	return f.results, f.err
}

func TestHandleHealthz_ReturnsOK(t *testing.T) {
	s := New(&fakeRunner{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleScan_RunsOrchestratorAndReturnsResults(t *testing.T) {
	runner := &fakeRunner{results: []orchestrator.ScanResult{{Domain: "example.lt", Status: "success"}}}
	s := New(runner, nil)

	body := strings.NewReader(`{"domains":["example.lt"],"profiles":"quick-check"}`)
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, runner.called)
	assert.Equal(t, []string{"example.lt"}, runner.domains)
}

func TestHandleScan_EmptyDomainsReturnsBadRequest(t *testing.T) {
	s := New(&fakeRunner{}, nil)

	body := strings.NewReader(`{"domains":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleScan_MalformedBodyReturnsBadRequest(t *testing.T) {
	s := New(&fakeRunner{}, nil)

	body := strings.NewReader(`not json`)
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleMetrics_ServesPrometheusFormat(t *testing.T) {
	s := New(&fakeRunner{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}
