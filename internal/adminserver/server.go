// Package adminserver exposes the operational HTTP surface for running
// domain-analyzer as a long-lived service: liveness, Prometheus metrics,
// and an on-demand scan trigger.
package adminserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ltdomains/domain-analyzer/internal/orchestrator"
	"github.com/ltdomains/domain-analyzer/pkg/domainerrors"
	"github.com/ltdomains/domain-analyzer/pkg/platform/httputil"
)

// Runner is the subset of *orchestrator.Orchestrator the admin server
// depends on, narrowed for testability.
type Runner interface {
	Run(ctx context.Context, domains []string, profilesCSV string, concurrency int) ([]orchestrator.ScanResult, error)
}

// Server wires the admin HTTP endpoints to a Runner.
type Server struct {
	runner Runner
	logger *slog.Logger
	router chi.Router
}

// New builds a Server. Call Handler to get the http.Handler to serve.
func New(runner Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{runner: runner, logger: logger}
	s.router = s.buildRouter()
	return s
}

// Handler returns the http.Handler to mount on an *http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/scan", s.handleScan)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scanRequest is POST /scan's JSON body.
type scanRequest struct {
	Domains     []string `json:"domains"`
	Profiles    string   `json:"profiles"`
	Concurrency int      `json:"concurrency"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "malformed request body"))
		return
	}
	if len(req.Domains) == 0 {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "domains must not be empty"))
		return
	}
	if req.Profiles == "" {
		req.Profiles = "standard"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	results, err := s.runner.Run(ctx, req.Domains, req.Profiles, req.Concurrency)
	if err != nil {
		s.logger.ErrorContext(ctx, "adminserver: scan failed", "error", err)
		httputil.WriteError(w, err)
		return
	}

	s.logger.InfoContext(ctx, "adminserver: scan completed", "domain_count", len(req.Domains), "duration_ms", time.Since(start).Milliseconds())
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}
