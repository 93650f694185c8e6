// Package httpapi implements LogLens's dashboard HTTP/WebSocket surface:
// project/analysis CRUD, log file upload, health, Prometheus metrics, and
// the live streaming endpoint (spec.md §6). There is no teacher precedent
// for an HTTP server in this codebase; the router and middleware follow
// the pack's own gorilla/mux usage, and every handler reuses the same
// clierr envelope and logx logger as the CLI and MCP surfaces so all three
// front-ends report errors identically.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/logx"
	"github.com/loglens/loglens/internal/registry"
	"github.com/loglens/loglens/internal/storage"
	"github.com/loglens/loglens/internal/streaming"
)

// maxUploadBytes is the spec's default dashboard request body limit.
const maxUploadBytes = 50 * 1024 * 1024

type traceIDKey struct{}

// Server holds the shared dependencies every dashboard handler needs.
type Server struct {
	store    *storage.Store
	hub      *streaming.Hub
	registry *registry.Registry
	router   *mux.Router
}

// New builds a Server and wires its routes. reg may be nil when the
// dashboard is run without a global registry (uploads then fall back to a
// scratch directory keyed by project id).
func New(store *storage.Store, hub *streaming.Hub, reg *registry.Registry) *Server {
	s := &Server{store: store, hub: hub, registry: reg, router: mux.NewRouter()}
	s.routes()
	return s
}

// ServeHTTP lets *Server be passed directly to http.ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(traceIDMiddleware)
	s.router.Use(bodyLimitMiddleware)
	s.router.Use(loggingMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/projects", s.handleListProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects", s.handleCreateProject).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", s.handleGetProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/logfiles", s.handleUploadLogFile).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/analyses", s.handleListAnalyses).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/analyses", s.handleCreateAnalysis).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/stream", s.handleStream).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id}", s.handleGetAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id}/result", s.handleGetAnalysisResult).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

func traceIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set("X-Trace-Id", traceID)
		ctx := context.WithValue(r.Context(), traceIDKey{}, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bodyLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logx.Log().Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("dashboard request")
	})
}

func traceIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ce, ok := err.(*clierr.Error)
	status := http.StatusInternalServerError
	if ok {
		status = ce.HTTPStatus()
	}
	env := clierr.ToEnvelope(err, time.Now().UTC().Format(time.RFC3339), traceIDFrom(r.Context()))
	writeJSON(w, status, env)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
