// Package server exposes the audit store and aggregation engine over HTTP.
// Routes are mounted under /api; all responses are JSON and all error bodies
// are {"error": <message>}.
package server

import (
	"net/http"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chainproof/chainaudit/internal/stats"
	"github.com/chainproof/chainaudit/internal/store"
)

// Server holds the request handlers for the audit API.
type Server struct {
	store *store.Store
	stats *stats.Aggregator
}

// New creates a Server over the given store and aggregator.
func New(st *store.Store, agg *stats.Aggregator) *Server {
	return &Server{store: st, stats: agg}
}

// Router builds the chi router for the API surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/audits", func(r chi.Router) {
			r.Get("/", s.listAudits)
			r.Post("/", s.createAudit)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getAudit)
				r.Put("/", s.updateAudit)
				r.Delete("/", s.deleteAudit)
			})
		})

		r.Route("/users/{walletAddress}", func(r chi.Router) {
			r.Get("/", s.getUser)
			r.Post("/", s.upsertUser)
		})

		r.Get("/dashboard", s.dashboard)
		r.Get("/stats", s.globalStats)
	})

	return r
}

// requestLogger logs each request with its status and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debugf("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
