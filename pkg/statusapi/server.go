// Package statusapi exposes read-only operator tooling over a running
// tailer: health, current tail position, catalog diagnostics and
// Prometheus metrics. It has no write surface, so unlike the teacher's
// REST API it carries no API-key auth middleware.
package statusapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/arborwatch/unified2spool/pkg/catalog"
)

// Position reports where the tailer currently is.
type Position interface {
	Tell() (filename string, offset int64)
}

// Server wires a catalog and a position-reporting reader into an HTTP
// handler set.
type Server struct {
	catalog *catalog.EventCatalog
	pos     Position
	metrics *Metrics
}

// ServerConfig configures the listen address and swagger base URL.
type ServerConfig struct {
	Bind string
	Port int
}

// NewServer constructs a Server with its own freshly-registered Metrics. pos
// may be nil if position reporting isn't wired up yet (e.g. before the
// tailer's first poll).
func NewServer(cat *catalog.EventCatalog, pos Position) *Server {
	return NewServerWithMetrics(cat, pos, NewMetrics())
}

// NewServerWithMetrics constructs a Server that shares an existing Metrics
// registry rather than creating its own, so a caller that already records
// domain counters elsewhere (a tailer's poll loop) can expose them on this
// server's /metrics endpoint instead of leaving a second, permanently-zero
// registry running alongside it.
func NewServerWithMetrics(cat *catalog.EventCatalog, pos Position, metrics *Metrics) *Server {
	return &Server{catalog: cat, pos: pos, metrics: metrics}
}

// Router builds the chi router exposing this server's handlers.
func (s *Server) Router(cfg ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", s.metrics.InstrumentHandler("GET", "/api/v1/healthz", s.handleHealth))
		r.Get("/status", s.metrics.InstrumentHandler("GET", "/api/v1/status", s.handleStatus))
		r.Get("/catalog/stats", s.metrics.InstrumentHandler("GET", "/api/v1/catalog/stats", s.handleCatalogStats))
		r.Get("/catalog/explain", s.metrics.InstrumentHandler("GET", "/api/v1/catalog/explain", s.handleCatalogExplain))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%d/swagger/doc.json", cfg.Bind, cfg.Port)),
	))

	return r
}

// ListenAndServe starts the HTTP server and blocks until it exits.
func (s *Server) ListenAndServe(cfg ServerConfig) error {
	addr := fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port)
	return http.ListenAndServe(addr, s.Router(cfg))
}

// @Summary Health check
// @Router /api/v1/healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// @Summary Current tail position
// @Router /api/v1/status [get]
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{}
	if s.pos != nil {
		filename, offset := s.pos.Tell()
		resp["filename"] = filename
		resp["offset"] = offset
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary Catalog statistics
// @Router /api/v1/catalog/stats [get]
func (s *Server) handleCatalogStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Stats())
}

// @Summary Catalog diagnostic explain
// @Router /api/v1/catalog/explain [get]
func (s *Server) handleCatalogExplain(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Explain())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
