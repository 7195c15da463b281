// Package core provides the HTTP chassis for the waterman feed service.
// It creates a chi router and enforces cross-cutting concerns (recovery,
// timeouts, request correlation, logging, metrics) before requests reach
// domain handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"waterman/internal/config"
	"waterman/internal/types"
)

// MetricsCollector records API telemetry. The Prometheus implementation
// lives in internal/observability.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// Server encapsulates the HTTP-facing dependencies, constructed once at
// process start and threaded explicitly instead of living in package
// globals.
type Server struct {
	Config  *config.Config
	Repos   types.RepositoryRegistry
	Logger  *slog.Logger
	Metrics MetricsCollector

	// V1RouteRegistrars are populated by the application entry point so
	// handler packages can register routes without core importing them.
	V1RouteRegistrars []func(chi.Router)

	// HealthProbes are checked by GET /health.
	HealthProbes []HealthProbe

	// MetricsHandler serves GET /metrics when set (promhttp.Handler()).
	MetricsHandler http.Handler

	router *chi.Mux
}

// NewServer initializes the server chassis. Routes are mounted separately
// via MountRoutes so tests can customize registration.
func NewServer(cfg *config.Config, repos types.RepositoryRegistry, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if repos == nil {
		return nil, fmt.Errorf("repository registry must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Repos:  repos,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown closes server-owned resources after the HTTP listener has
// drained.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	if closer, ok := s.Repos.(interface{ Close() }); ok {
		closer.Close()
	}

	s.Logger.Info("server shutdown complete")
	return nil
}
