package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-dashboard/internal/dashboard"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// Server exposes health, readiness, metrics and the dashboard API.
type Server struct {
	httpServer *http.Server
	dash       *dashboard.Dashboard
	plates     domain.PlateSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server for dash. plates may be nil, in which
// case /api/plates always returns an empty list.
func NewServer(addr string, dash *dashboard.Dashboard, plates domain.PlateSource, logger *slog.Logger) *Server {
	s := &Server{
		dash:   dash,
		plates: plates,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(dash))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/filter", s.handleGetFilter)
		r.Put("/filter", s.handlePutFilter)
		r.Post("/filter/reset", s.handleResetFilter)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/timeseries", s.handleTimeSeries)
		r.Get("/timeseries.gif", s.handleTimeSeriesGIF)
		r.Get("/outliers", s.handleOutliers)
		r.Get("/events", s.handleEvents)
		r.Get("/plates", s.handlePlates)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
