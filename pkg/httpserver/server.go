package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/crossvenue/arbengine/internal/ingestion"
	"github.com/crossvenue/arbengine/pkg/healthprobe"
	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// IngestionSource supplies the ingestion counters and per-venue health
// projections surfaced on GET /status.
type IngestionSource interface {
	Stats() ingestion.Stats
	Health() map[types.Venue]types.VenueHealth
}

// MatchingSource supplies the matcher's confirmed/pending counts.
type MatchingSource interface {
	Stats() (confirmed int, pendingReview int)
}

// ArbitrageSource supplies the detector's currently active opportunities.
type ArbitrageSource interface {
	ActiveOpportunities() []*types.ArbitrageOpportunity
}

// Server provides the minimal operational HTTP surface: metrics, health
// probes, and the aggregate status view (§6, §7). The client-facing read
// API is an external collaborator, out of scope here.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	Ingestion     IngestionSource
	Matching      MatchingSource
	Arbitrage     ArbitrageSource
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	if cfg.Ingestion != nil && cfg.Matching != nil && cfg.Arbitrage != nil {
		sh := &statusHandler{
			healthChecker: cfg.HealthChecker,
			ingestion:     cfg.Ingestion,
			matching:      cfg.Matching,
			arbitrage:     cfg.Arbitrage,
		}
		r.Get("/status", sh.handle)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
