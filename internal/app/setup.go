package app

import (
	"context"
	"fmt"
	"time"

	"github.com/crossvenue/arbengine/internal/arbitrage"
	"github.com/crossvenue/arbengine/internal/ingestion"
	"github.com/crossvenue/arbengine/internal/matching"
	"github.com/crossvenue/arbengine/internal/ratelimit"
	"github.com/crossvenue/arbengine/internal/storage"
	"github.com/crossvenue/arbengine/internal/venue"
	"github.com/crossvenue/arbengine/internal/venue/kalshi"
	"github.com/crossvenue/arbengine/internal/venue/polymarket"
	"github.com/crossvenue/arbengine/pkg/cache"
	"github.com/crossvenue/arbengine/pkg/config"
	"github.com/crossvenue/arbengine/pkg/healthprobe"
	"github.com/crossvenue/arbengine/pkg/httpserver"
	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// New creates a new application instance, wiring every component from cfg.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	appCache, err := setupCache(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	appStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	adapters := setupAdapters(cfg, logger)
	if len(adapters) == 0 {
		cancel()
		return nil, fmt.Errorf("no venue adapters enabled")
	}

	orchestrator := ingestion.New(ingestion.Config{
		Adapters:         adapters,
		Cache:            appCache,
		Storage:          appStorage,
		Logger:           logger,
		FullSyncInterval: cfg.FullSyncInterval,
		PollInterval:     cfg.IngestionInterval,
		SingleMarket:     opts.SingleMarket,
	})

	matcher := matching.New(matching.Config{
		Source:    orchestrator,
		Storage:   appStorage,
		Logger:    logger,
		Interval:  cfg.MatchingInterval,
		Threshold: cfg.MatchThreshold,
	})

	detector := arbitrage.New(arbitrage.Config{
		Books:              orchestrator,
		Markets:            orchestrator,
		Storage:            appStorage,
		Logger:             logger,
		Fees:               feeSchedules(adapters),
		ScanInterval:       cfg.ArbScanInterval,
		StaleThresholdMs:   cfg.OrderbookStaleThresholdMs,
		MinConfidenceScore: cfg.MinConfidenceScore,
		MinExecutableSize:  decimal.NewFromFloat(cfg.MinExecutableSizeUSD),
		DebugConsole:       cfg.LogLevel == "debug",
	})

	httpServer := setupHTTPServer(cfg, logger, healthChecker, orchestrator, matcher, detector)

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		cache:         appCache,
		storage:       appStorage,
		orchestrator:  orchestrator,
		matcher:       matcher,
		detector:      detector,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	if cfg.RedisAddr != "" {
		return cache.NewRedisCache(&cache.RedisConfig{
			Addr:   cfg.RedisAddr,
			Logger: logger,
		})
	}

	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 100000, // 10x expected max items across both venues
		MaxCost:     10000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

// setupAdapters builds one venue.Adapter per enabled venue, each with its
// own rate-limit gate derived from the venue's per-minute quota (§4.B).
func setupAdapters(cfg *config.Config, logger *zap.Logger) map[types.Venue]venue.Adapter {
	adapters := make(map[types.Venue]venue.Adapter)

	if cfg.EnablePolymarket {
		adapters[types.VenuePolymarket] = polymarket.New(polymarket.Config{
			GammaBaseURL:            cfg.PolymarketGammaURL,
			ClobBaseURL:             cfg.PolymarketClobURL,
			WSURL:                   cfg.PolymarketWSURL,
			MarketLimit:             cfg.DiscoveryMarketLimit,
			RateLimit:               rateLimitFor(cfg.PolymarketRateLimitPerMin),
			Logger:                  logger.Named("polymarket"),
			WSDialTimeout:           cfg.WSDialTimeout,
			WSPongTimeout:           cfg.WSPongTimeout,
			WSPingInterval:          cfg.WSPingInterval,
			WSReconnectInitialDelay: cfg.WSReconnectInitialDelay,
			WSReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
			WSReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
			WSMessageBufferSize:     cfg.WSMessageBufferSize,
		})
	}

	if cfg.EnableKalshi {
		adapters[types.VenueKalshi] = kalshi.New(kalshi.Config{
			BaseURL:     cfg.KalshiAPIURL,
			MarketLimit: cfg.DiscoveryMarketLimit,
			RateLimit:   rateLimitFor(cfg.KalshiRateLimitPerMin),
			Logger:      logger.Named("kalshi"),
		})
	}

	return adapters
}

// rateLimitFor converts a per-minute quota into the gate's pacing interval,
// with a fixed in-flight cap and cool-off window shared across venues.
func rateLimitFor(perMinute int) ratelimit.Config {
	if perMinute <= 0 {
		perMinute = 60
	}
	return ratelimit.Config{
		MaxInFlight: 10,
		Pacing:      time.Minute / time.Duration(perMinute),
		CoolOff:     5 * time.Second,
	}
}

func feeSchedules(adapters map[types.Venue]venue.Adapter) map[types.Venue]types.FeeSchedule {
	fees := make(map[types.Venue]types.FeeSchedule, len(adapters))
	for v, adapter := range adapters {
		fees[v] = adapter.Venue().Fees
	}
	return fees
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	orchestrator *ingestion.Orchestrator,
	matcher *matching.Matcher,
	detector *arbitrage.Detector,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Ingestion:     orchestrator,
		Matching:      matcher,
		Arbitrage:     detector,
	})
}
