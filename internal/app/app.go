package app

import (
	"context"
	"sync"

	"github.com/crossvenue/arbengine/internal/arbitrage"
	"github.com/crossvenue/arbengine/internal/ingestion"
	"github.com/crossvenue/arbengine/internal/matching"
	"github.com/crossvenue/arbengine/internal/storage"
	"github.com/crossvenue/arbengine/pkg/cache"
	"github.com/crossvenue/arbengine/pkg/config"
	"github.com/crossvenue/arbengine/pkg/healthprobe"
	"github.com/crossvenue/arbengine/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator: it owns the lifecycle of every
// long-running component (ingestion, matching, detection, the HTTP
// surface) and wires them together via the narrow interfaces each package
// defines for its upstream dependency.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	cache         cache.Cache
	storage       storage.Storage
	orchestrator  *ingestion.Orchestrator
	matcher       *matching.Matcher
	detector      *arbitrage.Detector

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options holds application options.
type Options struct {
	SingleMarket string // debug mode: restrict ingestion to one external_id
}
