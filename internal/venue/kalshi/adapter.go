// Package kalshi implements the venue.Adapter contract for Kalshi. Kalshi
// exposes no public streaming feed for unauthenticated market data, so this
// adapter is poll-only: StartPush returns venue.ErrPushUnsupported and the
// ingestion orchestrator falls back to scheduled FetchOrderBook calls under
// the rate-limit gate, per §4.A/§4.B.
package kalshi

import (
	"context"
	"time"

	"github.com/crossvenue/arbengine/internal/ratelimit"
	"github.com/crossvenue/arbengine/internal/venue"
	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config configures the Kalshi adapter.
type Config struct {
	BaseURL     string
	MarketLimit int
	RateLimit   ratelimit.Config
	Logger      *zap.Logger
}

// Adapter is the Kalshi implementation of venue.Adapter.
type Adapter struct {
	cfg    Config
	client *client
	gate   *ratelimit.Gate
	health *venue.HealthTracker
}

// New constructs a Kalshi adapter from configuration.
func New(cfg Config) *Adapter {
	if cfg.MarketLimit == 0 {
		cfg.MarketLimit = 200
	}
	return &Adapter{
		cfg:    cfg,
		client: newClient(cfg.BaseURL, cfg.Logger),
		gate:   ratelimit.New(cfg.RateLimit),
		health: venue.NewHealthTracker(types.VenueKalshi, 30*time.Second),
	}
}

func (a *Adapter) Venue() types.VenueInfo {
	return types.VenueInfo{
		Venue:       types.VenueKalshi,
		DisplayName: "Kalshi",
		BaseURL:     a.cfg.BaseURL,
		Fees: types.FeeSchedule{
			// Kalshi charges a per-contract trading fee scaled by price;
			// this flat rate is an approximation and is used as-is.
			TakerFee: decimal.NewFromFloat(0.07),
			MakerFee: decimal.Zero,
		},
		SupportsPush: false,
	}
}

func (a *Adapter) FetchActiveMarkets(ctx context.Context) ([]types.Market, int64, error) {
	release, err := a.gate.Acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	start := time.Now()
	markets, err := a.client.fetchActiveMarkets(ctx, a.cfg.MarketLimit)
	latencyMs := time.Since(start).Milliseconds()

	if _, callErr := a.health.Call(func() (int64, error) { return latencyMs, err }); callErr != nil {
		a.onVenueError(callErr)
	}
	if err != nil {
		return nil, latencyMs, err
	}

	a.health.SetMarketCount(len(markets))
	return markets, latencyMs, nil
}

func (a *Adapter) FetchOrderBook(ctx context.Context, externalID string) (*types.OrderBook, int64, error) {
	release, err := a.gate.Acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	book, latencyMs, err := a.client.fetchOrderBook(ctx, externalID)
	if _, callErr := a.health.Call(func() (int64, error) { return latencyMs, err }); callErr != nil {
		a.onVenueError(callErr)
	}
	return book, latencyMs, err
}

func (a *Adapter) FetchQuote(ctx context.Context, externalID string) (*types.Quote, int64, error) {
	release, err := a.gate.Acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	quote, latencyMs, err := a.client.fetchQuote(ctx, externalID)
	if _, callErr := a.health.Call(func() (int64, error) { return latencyMs, err }); callErr != nil {
		a.onVenueError(callErr)
	}
	return quote, latencyMs, err
}

func (a *Adapter) onVenueError(err error) {
	if ve, ok := err.(*types.VenueError); ok && ve.Kind == types.ErrRateLimited {
		a.gate.OnRateLimited()
	}
}

func (a *Adapter) StartPush(ctx context.Context, externalIDs []string, sink *venue.EventSink) error {
	return venue.ErrPushUnsupported
}

func (a *Adapter) StopPush() error {
	return nil
}

func (a *Adapter) Health() types.VenueHealth {
	return a.health.Status()
}
