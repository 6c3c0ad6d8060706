// Package polymarket implements the venue.Adapter contract for Polymarket:
// Gamma REST for discovery, CLOB REST for on-demand book/quote reads, and a
// gorilla/websocket push feed for live updates on subscribed markets.
package polymarket

import (
	"context"
	"time"

	"github.com/crossvenue/arbengine/internal/orderbook"
	"github.com/crossvenue/arbengine/internal/ratelimit"
	"github.com/crossvenue/arbengine/internal/venue"
	"github.com/crossvenue/arbengine/pkg/types"
	ws "github.com/crossvenue/arbengine/pkg/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config configures the Polymarket adapter.
type Config struct {
	GammaBaseURL string
	ClobBaseURL  string
	WSURL        string
	MarketLimit  int
	RateLimit    ratelimit.Config
	Logger       *zap.Logger

	WSDialTimeout           time.Duration
	WSPongTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	WSMessageBufferSize     int
}

// Adapter is the Polymarket implementation of venue.Adapter.
type Adapter struct {
	cfg     Config
	client  *client
	gate    *ratelimit.Gate
	health  *venue.HealthTracker
	logger  *zap.Logger

	wsManager *ws.Manager
	obManager *orderbook.Manager
}

// New constructs a Polymarket adapter from configuration.
func New(cfg Config) *Adapter {
	if cfg.MarketLimit == 0 {
		cfg.MarketLimit = 1000
	}
	return &Adapter{
		cfg:    cfg,
		client: newClient(cfg.GammaBaseURL, cfg.ClobBaseURL, cfg.Logger),
		gate:   ratelimit.New(cfg.RateLimit),
		health: venue.NewHealthTracker(types.VenuePolymarket, 30*time.Second),
		logger: cfg.Logger,
	}
}

// Venue returns Polymarket's static fee schedule and display metadata.
func (a *Adapter) Venue() types.VenueInfo {
	return types.VenueInfo{
		Venue:       types.VenuePolymarket,
		DisplayName: "Polymarket",
		BaseURL:     a.cfg.GammaBaseURL,
		Fees: types.FeeSchedule{
			TakerFee: decimal.Zero,
			MakerFee: decimal.Zero,
			WinFee:   decimal.NewFromFloat(0.02), // 2% fee on winnings, no fee on trade itself
		},
		SupportsPush: true,
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

// onVenueError widens the rate-limit gate's pacing when a call comes back
// rate-limited, per §4.B.
func (a *Adapter) onVenueError(err error) {
	var venueErr *types.VenueError
	if ve, ok := err.(*types.VenueError); ok {
		venueErr = ve
	}
	if venueErr != nil && venueErr.Kind == types.ErrRateLimited {
		a.gate.OnRateLimited()
	}
}

func (a *Adapter) StartPush(ctx context.Context, externalIDs []string, sink *venue.EventSink) error {
	a.wsManager = ws.New(ws.Config{
		URL:                   a.cfg.WSURL,
		DialTimeout:           a.cfg.WSDialTimeout,
		PongTimeout:           a.cfg.WSPongTimeout,
		PingInterval:          a.cfg.WSPingInterval,
		ReconnectInitialDelay: a.cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     a.cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  a.cfg.WSReconnectBackoffMult,
		MessageBufferSize:     a.cfg.WSMessageBufferSize,
		Logger:                a.logger,
	})

	if err := a.wsManager.Start(); err != nil {
		return types.NewVenueError(types.VenuePolymarket, "start_push", types.ErrTransient, err)
	}

	if err := a.wsManager.Subscribe(ctx, externalIDs); err != nil {
		return types.NewVenueError(types.VenuePolymarket, "subscribe", types.ErrTransient, err)
	}

	a.obManager = orderbook.New(&orderbook.Config{
		Logger:         a.logger,
		MessageChannel: a.wsManager.MessageChan(),
		Sink:           sink,
		Venue:          types.VenuePolymarket,
	})

	return a.obManager.Start(ctx)
}

func (a *Adapter) StopPush() error {
	if a.obManager != nil {
		_ = a.obManager.Close()
	}
	if a.wsManager != nil {
		return a.wsManager.Close()
	}
	return nil
}

func (a *Adapter) Health() types.VenueHealth {
	return a.health.Status()
}
