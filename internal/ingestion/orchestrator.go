// Package ingestion runs the per-venue discovery and refresh lifecycle from
// §4.D: a full market sync on a slow cadence, a targeted orderbook refresh
// on a fast cadence for the CONFIRMED-matched markets of poll-only venues,
// and a drain loop for venues that push updates over their own event sink.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crossvenue/arbengine/internal/venue"
	"github.com/crossvenue/arbengine/internal/storage"
	"github.com/crossvenue/arbengine/pkg/cache"
	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Stats is the point-in-time ingestion counters surfaced on the §6 status
// endpoint.
type Stats struct {
	MarketsIngested  int64
	OrderbooksUpdated int64
	QuotesUpdated    int64
	ErrorsCount      int64
	LastFullSyncAt   int64 // unix millis, 0 if never
}

// Config configures the Orchestrator.
type Config struct {
	Adapters         map[types.Venue]venue.Adapter
	Cache            cache.Cache
	Storage          storage.Storage
	Logger           *zap.Logger
	FullSyncInterval time.Duration
	PollInterval     time.Duration
	BookTTL          time.Duration
	SingleMarket     string // debug mode: restrict to one external_id, any venue
}

// pushBusBufferSize bounds the orchestrator's outward notification channels;
// a slow or absent external subscriber drops the oldest queued notification
// rather than blocking ingestion (§4.D).
const pushBusBufferSize = 1000

// Orchestrator owns the ingestion lifecycle across every enabled venue.
type Orchestrator struct {
	cfg    Config
	logger *zap.Logger
	stats  Stats

	mu      sync.RWMutex
	markets map[types.MarketKey]*types.Market

	sinks map[types.Venue]*venue.EventSink

	pushPrices     chan types.PushPriceEvent
	pushOrderbooks chan types.PushOrderbookEvent

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New constructs an Orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.FullSyncInterval == 0 {
		cfg.FullSyncInterval = 5 * time.Minute
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BookTTL == 0 {
		cfg.BookTTL = 10 * time.Second
	}

	return &Orchestrator{
		cfg:            cfg,
		logger:         cfg.Logger,
		markets:        make(map[types.MarketKey]*types.Market),
		sinks:          make(map[types.Venue]*venue.EventSink),
		pushPrices:     make(chan types.PushPriceEvent, pushBusBufferSize),
		pushOrderbooks: make(chan types.PushOrderbookEvent, pushBusBufferSize),
	}
}

// Prices returns the channel of abbreviated price notifications the
// external push bus subscriber drains (§6).
func (o *Orchestrator) Prices() <-chan types.PushPriceEvent { return o.pushPrices }

// Orderbooks returns the channel of abbreviated orderbook-changed
// notifications the external push bus subscriber drains (§6).
func (o *Orchestrator) Orderbooks() <-chan types.PushOrderbookEvent { return o.pushOrderbooks }

// publishPrice forwards an abbreviated price notification to the push bus
// channel, dropping the oldest queued notification on overflow rather than
// blocking the ingestion path (§4.D item 3).
func (o *Orchestrator) publishPrice(ev types.PushPriceEvent) {
	select {
	case o.pushPrices <- ev:
		return
	default:
	}
	select {
	case <-o.pushPrices:
	default:
	}
	select {
	case o.pushPrices <- ev:
	default:
	}
}

// publishOrderbook forwards an abbreviated orderbook notification to the
// push bus channel, same overflow handling as publishPrice.
func (o *Orchestrator) publishOrderbook(ev types.PushOrderbookEvent) {
	select {
	case o.pushOrderbooks <- ev:
		return
	default:
	}
	select {
	case <-o.pushOrderbooks:
	default:
	}
	select {
	case o.pushOrderbooks <- ev:
	default:
	}
}

// Start runs the full sync once synchronously, then launches the background
// loops (periodic full sync, targeted poll refresh, push-event drain).
func (o *Orchestrator) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	if err := o.fullSync(runCtx); err != nil {
		o.logger.Error("initial-full-sync-failed", zap.Error(err))
	}

	for v, adapter := range o.cfg.Adapters {
		sink := venue.NewEventSink(1000)

		ids := o.externalIDsForVenue(v)
		if err := adapter.StartPush(runCtx, ids, sink); err != nil {
			if err != venue.ErrPushUnsupported {
				o.logger.Warn("start-push-failed", zap.String("venue", string(v)), zap.Error(err))
			}
			continue
		}
		o.sinks[v] = sink

		o.wg.Add(1)
		go o.drainSink(runCtx, v, sink)
	}

	o.wg.Add(2)
	go o.fullSyncLoop(runCtx)
	go o.pollLoop(runCtx)

	return nil
}

// Stop cancels background loops, closes each adapter's push connection, and
// waits for goroutines to exit.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	for _, adapter := range o.cfg.Adapters {
		_ = adapter.StopPush()
	}
	o.wg.Wait()
}

func (o *Orchestrator) externalIDsForVenue(v types.Venue) []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ids := make([]string, 0)
	for key := range o.markets {
		if key.Venue == v {
			ids = append(ids, key.ExternalID)
		}
	}
	return ids
}

func (o *Orchestrator) fullSyncLoop(ctx context.Context) {
	defer o.wg.Done()
	ticker := time.NewTicker(o.cfg.FullSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := o.fullSync(ctx); err != nil {
				o.logger.Error("full-sync-failed", zap.Error(err))
			}
		}
	}
}

// fullSync fetches every enabled venue's active market listing, normalizes
// it, and upserts each market into the in-memory table, cache, and storage.
// A market that disappears from the listing is not removed outright: its
// MissedFullSyncs counter increments, matching §4.D's soft-close handling.
func (o *Orchestrator) fullSync(ctx context.Context) error {
	timer := prometheus.NewTimer(FullSyncDuration)
	defer timer.ObserveDuration()

	seen := make(map[types.MarketKey]bool)

	for v, adapter := range o.cfg.Adapters {
		markets, _, err := adapter.FetchActiveMarkets(ctx)
		if err != nil {
			atomic.AddInt64(&o.stats.ErrorsCount, 1)
			o.logger.Warn("fetch-active-markets-failed", zap.String("venue", string(v)), zap.Error(err))
			continue
		}

		for i := range markets {
			m := markets[i]
			if o.cfg.SingleMarket != "" && m.ExternalID != o.cfg.SingleMarket {
				continue
			}

			key := m.Key()
			seen[key] = true

			o.mu.Lock()
			o.markets[key] = &m
			o.mu.Unlock()

			atomic.AddInt64(&o.stats.MarketsIngested, 1)
			MarketsIngestedTotal.WithLabelValues(string(v)).Inc()

			if err := o.cfg.Storage.UpsertMarket(ctx, &m); err != nil {
				o.logger.Warn("upsert-market-failed", zap.String("key", key.String()), zap.Error(err))
			}
			o.cfg.Cache.Set(marketCacheKey(key), &m, o.cfg.FullSyncInterval*2)
		}
	}

	o.mu.Lock()
	for key, m := range o.markets {
		if !seen[key] {
			m.MissedFullSyncs++
			if m.MissedFullSyncs >= 3 {
				m.Status = types.MarketClosed
			}
		}
	}
	o.mu.Unlock()

	atomic.StoreInt64(&o.stats.LastFullSyncAt, time.Now().UnixMilli())
	return nil
}

// pollLoop refreshes order books for poll-only venues (no push transport)
// on the fast INGESTION_INTERVAL_MS cadence, limited to markets referenced
// by a CONFIRMED match.
func (o *Orchestrator) pollLoop(ctx context.Context) {
	defer o.wg.Done()
	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.pollOnce(ctx)
		}
	}
}

func (o *Orchestrator) pollOnce(ctx context.Context) {
	confirmed, err := o.cfg.Storage.ConfirmedMatches(ctx)
	if err != nil {
		atomic.AddInt64(&o.stats.ErrorsCount, 1)
		o.logger.Warn("confirmed-matches-lookup-failed", zap.Error(err))
		return
	}
	wanted := make(map[types.MarketKey]bool, 2*len(confirmed))
	for _, match := range confirmed {
		wanted[match.Source] = true
		wanted[match.Target] = true
	}

	o.mu.RLock()
	targets := make([]types.MarketKey, 0, len(wanted))
	for key, m := range o.markets {
		if m.Status != types.MarketActive || !wanted[key] {
			continue
		}
		if _, isPush := o.sinks[key.Venue]; isPush {
			continue
		}
		targets = append(targets, key)
	}
	o.mu.RUnlock()

	for _, key := range targets {
		adapter, ok := o.cfg.Adapters[key.Venue]
		if !ok {
			continue
		}

		book, _, err := adapter.FetchOrderBook(ctx, key.ExternalID)
		if err != nil {
			atomic.AddInt64(&o.stats.ErrorsCount, 1)
			PollErrorsTotal.WithLabelValues(string(key.Venue)).Inc()
			continue
		}
		if book == nil {
			continue
		}

		o.applyOrderbook(ctx, book)
		atomic.AddInt64(&o.stats.OrderbooksUpdated, 1)
	}
}

func (o *Orchestrator) drainSink(ctx context.Context, v types.Venue, sink *venue.EventSink) {
	defer o.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sink.Orderbooks:
			if !ok {
				return
			}
			o.applyOrderbook(ctx, ev.Book)
			atomic.AddInt64(&o.stats.OrderbooksUpdated, 1)
		case ev, ok := <-sink.Prices:
			if !ok {
				return
			}
			o.applyQuote(ev.Quote)
			atomic.AddInt64(&o.stats.QuotesUpdated, 1)
		}
	}
}

func (o *Orchestrator) applyOrderbook(ctx context.Context, book *types.OrderBook) {
	key := types.MarketKey{Venue: book.Venue, ExternalID: book.ExternalID}

	o.mu.Lock()
	m, ok := o.markets[key]
	if ok {
		if bid, hasBid := book.BestBid(); hasBid {
			m.BestBidYes = bid.Price
		}
		if ask, hasAsk := book.BestAsk(); hasAsk {
			m.BestAskYes = ask.Price
		}
		if mid, hasMid := book.Midpoint(); hasMid {
			m.Midpoint = mid
		}
		if spread, hasSpread := book.Spread(); hasSpread {
			m.Spread = spread
		}
		m.LastFetchedAt = book.Timestamp
		m.FetchLatencyMs = book.LatencyMs
	}
	o.mu.Unlock()

	o.cfg.Cache.Set(orderbookCacheKey(key), book, o.cfg.BookTTL)

	o.publishOrderbook(types.PushOrderbookEvent{
		Venue:     key.Venue,
		MarketID:  key.ExternalID,
		Timestamp: book.Timestamp,
	})
}

func (o *Orchestrator) applyQuote(q *types.Quote) {
	key := types.MarketKey{Venue: q.Venue, ExternalID: q.ExternalID}

	o.mu.Lock()
	if m, ok := o.markets[key]; ok {
		m.BestBidYes = q.BestBid
		m.BestAskYes = q.BestAsk
		m.LastFetchedAt = q.Timestamp
		m.FetchLatencyMs = q.LatencyMs
	}
	o.mu.Unlock()

	o.cfg.Cache.Set(quoteCacheKey(key), q, o.cfg.BookTTL)

	o.publishPrice(types.PushPriceEvent{
		Venue:     key.Venue,
		MarketID:  key.ExternalID,
		Price:     q.BestAsk,
		Timestamp: q.Timestamp,
	})
}

// Markets returns a snapshot of every market currently known.
func (o *Orchestrator) Markets() []*types.Market {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]*types.Market, 0, len(o.markets))
	for _, m := range o.markets {
		copyM := *m
		out = append(out, &copyM)
	}
	return out
}

// MarketByKey returns a snapshot of a single market by its natural key.
func (o *Orchestrator) MarketByKey(key types.MarketKey) (*types.Market, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	m, ok := o.markets[key]
	if !ok {
		return nil, false
	}
	copyM := *m
	return &copyM, true
}

// OrderBook returns the cached order book for a market key, if present.
func (o *Orchestrator) OrderBook(key types.MarketKey) (*types.OrderBook, bool) {
	v, ok := o.cfg.Cache.Get(orderbookCacheKey(key))
	if !ok {
		return nil, false
	}
	if book, ok := v.(*types.OrderBook); ok {
		return book, true
	}
	// The Redis backend hands back generic decoded JSON rather than the
	// stored type, so re-decode it into an OrderBook.
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var book types.OrderBook
	if err := json.Unmarshal(raw, &book); err != nil {
		return nil, false
	}
	return &book, true
}

// Stats returns a snapshot of the ingestion counters.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		MarketsIngested:   atomic.LoadInt64(&o.stats.MarketsIngested),
		OrderbooksUpdated: atomic.LoadInt64(&o.stats.OrderbooksUpdated),
		QuotesUpdated:     atomic.LoadInt64(&o.stats.QuotesUpdated),
		ErrorsCount:       atomic.LoadInt64(&o.stats.ErrorsCount),
		LastFullSyncAt:    atomic.LoadInt64(&o.stats.LastFullSyncAt),
	}
}

// Health returns the current health snapshot of every configured adapter,
// keyed by venue, for the §6 status endpoint.
func (o *Orchestrator) Health() map[types.Venue]types.VenueHealth {
	out := make(map[types.Venue]types.VenueHealth, len(o.cfg.Adapters))
	for v, adapter := range o.cfg.Adapters {
		out[v] = adapter.Health()
	}
	return out
}

func marketCacheKey(key types.MarketKey) string   { return fmt.Sprintf("market:%s", key.String()) }
func orderbookCacheKey(key types.MarketKey) string { return fmt.Sprintf("orderbook:%s", key.String()) }
func quoteCacheKey(key types.MarketKey) string     { return fmt.Sprintf("quote:%s", key.String()) }
