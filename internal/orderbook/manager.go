package orderbook

import (
	"context"
	"sync"
	"time"

	"github.com/crossvenue/arbengine/internal/venue"
	"github.com/crossvenue/arbengine/pkg/types"
	ws "github.com/crossvenue/arbengine/pkg/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Manager builds normalized order books from a venue's raw push feed and
// keeps the latest snapshot per external market ID. It is the Polymarket
// push adapter's book builder: Kalshi has no incremental feed and never
// routes through here.
type Manager struct {
	books   map[string]*types.OrderBook
	mu      sync.RWMutex
	logger  *zap.Logger
	msgChan <-chan *ws.OrderbookMessage
	sink    *venue.EventSink
	venue   types.Venue
	ctx     context.Context
	wg      sync.WaitGroup
}

// Config holds orderbook manager configuration.
type Config struct {
	Logger         *zap.Logger
	MessageChannel <-chan *ws.OrderbookMessage
	Sink           *venue.EventSink
	Venue          types.Venue
}

// New creates a new orderbook manager.
func New(cfg *Config) *Manager {
	return &Manager{
		books:   make(map[string]*types.OrderBook),
		logger:  cfg.Logger,
		msgChan: cfg.MessageChannel,
		sink:    cfg.Sink,
		venue:   cfg.Venue,
	}
}

// Start starts the orderbook manager.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx = ctx
	m.logger.Info("orderbook-manager-starting")

	m.wg.Add(1)
	go m.processMessages()

	return nil
}

func (m *Manager) processMessages() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Info("orderbook-manager-stopping")
			return
		case msg, ok := <-m.msgChan:
			if !ok {
				m.logger.Info("message-channel-closed")
				return
			}

			timer := prometheus.NewTimer(UpdateProcessingDuration)
			m.handleMessage(msg)
			timer.ObserveDuration()
		}
	}
}

func (m *Manager) handleMessage(msg *ws.OrderbookMessage) {
	UpdatesTotal.WithLabelValues(msg.EventType).Inc()

	switch msg.EventType {
	case "book":
		m.handleBookMessage(msg)
	case "price_change":
		m.handlePriceChangeMessage(msg)
	default:
		// last_trade_price and other chatter carries no book data.
	}
}

func (m *Manager) handleBookMessage(msg *ws.OrderbookMessage) {
	bids := toLevels(msg.Bids)
	asks := toLevels(msg.Asks)

	book, dropped := types.NewOrderBook(m.venue, msg.AssetID, bids, asks, time.Now(), 0)
	if dropped > 0 {
		IntegrityDropsTotal.Add(float64(dropped))
	}
	if book == nil {
		m.logger.Debug("orderbook-crossed-or-empty-dropped", zap.String("asset-id", msg.AssetID))
		return
	}

	m.store(msg.AssetID, book)
}

// handlePriceChangeMessage applies an incremental update on top of the
// existing book. Polymarket price_change events carry size="0" to mean
// "unchanged", not "zero depth", so a missing side preserves the prior level.
func (m *Manager) handlePriceChangeMessage(msg *ws.OrderbookMessage) {
	m.mu.RLock()
	existing, ok := m.books[msg.AssetID]
	m.mu.RUnlock()

	if !ok {
		m.handleBookMessage(msg)
		return
	}

	bids := existing.Bids
	asks := existing.Asks

	if newBids := toLevels(msg.Bids); len(newBids) > 0 && newBids[0].Size.IsPositive() {
		bids = newBids
	}
	if newAsks := toLevels(msg.Asks); len(newAsks) > 0 && newAsks[0].Size.IsPositive() {
		asks = newAsks
	}

	book, dropped := types.NewOrderBook(m.venue, msg.AssetID, bids, asks, time.Now(), 0)
	if dropped > 0 {
		IntegrityDropsTotal.Add(float64(dropped))
	}
	if book == nil {
		m.logger.Debug("orderbook-crossed-or-empty-dropped", zap.String("asset-id", msg.AssetID))
		return
	}

	m.store(msg.AssetID, book)
}

// store records the latest snapshot and queues it for delivery. On a full
// sink, the oldest queued update is evicted to make room for this one
// instead of the other way around — latest-wins on overflow, never
// stale-wins (§4.D).
func (m *Manager) store(assetID string, book *types.OrderBook) {
	m.mu.Lock()
	m.books[assetID] = book
	SnapshotsTracked.Set(float64(len(m.books)))
	m.mu.Unlock()

	event := venue.OrderbookEvent{Book: book}

	select {
	case m.sink.Orderbooks <- event:
		return
	default:
	}

	select {
	case <-m.sink.Orderbooks:
		UpdatesDroppedTotal.WithLabelValues("buffer_full_evicted_oldest").Inc()
	default:
	}

	select {
	case m.sink.Orderbooks <- event:
	default:
		m.logger.Error("CRITICAL-orderbook-sink-full-DROPPING-DATA",
			zap.String("asset-id", assetID),
			zap.Int("buffer-size", cap(m.sink.Orderbooks)))
		UpdatesDroppedTotal.WithLabelValues("channel_full").Inc()
	}
}

func toLevels(raw []ws.PriceLevel) []types.Level {
	levels := make([]types.Level, 0, len(raw))
	for _, lvl := range raw {
		price, err := decimal.NewFromString(lvl.Price)
		if err != nil {
			continue
		}
		size, err := decimal.NewFromString(lvl.Size)
		if err != nil {
			continue
		}
		levels = append(levels, types.Level{Price: price, Size: size})
	}
	return levels
}

// GetSnapshot returns the orderbook snapshot for an external market ID.
func (m *Manager) GetSnapshot(externalID string) (*types.OrderBook, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, exists := m.books[externalID]
	return book, exists
}

// GetAllSnapshots returns all orderbook snapshots.
func (m *Manager) GetAllSnapshots() map[string]*types.OrderBook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshots := make(map[string]*types.OrderBook, len(m.books))
	for id, book := range m.books {
		snapshots[id] = book
	}
	return snapshots
}

// Close gracefully closes the orderbook manager.
func (m *Manager) Close() error {
	m.logger.Info("closing-orderbook-manager")
	m.wg.Wait()
	m.logger.Info("orderbook-manager-closed")
	return nil
}
