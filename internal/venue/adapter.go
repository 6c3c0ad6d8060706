// Package venue defines the uniform contract every venue-specific client
// implements (§4.A), plus the shared health tracking and event-sink types
// that let the ingestion orchestrator treat all venues identically.
package venue

import (
	"context"

	"github.com/crossvenue/arbengine/pkg/types"
)

// OrderbookEvent is a push/poll-delivered orderbook update, the typed
// payload replacing the teacher's untyped pub/sub messages (§9).
type OrderbookEvent struct {
	Book *types.OrderBook
}

// PriceEvent is a push/poll-delivered top-of-book update.
type PriceEvent struct {
	Quote *types.Quote
}

// EventSink is the pair of buffered channels an adapter's push worker
// writes to; the orchestrator owns both and drains them.
type EventSink struct {
	Orderbooks chan OrderbookEvent
	Prices     chan PriceEvent
}

// NewEventSink creates a sink with the given per-channel buffer size.
func NewEventSink(buffer int) *EventSink {
	return &EventSink{
		Orderbooks: make(chan OrderbookEvent, buffer),
		Prices:     make(chan PriceEvent, buffer),
	}
}

// Adapter is the uniform capability set every venue client implements.
type Adapter interface {
	// Venue returns the static tag/fee schedule this adapter serves.
	Venue() types.VenueInfo

	// FetchActiveMarkets returns all currently tradeable markets on this
	// venue and the call's latency in milliseconds.
	FetchActiveMarkets(ctx context.Context) ([]types.Market, int64, error)

	// FetchOrderBook returns top-N levels (N >= 10) on both sides for one
	// market, or (nil, latency, nil) if the venue has no book for it.
	FetchOrderBook(ctx context.Context, externalID string) (*types.OrderBook, int64, error)

	// FetchQuote returns top-of-book only, cheaper than FetchOrderBook on
	// venues that expose a dedicated endpoint for it.
	FetchQuote(ctx context.Context, externalID string) (*types.Quote, int64, error)

	// StartPush opens a persistent push connection (if the venue supports
	// one) subscribed to the given external ids, delivering events on sink.
	// Venues without a push transport return ErrPushUnsupported; callers
	// fall back to polling under the concurrency gate (§4.B).
	StartPush(ctx context.Context, externalIDs []string, sink *EventSink) error

	// StopPush closes any push connection opened by StartPush. Safe to call
	// even if StartPush was never called or already failed.
	StopPush() error

	// Health returns the current HEALTHY/DEGRADED/OFFLINE projection.
	Health() types.VenueHealth
}

// ErrPushUnsupported is returned by StartPush on venues with no push
// transport; the orchestrator treats it as "use polling", not a failure.
var ErrPushUnsupported = errPushUnsupported{}

type errPushUnsupported struct{}

func (errPushUnsupported) Error() string { return "venue does not support a push transport" }
