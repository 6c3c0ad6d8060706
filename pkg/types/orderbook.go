package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Level is a single price/size pair on one side of an order book.
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderBook is a normalized, validated snapshot of both sides of a market's
// book at a moment in time, keyed by (venue, external_id).
//
// Bids are sorted price-descending, asks price-ascending, per §3. Construct
// one only through NewOrderBook, which enforces the invariants.
type OrderBook struct {
	Venue      Venue
	ExternalID string
	Bids       []Level
	Asks       []Level
	Timestamp  time.Time
	LatencyMs  int64
}

// NewOrderBook sorts, validates, and constructs an OrderBook from raw
// (already-normalized-to-[0,1]) levels. Levels with negative sizes or
// out-of-range prices are dropped one by one and the remainder is kept; a
// book whose best bid is at or above its best ask has every level dropped.
// The returned count lets ingestion count these drops (INTEGRITY, §7).
func NewOrderBook(venue Venue, externalID string, bids, asks []Level, ts time.Time, latencyMs int64) (*OrderBook, int) {
	dropped := 0

	cleanBids := make([]Level, 0, len(bids))
	for _, l := range bids {
		if !validLevel(l) {
			dropped++
			continue
		}
		cleanBids = append(cleanBids, l)
	}
	cleanAsks := make([]Level, 0, len(asks))
	for _, l := range asks {
		if !validLevel(l) {
			dropped++
			continue
		}
		cleanAsks = append(cleanAsks, l)
	}

	sortDescending(cleanBids)
	sortAscending(cleanAsks)

	if len(cleanBids) > 0 && len(cleanAsks) > 0 && cleanBids[0].Price.GreaterThanOrEqual(cleanAsks[0].Price) {
		// Crossed book at the top: drop the whole thing rather than emit a
		// lie. Individual crossed levels further down are left alone since
		// "crossed" is only meaningful between best bid and best ask.
		dropped += len(cleanBids) + len(cleanAsks)
		cleanBids = nil
		cleanAsks = nil
	}

	return &OrderBook{
		Venue:      venue,
		ExternalID: externalID,
		Bids:       cleanBids,
		Asks:       cleanAsks,
		Timestamp:  ts,
		LatencyMs:  latencyMs,
	}, dropped
}

func validLevel(l Level) bool {
	if l.Price.IsNegative() || l.Price.GreaterThan(decimal.NewFromInt(1)) {
		return false
	}
	if l.Size.IsNegative() {
		return false
	}
	return true
}

func sortDescending(levels []Level) {
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0 && levels[j].Price.GreaterThan(levels[j-1].Price); j-- {
			levels[j], levels[j-1] = levels[j-1], levels[j]
		}
	}
}

func sortAscending(levels []Level) {
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0 && levels[j].Price.LessThan(levels[j-1].Price); j-- {
			levels[j], levels[j-1] = levels[j-1], levels[j]
		}
	}
}

// BestBid returns the top bid level, or false if the book has no bids.
func (b *OrderBook) BestBid() (Level, bool) {
	if len(b.Bids) == 0 {
		return Level{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the top ask level, or false if the book has no asks.
func (b *OrderBook) BestAsk() (Level, bool) {
	if len(b.Asks) == 0 {
		return Level{}, false
	}
	return b.Asks[0], true
}

// Midpoint returns (best_bid+best_ask)/2, or false if either side is empty.
func (b *OrderBook) Midpoint() (decimal.Decimal, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2)), true
}

// Spread returns best_ask - best_bid, or false if either side is empty.
func (b *OrderBook) Spread() (decimal.Decimal, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	return ask.Price.Sub(bid.Price), true
}

// AgeMillis returns how old this book is relative to now, in milliseconds.
func (b *OrderBook) AgeMillis(now time.Time) int64 {
	return now.Sub(b.Timestamp).Milliseconds()
}

// CumulativeSize sums size across up to n levels, summing the levels the
// venue actually returned rather than trusting a published "total depth"
// field — see §9 open question (c).
func CumulativeSize(levels []Level, n int) decimal.Decimal {
	total := decimal.Zero
	for i, l := range levels {
		if i >= n {
			break
		}
		total = total.Add(l.Size)
	}
	return total
}

// Validate checks the §8 invariant 1 quantified properties and returns an
// error describing the first violation found, if any.
func (b *OrderBook) Validate() error {
	for i := 1; i < len(b.Bids); i++ {
		if !b.Bids[i-1].Price.GreaterThan(b.Bids[i].Price) {
			return fmt.Errorf("bids not strictly decreasing at index %d", i)
		}
	}
	for i := 1; i < len(b.Asks); i++ {
		if !b.Asks[i-1].Price.LessThan(b.Asks[i].Price) {
			return fmt.Errorf("asks not strictly increasing at index %d", i)
		}
	}
	if bid, ok := b.BestBid(); ok {
		if ask, ok := b.BestAsk(); ok && !bid.Price.LessThan(ask.Price) {
			return fmt.Errorf("crossed book: best_bid %s >= best_ask %s", bid.Price, ask.Price)
		}
	}
	return nil
}

// Quote is the lightweight top-of-book-only variant used when a venue's
// top-of-book endpoint is cheaper than its depth endpoint.
type Quote struct {
	Venue       Venue
	ExternalID  string
	BestBid     decimal.Decimal
	BestAsk     decimal.Decimal
	LastTrade   decimal.Decimal
	Volume24h   decimal.Decimal
	Timestamp   time.Time
	LatencyMs   int64
}
