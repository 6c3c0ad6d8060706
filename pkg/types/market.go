package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketStatus is the lifecycle state of a Market.
type MarketStatus string

const (
	MarketActive    MarketStatus = "ACTIVE"
	MarketClosed    MarketStatus = "CLOSED"
	MarketResolved  MarketStatus = "RESOLVED"
	MarketCancelled MarketStatus = "CANCELLED"
)

// MarketKey is the natural key a Market is addressed by everywhere outside
// the row itself — entities reference each other by this, never by pointer.
type MarketKey struct {
	Venue      Venue
	ExternalID string
}

// String renders the key as "VENUE:external_id", the form used in cache
// keys and log fields throughout the system.
func (k MarketKey) String() string {
	return string(k.Venue) + ":" + k.ExternalID
}

// Market is one venue's binary (YES/NO) contract, normalized into the
// common shape every adapter produces.
type Market struct {
	Venue      Venue
	ExternalID string

	Question         string
	Description      string
	Category         string
	Outcomes         []string // binary: ["YES", "NO"]
	EndDate          *time.Time
	ResolutionSource string
	ResolutionRules  string

	TickSize         decimal.Decimal
	MinimumOrderSize decimal.Decimal
	FeeRate          decimal.Decimal
	SourceURL        string
	Status           MarketStatus

	// Denormalized latest quote, upserted by the ingestion orchestrator
	// whenever a fresh OrderBook/Quote arrives for this market.
	BestBidYes decimal.Decimal
	BestAskYes decimal.Decimal
	Midpoint   decimal.Decimal
	Spread     decimal.Decimal

	LastFetchedAt  time.Time
	FetchLatencyMs int64

	// MissedFullSyncs counts consecutive full syncs in which this market did
	// not appear in the venue's active listing; the orchestrator moves the
	// market to CLOSED once this crosses a small threshold.
	MissedFullSyncs int
}

// Key returns the natural key this market is addressed by.
func (m *Market) Key() MarketKey {
	return MarketKey{Venue: m.Venue, ExternalID: m.ExternalID}
}
