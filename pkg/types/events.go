package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PushPriceEvent is the abbreviated top-of-book notification the ingestion
// orchestrator forwards to the external push bus whenever a quote updates
// (§4.D, §6).
type PushPriceEvent struct {
	Venue     Venue
	MarketID  string
	Price     decimal.Decimal
	Timestamp time.Time
}

// PushOrderbookEvent is the abbreviated orderbook-changed notification the
// ingestion orchestrator forwards to the external push bus whenever a book
// updates (§4.D, §6).
type PushOrderbookEvent struct {
	Venue     Venue
	MarketID  string
	Timestamp time.Time
}

// PushOpportunityEvent is the new-opportunity notification the detector
// forwards to the external push bus the moment an opportunity is persisted
// (§4.F, §6).
type PushOpportunityEvent struct {
	ID           string
	MatchID      string
	ROI          decimal.Decimal
	NetProfit    decimal.Decimal
	Confidence   float64
	SourceMarket MarketKey
	TargetMarket MarketKey
}
