package types

import "github.com/shopspring/decimal"

// Venue identifies a prediction-market venue by a stable tag.
type Venue string

const (
	VenuePolymarket Venue = "POLYMARKET"
	VenueKalshi     Venue = "KALSHI"
)

// FeeSchedule is the static fee schedule a venue publishes for its markets.
type FeeSchedule struct {
	TakerFee       decimal.Decimal
	MakerFee       decimal.Decimal
	WinFee         decimal.Decimal
	WithdrawalFee  decimal.Decimal
}

// VenueInfo carries display metadata and the fee schedule for a venue.
type VenueInfo struct {
	Venue       Venue
	DisplayName string
	BaseURL     string
	Fees        FeeSchedule
	// SupportsPush is true when the venue offers a persistent push transport
	// (websocket/SSE); otherwise the adapter is polled under the concurrency gate.
	SupportsPush bool
}

// HealthStatus is the tri-state adapter health projection driven by
// consecutive_errors, per §4.A of the design.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "HEALTHY"
	HealthDegraded HealthStatus = "DEGRADED"
	HealthOffline  HealthStatus = "OFFLINE"
)

// VenueHealth is the point-in-time health snapshot an adapter exposes.
type VenueHealth struct {
	Venue             Venue
	Status            HealthStatus
	ConsecutiveErrors int
	AvgLatencyMs      float64
	LastFetch         int64 // unix millis, 0 if never
	MarketCount       int
}
