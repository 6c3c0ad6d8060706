package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpportunityStatus is the lifecycle state of an ArbitrageOpportunity.
type OpportunityStatus string

const (
	OpportunityActive   OpportunityStatus = "ACTIVE"
	OpportunityExpired  OpportunityStatus = "EXPIRED"
	OpportunityExecuted OpportunityStatus = "EXECUTED"
	OpportunityMissed   OpportunityStatus = "MISSED"
)

// StrategyAction names one of the four directional trades the detector can
// propose for a binary-market pair.
type StrategyAction string

const (
	BuyYesSellYes StrategyAction = "BUY_YES_SELL_YES"
	BuyNoSellNo   StrategyAction = "BUY_NO_SELL_NO"
	BuyYesSellNo  StrategyAction = "BUY_YES_SELL_NO"
	BuyNoSellYes  StrategyAction = "BUY_NO_SELL_YES"
)

// Strategy is the directional trade the detector selected.
type Strategy struct {
	Action StrategyAction

	BuyVenue Venue
	BuyPrice decimal.Decimal
	BuySize  decimal.Decimal

	SellVenue Venue
	SellPrice decimal.Decimal
	SellSize  decimal.Decimal
}

// ProfitAnalysis is the economic summary of a detected opportunity.
type ProfitAnalysis struct {
	GrossSpread        decimal.Decimal
	TotalFees          decimal.Decimal
	EstimatedSlippage  decimal.Decimal
	NetProfit          decimal.Decimal
	ROI                decimal.Decimal
	AnnualizedROI      decimal.Decimal
	MaxExecutableSize  decimal.Decimal
}

// Confidence is the [0,1] weighted blend of freshness, liquidity, and match
// quality the detector attaches to every opportunity.
type Confidence struct {
	Overall      float64
	Freshness    float64
	Liquidity    float64
	MatchQuality float64
	DataAgeMs    int64
}

// ExecutionStep is one ordered leg of the ExecutionPlan.
type ExecutionStep struct {
	Venue       Venue
	Action      string // "BUY" or "SELL"
	Outcome     string // "YES" or "NO"
	Price       decimal.Decimal
	Size        decimal.Decimal
	Slippage    decimal.Decimal
	Fee         decimal.Decimal
	NetCost     decimal.Decimal
	Instruction string
	VenueURL    string
}

// RiskBand classifies a partial-fill scenario by how much of the size
// filled, per §4.F.
type RiskBand string

const (
	RiskLow    RiskBand = "LOW"
	RiskMedium RiskBand = "MEDIUM"
	RiskHigh   RiskBand = "HIGH"
)

// PartialFillScenario is a derived view of what happens at pct% of the max
// executable size; it is persisted with its opportunity.
type PartialFillScenario struct {
	Pct             int
	FilledQty       decimal.Decimal
	AdjustedProfit  decimal.Decimal
	Risk            RiskBand
	Recommendation  string
}

// ArbitrageOpportunity is a specific, detected arbitrage instance for a
// CONFIRMED MarketMatch at a specific moment.
type ArbitrageOpportunity struct {
	ID string

	SourceMarket MarketKey
	TargetMarket MarketKey

	Strategy       Strategy
	Profit         ProfitAnalysis
	Confidence     Confidence
	ExecutionPlan  []ExecutionStep
	PartialFills   []PartialFillScenario

	Status OpportunityStatus

	DetectedAt        time.Time
	SourceDataAgeMs   int64
	TargetDataAgeMs   int64
}
