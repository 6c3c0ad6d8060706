package arbitrage

import (
	"fmt"

	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// candidate is one directional evaluation of a MarketMatch — either
// (source buys / target sells) or (target buys / source sells) — before
// the detector picks the higher-net-profit side.
type candidate struct {
	action types.StrategyAction

	buyVenue types.Venue
	buyURL   string
	buyAsk   decimal.Decimal
	buyFee   decimal.Decimal
	buyAgeMs int64

	sellVenue types.Venue
	sellURL   string
	sellBid   decimal.Decimal
	sellFee   decimal.Decimal
	sellAgeMs int64

	grossSpread       decimal.Decimal
	netSpreadPerShare decimal.Decimal
	maxExecutableSize decimal.Decimal
	combinedSlippage  decimal.Decimal
	netProfit         decimal.Decimal
	roi               decimal.Decimal
	annualizedROI     decimal.Decimal
	confidence        types.Confidence
}

// buildExecutionPlan renders the two-step plan from §4.F.8.
func buildExecutionPlan(c candidate) []types.ExecutionStep {
	buyNetCost := c.buyAsk.Add(c.buyFee).Mul(c.maxExecutableSize)
	sellNetCost := c.sellBid.Sub(c.sellFee).Mul(c.maxExecutableSize)

	return []types.ExecutionStep{
		{
			Venue:       c.buyVenue,
			Action:      "BUY",
			Outcome:     "YES",
			Price:       c.buyAsk,
			Size:        c.maxExecutableSize,
			Fee:         c.buyFee.Mul(c.maxExecutableSize),
			NetCost:     buyNetCost,
			Instruction: fmt.Sprintf("BUY %s YES @ %s on %s", c.maxExecutableSize.StringFixed(2), c.buyAsk.StringFixed(4), c.buyVenue),
			VenueURL:    c.buyURL,
		},
		{
			Venue:       c.sellVenue,
			Action:      "SELL",
			Outcome:     "YES",
			Price:       c.sellBid,
			Size:        c.maxExecutableSize,
			Fee:         c.sellFee.Mul(c.maxExecutableSize),
			NetCost:     sellNetCost,
			Instruction: fmt.Sprintf("SELL %s YES @ %s on %s", c.maxExecutableSize.StringFixed(2), c.sellBid.StringFixed(4), c.sellVenue),
			VenueURL:    c.sellURL,
		},
	}
}

var partialFillPcts = []int{25, 50, 75, 100}

// buildPartialFills derives the §4.F scenarios attached to the
// ArbitrageOpportunity; Storage.StoreOpportunity persists them alongside it
// as the partial_fills JSONB column.
func buildPartialFills(maxSize, netProfit decimal.Decimal) []types.PartialFillScenario {
	scenarios := make([]types.PartialFillScenario, 0, len(partialFillPcts))
	for _, pct := range partialFillPcts {
		frac := decimal.NewFromInt(int64(pct)).Div(decimal.NewFromInt(100))
		filled := maxSize.Mul(frac)
		adjusted := netProfit.Mul(frac)

		risk := types.RiskHigh
		switch {
		case pct >= 75:
			risk = types.RiskLow
		case pct >= 50:
			risk = types.RiskMedium
		}

		scenarios = append(scenarios, types.PartialFillScenario{
			Pct:            pct,
			FilledQty:      filled,
			AdjustedProfit: adjusted,
			Risk:           risk,
			Recommendation: partialFillRecommendation(risk, pct),
		})
	}
	return scenarios
}

func partialFillRecommendation(risk types.RiskBand, pct int) string {
	switch risk {
	case types.RiskLow:
		return fmt.Sprintf("%d%% fill is comfortably within quoted depth; proceed at full size", pct)
	case types.RiskMedium:
		return fmt.Sprintf("%d%% fill is plausible but may walk the book further than modeled; consider staged entry", pct)
	default:
		return fmt.Sprintf("%d%% fill is unlikely to clear at the modeled price; size down or skip", pct)
	}
}

// newOpportunityID generates the persisted opportunity identifier.
func newOpportunityID() string {
	return uuid.NewString()
}
