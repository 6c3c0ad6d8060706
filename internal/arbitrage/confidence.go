package arbitrage

import (
	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/shopspring/decimal"
)

const depthLevels = 5

// freshness implements §4.F.7's freshness sub-score: 1 at zero age, 0 once
// the older of the two sides reaches the stale threshold.
func freshness(buyAgeMs, sellAgeMs, staleThresholdMs int64) float64 {
	age := buyAgeMs
	if sellAgeMs > age {
		age = sellAgeMs
	}
	score := 1 - float64(age)/float64(staleThresholdMs)
	if score < 0 {
		score = 0
	}
	return score
}

// liquidity implements §4.F.7's liquidity sub-score: the minimum of the
// top-5 cumulative size across all four book sides involved, scaled against
// a 1000-unit reference depth.
func liquidity(buyBook, sellBook *types.OrderBook) float64 {
	depths := []decimal.Decimal{
		types.CumulativeSize(buyBook.Bids, depthLevels),
		types.CumulativeSize(buyBook.Asks, depthLevels),
		types.CumulativeSize(sellBook.Bids, depthLevels),
		types.CumulativeSize(sellBook.Asks, depthLevels),
	}

	min := depths[0]
	for _, d := range depths[1:] {
		if d.LessThan(min) {
			min = d
		}
	}

	score, _ := min.Div(decimal.NewFromInt(1000)).Float64()
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// overallConfidence implements §4.F.7's weighted blend and §8 invariant 4.
func overallConfidence(freshnessScore, liquidityScore, matchQuality float64) float64 {
	return 0.35*freshnessScore + 0.30*liquidityScore + 0.35*matchQuality
}
