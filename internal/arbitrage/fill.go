package arbitrage

import (
	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/shopspring/decimal"
)

// slippageBand is how far from the top-of-book price a level may sit and
// still be admitted into the fill simulation, per §4.F.3.
var slippageBand = decimal.NewFromFloat(0.05)

// fillResult is the outcome of walking one side of a book from its top
// level outward until the slippage band is exceeded.
type fillResult struct {
	AvgPrice  decimal.Decimal
	TotalSize decimal.Decimal
	Slippage  decimal.Decimal
}

// simulateFill walks levels (already sorted best-first by the OrderBook
// invariant) and admits every level within the slippage band of the top
// price. total_fillable_size sums the sizes the venue actually returned —
// never a published "total depth" field, per §9 open question (c), since
// levels is exactly what the book's bid/ask slice contains.
func simulateFill(levels []types.Level) fillResult {
	if len(levels) == 0 {
		return fillResult{}
	}

	top := levels[0].Price
	band := top.Mul(slippageBand)

	totalSize := decimal.Zero
	weighted := decimal.Zero
	for _, lvl := range levels {
		diff := lvl.Price.Sub(top).Abs()
		if diff.GreaterThan(band) {
			break
		}
		totalSize = totalSize.Add(lvl.Size)
		weighted = weighted.Add(lvl.Price.Mul(lvl.Size))
	}

	if totalSize.IsZero() {
		return fillResult{}
	}

	avg := weighted.Div(totalSize)
	return fillResult{
		AvgPrice:  avg,
		TotalSize: totalSize,
		Slippage:  avg.Sub(top).Abs(),
	}
}
