package arbitrage

import (
	"testing"
	"time"

	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestFreshness_ZeroAgeScoresOne(t *testing.T) {
	assert.Equal(t, 1.0, freshness(0, 0, 3000))
}

func TestFreshness_AtThresholdScoresZero(t *testing.T) {
	assert.Equal(t, 0.0, freshness(3000, 0, 3000))
}

func TestFreshness_PastThresholdClampsToZero(t *testing.T) {
	assert.Equal(t, 0.0, freshness(4000, 100, 3000))
}

func TestLiquidity_ScalesAgainstThousandUnitReference(t *testing.T) {
	buy, _ := types.NewOrderBook(types.VenuePolymarket, "a",
		[]types.Level{{Price: dec("0.39"), Size: dec("500")}},
		[]types.Level{{Price: dec("0.40"), Size: dec("500")}}, time.Now(), 0)
	sell, _ := types.NewOrderBook(types.VenueKalshi, "b",
		[]types.Level{{Price: dec("0.46"), Size: dec("500")}},
		[]types.Level{{Price: dec("0.47"), Size: dec("500")}}, time.Now(), 0)

	assert.Equal(t, 0.5, liquidity(buy, sell))
}

func TestOverallConfidence_MatchesWeightedFormula(t *testing.T) {
	got := overallConfidence(0.8333, 0.5, 0.9)
	assert.InDelta(t, 0.7566, got, 0.001)
}
