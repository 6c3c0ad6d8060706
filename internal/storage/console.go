package storage

import (
	"context"
	"fmt"

	"github.com/crossvenue/arbengine/pkg/types"
	"go.uber.org/zap"
)

// ConsoleStorage implements Storage by pretty-printing to console. Used in
// STORAGE_MODE=console, the single-market debug discovery mode's default.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{logger: logger}
}

// UpsertMarket logs the market at debug level; console mode has no durable
// market table, so there is nothing further to do.
func (c *ConsoleStorage) UpsertMarket(ctx context.Context, m *types.Market) error {
	c.logger.Debug("market-upserted", zap.String("key", m.Key().String()), zap.String("question", m.Question))
	return nil
}

// UpsertMatch logs the match at debug level.
func (c *ConsoleStorage) UpsertMatch(ctx context.Context, match *types.MarketMatch) error {
	c.logger.Debug("match-upserted",
		zap.String("source", match.Source.String()),
		zap.String("target", match.Target.String()),
		zap.Float64("overall-score", match.Scores.Overall))
	return nil
}

// ConfirmedMatches always returns empty: console mode has no durable match
// table for an external reviewer to write a CONFIRMED status into, so the
// detector never has anything to evaluate in this mode.
func (c *ConsoleStorage) ConfirmedMatches(ctx context.Context) ([]*types.MarketMatch, error) {
	return nil, nil
}

// StoreOpportunity pretty-prints an arbitrage opportunity to console.
func (c *ConsoleStorage) StoreOpportunity(ctx context.Context, opp *types.ArbitrageOpportunity) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ARBITRAGE OPPORTUNITY DETECTED\n")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ID:       %s\n", opp.ID)
	fmt.Printf("Source:   %s\n", opp.SourceMarket.String())
	fmt.Printf("Target:   %s\n", opp.TargetMarket.String())
	fmt.Printf("Action:   %s\n", opp.Strategy.Action)
	fmt.Printf("Time:     %s\n", opp.DetectedAt.Format("2006-01-02 15:04:05"))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("EXECUTION PLAN (%d steps)\n", len(opp.ExecutionPlan))
	for _, step := range opp.ExecutionPlan {
		fmt.Printf("  %-10s %-6s %-4s %s @ %s size %s\n",
			step.Venue, step.Action, step.Outcome, step.Instruction, step.Price, step.Size)
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("PROFIT ANALYSIS\n")
	fmt.Printf("  Gross Spread:     %s\n", opp.Profit.GrossSpread)
	fmt.Printf("  Total Fees:       %s\n", opp.Profit.TotalFees)
	fmt.Printf("  Net Profit:       %s (ROI %s, annualized %s)\n", opp.Profit.NetProfit, opp.Profit.ROI, opp.Profit.AnnualizedROI)
	fmt.Printf("  Max Executable:   %s\n", opp.Profit.MaxExecutableSize)
	fmt.Printf("  Confidence:       %.2f (freshness %.2f, liquidity %.2f, match %.2f)\n",
		opp.Confidence.Overall, opp.Confidence.Freshness, opp.Confidence.Liquidity, opp.Confidence.MatchQuality)
	if opp.Profit.NetProfit.IsPositive() {
		fmt.Printf("  PROFITABLE after fees\n")
	} else {
		fmt.Printf("  NOT profitable after fees\n")
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
