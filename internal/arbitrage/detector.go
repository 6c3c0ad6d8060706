// Package arbitrage implements the §4.F cross-venue arbitrage detector: for
// every CONFIRMED MarketMatch, pull both order books from the cache,
// evaluate both directional candidates, simulate fills, price fees and
// slippage, score confidence, and emit the better-of-two as an
// ArbitrageOpportunity.
package arbitrage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/crossvenue/arbengine/internal/storage"
	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// activeOpportunityTTL bounds how long a detected opportunity stays in the
// in-memory registry backing the §6 status endpoint's topOpportunities view.
const activeOpportunityTTL = 30 * time.Second

// opportunityBusBufferSize bounds the detector's outward notification
// channel; a slow or absent external subscriber drops the oldest queued
// notification rather than blocking detection (§4.D overflow rule applied
// to the detector's own push-bus output).
const opportunityBusBufferSize = 1000

// BookSource supplies the ingestion orchestrator's cached order books.
type BookSource interface {
	OrderBook(key types.MarketKey) (*types.OrderBook, bool)
}

// MarketLookup supplies market metadata (end date, source URL) by key.
type MarketLookup interface {
	MarketByKey(key types.MarketKey) (*types.Market, bool)
}

// Config configures the Detector.
type Config struct {
	Books   BookSource
	Markets MarketLookup
	Storage storage.Storage
	Logger  *zap.Logger

	Fees map[types.Venue]types.FeeSchedule

	ScanInterval      time.Duration
	StaleThresholdMs  int64
	MinConfidenceScore float64
	MinExecutableSize  decimal.Decimal
	DebugConsole       bool
}

// Detector runs the §4.F scan loop.
type Detector struct {
	cfg    Config
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	active map[string]*types.ArbitrageOpportunity

	pushOpportunities chan types.PushOpportunityEvent
}

// New constructs a Detector.
func New(cfg Config) *Detector {
	if cfg.ScanInterval == 0 {
		cfg.ScanInterval = time.Second
	}
	if cfg.StaleThresholdMs == 0 {
		cfg.StaleThresholdMs = 3000
	}
	if cfg.MinConfidenceScore == 0 {
		cfg.MinConfidenceScore = 0.6
	}
	if cfg.MinExecutableSize.IsZero() {
		cfg.MinExecutableSize = decimal.NewFromInt(10)
	}
	return &Detector{
		cfg:               cfg,
		done:              make(chan struct{}),
		active:            make(map[string]*types.ArbitrageOpportunity),
		pushOpportunities: make(chan types.PushOpportunityEvent, opportunityBusBufferSize),
	}
}

// Opportunities returns the channel of new-opportunity notifications the
// external push bus subscriber drains (§4.F, §6).
func (d *Detector) Opportunities() <-chan types.PushOpportunityEvent { return d.pushOpportunities }

// publishOpportunity forwards a new-opportunity notification to the push
// bus channel, dropping the oldest queued notification on overflow rather
// than blocking detection.
func (d *Detector) publishOpportunity(ev types.PushOpportunityEvent) {
	select {
	case d.pushOpportunities <- ev:
		return
	default:
	}
	select {
	case <-d.pushOpportunities:
	default:
	}
	select {
	case d.pushOpportunities <- ev:
	default:
	}
}

// ActiveOpportunities returns a snapshot of opportunities detected within
// the last activeOpportunityTTL, in no particular order, for the §6 status
// endpoint's topOpportunities view.
func (d *Detector) ActiveOpportunities() []*types.ArbitrageOpportunity {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*types.ArbitrageOpportunity, 0, len(d.active))
	for _, opp := range d.active {
		if time.Since(opp.DetectedAt) > activeOpportunityTTL {
			continue
		}
		copyOpp := *opp
		out = append(out, &copyOpp)
	}
	return out
}

// Start launches the detector's scan loop.
func (d *Detector) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.cfg.ScanInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				d.RunOnce(runCtx)
			}
		}
	}()
}

// Stop cancels the detector's loop and waits for it to exit.
func (d *Detector) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	<-d.done
}

// RunOnce evaluates every CONFIRMED match once, read back from storage —
// the only place that status can be set, since it's an external review
// collaborator's call, not the matcher's (§3). Each iteration is
// independent: new opportunities are persisted immediately, per §4.F's
// scheduler note.
func (d *Detector) RunOnce(ctx context.Context) {
	timer := prometheus.NewTimer(DetectionDurationSeconds)
	defer timer.ObserveDuration()

	d.pruneExpired()

	matches, err := d.cfg.Storage.ConfirmedMatches(ctx)
	if err != nil {
		d.cfg.Logger.Warn("confirmed-matches-lookup-failed", zap.Error(err))
		return
	}

	for _, match := range matches {
		if match.Status != types.MatchConfirmed {
			continue
		}

		opp := d.evaluateMatch(match)
		if opp == nil {
			continue
		}

		if err := d.cfg.Storage.StoreOpportunity(ctx, opp); err != nil {
			d.cfg.Logger.Warn("store-opportunity-failed", zap.String("id", opp.ID), zap.Error(err))
		}

		d.mu.Lock()
		d.active[opp.ID] = opp
		d.mu.Unlock()

		d.publishOpportunity(types.PushOpportunityEvent{
			ID:           opp.ID,
			MatchID:      matchID(match),
			ROI:          opp.Profit.ROI,
			NetProfit:    opp.Profit.NetProfit,
			Confidence:   opp.Confidence.Overall,
			SourceMarket: opp.SourceMarket,
			TargetMarket: opp.TargetMarket,
		})

		OpportunitiesDetectedTotal.Inc()
		OpportunityNetProfitUSD.Observe(netProfitFloat(opp))
		OpportunitySizeUSD.Observe(maxSizeFloat(opp))
		ConfidenceScore.Observe(opp.Confidence.Overall)

		if d.cfg.DebugConsole {
			printArbitrageAnalysis(opp)
		}
	}
}

// matchID derives the push-bus matchId from a match's natural key, since
// MarketMatch has no surrogate ID of its own (§9).
func matchID(match *types.MarketMatch) string {
	return match.Source.String() + "->" + match.Target.String()
}

func (d *Detector) pruneExpired() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, opp := range d.active {
		if time.Since(opp.DetectedAt) > activeOpportunityTTL {
			delete(d.active, id)
		}
	}
}

func netProfitFloat(opp *types.ArbitrageOpportunity) float64 {
	f, _ := opp.Profit.NetProfit.Float64()
	return f
}

func maxSizeFloat(opp *types.ArbitrageOpportunity) float64 {
	f, _ := opp.Profit.MaxExecutableSize.Float64()
	return f
}

// evaluateMatch pulls both books, evaluates both directional candidates,
// and returns the better one as an ArbitrageOpportunity, or nil if neither
// clears the gates.
func (d *Detector) evaluateMatch(match *types.MarketMatch) *types.ArbitrageOpportunity {
	sourceBook, ok := d.cfg.Books.OrderBook(match.Source)
	if !ok {
		return nil
	}
	targetBook, ok := d.cfg.Books.OrderBook(match.Target)
	if !ok {
		return nil
	}

	now := time.Now()
	sourceAgeMs := sourceBook.AgeMillis(now)
	targetAgeMs := targetBook.AgeMillis(now)
	if sourceAgeMs >= d.cfg.StaleThresholdMs || targetAgeMs >= d.cfg.StaleThresholdMs {
		return nil
	}

	sourceMarket, _ := d.cfg.Markets.MarketByKey(match.Source)
	targetMarket, _ := d.cfg.Markets.MarketByKey(match.Target)

	candidates := make([]*candidate, 0, 2)
	if c := d.evaluateDirection(match, sourceBook, targetBook, sourceAgeMs, targetAgeMs, types.BuyYesSellYes); c != nil {
		candidates = append(candidates, c)
	}
	if c := d.evaluateDirection(match, targetBook, sourceBook, targetAgeMs, sourceAgeMs, types.BuyYesSellYes); c != nil {
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.netProfit.GreaterThan(best.netProfit) {
			best = c
		}
	}

	return d.buildOpportunity(match, best, sourceMarket, targetMarket, sourceAgeMs, targetAgeMs)
}

// evaluateDirection implements §4.F steps 1-7 for one directional candidate
// (buyBook's ask is bought, sellBook's bid is sold). Returns nil if the
// candidate fails any gate.
func (d *Detector) evaluateDirection(match *types.MarketMatch, buyBook, sellBook *types.OrderBook, buyAgeMs, sellAgeMs int64, action types.StrategyAction) *candidate {
	ask, hasAsk := buyBook.BestAsk()
	bid, hasBid := sellBook.BestBid()
	if !hasAsk || !hasBid {
		return nil
	}

	grossSpread := bid.Price.Sub(ask.Price)
	if !grossSpread.IsPositive() {
		OpportunitiesRejectedTotal.WithLabelValues("no_spread").Inc()
		return nil
	}

	buyFeeRate := d.cfg.Fees[buyBook.Venue].TakerFee
	sellFeeRate := d.cfg.Fees[sellBook.Venue].TakerFee
	buyFee := ask.Price.Mul(buyFeeRate)
	sellFee := bid.Price.Mul(sellFeeRate)

	netSpreadPerShare := grossSpread.Sub(buyFee).Sub(sellFee)
	if !netSpreadPerShare.IsPositive() {
		OpportunitiesRejectedTotal.WithLabelValues("fees_exceed_spread").Inc()
		return nil
	}

	buyFill := simulateFill(buyBook.Asks)
	sellFill := simulateFill(sellBook.Bids)

	maxExecutableSize := decimal.Min(buyFill.TotalSize, sellFill.TotalSize, decimal.NewFromInt(10000))
	if maxExecutableSize.LessThan(d.cfg.MinExecutableSize) {
		OpportunitiesRejectedTotal.WithLabelValues("below_min_executable_size").Inc()
		return nil
	}

	combinedSlippage := buyFill.Slippage.Add(sellFill.Slippage).Div(decimal.NewFromInt(2))

	netProfit := netSpreadPerShare.Sub(combinedSlippage).Mul(maxExecutableSize)
	if !netProfit.IsPositive() {
		OpportunitiesRejectedTotal.WithLabelValues("negative_net_profit").Inc()
		return nil
	}

	roiDenominator := ask.Price.Mul(maxExecutableSize).Mul(decimal.NewFromInt(1).Add(buyFeeRate))
	roi := decimal.Zero
	if roiDenominator.IsPositive() {
		roi = netProfit.Div(roiDenominator)
	}

	freshnessScore := freshness(buyAgeMs, sellAgeMs, d.cfg.StaleThresholdMs)
	liquidityScore := liquidity(buyBook, sellBook)
	matchQuality := match.Scores.Overall
	overall := overallConfidence(freshnessScore, liquidityScore, matchQuality)
	if overall < d.cfg.MinConfidenceScore {
		OpportunitiesRejectedTotal.WithLabelValues("below_min_confidence").Inc()
		return nil
	}

	return &candidate{
		action:            action,
		buyVenue:          buyBook.Venue,
		buyAsk:            ask.Price,
		buyFee:            buyFee,
		buyAgeMs:          buyAgeMs,
		sellVenue:         sellBook.Venue,
		sellBid:           bid.Price,
		sellFee:           sellFee,
		sellAgeMs:         sellAgeMs,
		grossSpread:       grossSpread,
		netSpreadPerShare: netSpreadPerShare,
		maxExecutableSize: maxExecutableSize,
		combinedSlippage:  combinedSlippage,
		netProfit:         netProfit,
		roi:               roi,
		confidence: types.Confidence{
			Overall:      overall,
			Freshness:    freshnessScore,
			Liquidity:    liquidityScore,
			MatchQuality: matchQuality,
			DataAgeMs:    max64(buyAgeMs, sellAgeMs),
		},
	}
}

func (d *Detector) buildOpportunity(match *types.MarketMatch, best *candidate, sourceMarket, targetMarket *types.Market, sourceAgeMs, targetAgeMs int64) *types.ArbitrageOpportunity {
	expiryDays := daysToExpiry(sourceMarket, targetMarket)
	best.annualizedROI = best.roi.Mul(decimal.NewFromInt(365)).Div(decimal.NewFromInt(int64(expiryDays)))

	best.buyURL = venueURL(best.buyVenue, sourceMarket, targetMarket)
	best.sellURL = venueURL(best.sellVenue, sourceMarket, targetMarket)

	plan := buildExecutionPlan(*best)
	partials := buildPartialFills(best.maxExecutableSize, best.netProfit)

	totalFees := best.buyFee.Add(best.sellFee).Mul(best.maxExecutableSize)

	return &types.ArbitrageOpportunity{
		ID:           newOpportunityID(),
		SourceMarket: match.Source,
		TargetMarket: match.Target,
		Strategy: types.Strategy{
			Action:    best.action,
			BuyVenue:  best.buyVenue,
			BuyPrice:  best.buyAsk,
			BuySize:   best.maxExecutableSize,
			SellVenue: best.sellVenue,
			SellPrice: best.sellBid,
			SellSize:  best.maxExecutableSize,
		},
		Profit: types.ProfitAnalysis{
			GrossSpread:       best.grossSpread,
			TotalFees:         totalFees,
			EstimatedSlippage: best.combinedSlippage,
			NetProfit:         best.netProfit,
			ROI:               best.roi,
			AnnualizedROI:     best.annualizedROI,
			MaxExecutableSize: best.maxExecutableSize,
		},
		Confidence:      best.confidence,
		ExecutionPlan:   plan,
		PartialFills:    partials,
		Status:          types.OpportunityActive,
		DetectedAt:      time.Now(),
		SourceDataAgeMs: sourceAgeMs,
		TargetDataAgeMs: targetAgeMs,
	}
}

// daysToExpiry uses either market's end date, per §9 open question (a).
// When neither market carries one, a one-year horizon is assumed so the
// annualized figure degrades to the plain ROI rather than exploding.
func daysToExpiry(a, b *types.Market) int {
	var end *time.Time
	if a != nil && a.EndDate != nil {
		end = a.EndDate
	} else if b != nil && b.EndDate != nil {
		end = b.EndDate
	}
	if end == nil {
		return 365
	}

	days := int(time.Until(*end).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

func venueURL(venue types.Venue, markets ...*types.Market) string {
	for _, m := range markets {
		if m != nil && m.Venue == venue {
			return m.SourceURL
		}
	}
	return ""
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// printArbitrageAnalysis is the debug-console diagnostic enabled under
// LOG_LEVEL=debug, adapted from the original box-drawing format.
func printArbitrageAnalysis(opp *types.ArbitrageOpportunity) {
	fmt.Println("\n┌────────────────────────────────────────────────────────────────────────────┐")
	fmt.Printf("│ ARBITRAGE OPPORTUNITY: %s\n", opp.ID)
	fmt.Println("└────────────────────────────────────────────────────────────────────────────┘")
	fmt.Printf("  %s -> %s\n", opp.SourceMarket.String(), opp.TargetMarket.String())
	fmt.Printf("  Strategy: %s\n", opp.Strategy.Action)
	fmt.Printf("  Gross Spread:  %s\n", opp.Profit.GrossSpread)
	fmt.Printf("  Net Profit:    %s (ROI %s, annualized %s)\n", opp.Profit.NetProfit, opp.Profit.ROI, opp.Profit.AnnualizedROI)
	fmt.Printf("  Confidence:    %.2f (freshness %.2f, liquidity %.2f, match %.2f)\n",
		opp.Confidence.Overall, opp.Confidence.Freshness, opp.Confidence.Liquidity, opp.Confidence.MatchQuality)
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")
}
