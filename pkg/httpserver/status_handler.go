package httpserver

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/crossvenue/arbengine/pkg/healthprobe"
	"github.com/crossvenue/arbengine/pkg/types"
)

const topOpportunitiesLimit = 10

// statusHandler serves the aggregate §6 status view: per-venue health,
// ingestion counters, matcher confirmed/pending counts, and the currently
// active arbitrage opportunities ranked by net profit.
type statusHandler struct {
	healthChecker *healthprobe.HealthChecker
	ingestion     IngestionSource
	matching      MatchingSource
	arbitrage     ArbitrageSource
}

type platformStatus struct {
	Status            types.HealthStatus `json:"status"`
	MarketCount       int                `json:"marketCount"`
	LastFetch         int64              `json:"lastFetch"`
	AvgLatencyMs      float64            `json:"avgLatencyMs"`
	ConsecutiveErrors int                `json:"consecutiveErrors"`
}

type ingestionStatus struct {
	MarketsIngested   int64 `json:"marketsIngested"`
	OrderbooksUpdated int64 `json:"orderbooksUpdated"`
	QuotesUpdated     int64 `json:"quotesUpdated"`
	ErrorsCount       int64 `json:"errorsCount"`
	LastFullSyncAt    int64 `json:"lastFullSyncAt"`
}

type matchingStatus struct {
	ConfirmedMatches int `json:"confirmedMatches"`
	PendingReview    int `json:"pendingReview"`
}

type topOpportunity struct {
	ID         string  `json:"id"`
	Spread     string  `json:"spread"`
	Confidence float64 `json:"confidence"`
	MaxSize    string  `json:"maxSize"`
	AgeSeconds float64 `json:"ageSeconds"`
}

type arbitrageStatus struct {
	ActiveCount     int              `json:"activeCount"`
	TopOpportunities []topOpportunity `json:"topOpportunities"`
}

type systemStatus struct {
	Uptime    string `json:"uptime"`
	MemoryMB  uint64 `json:"memoryMB"`
	Timestamp int64  `json:"timestamp"`
}

type statusResponse struct {
	Platforms map[types.Venue]platformStatus `json:"platforms"`
	Ingestion ingestionStatus                `json:"ingestion"`
	Matching  matchingStatus                 `json:"matching"`
	Arbitrage arbitrageStatus                `json:"arbitrage"`
	System    systemStatus                   `json:"system"`
}

func (h *statusHandler) handle(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	platforms := make(map[types.Venue]platformStatus)
	for v, health := range h.ingestion.Health() {
		platforms[v] = platformStatus{
			Status:            health.Status,
			MarketCount:       health.MarketCount,
			LastFetch:         health.LastFetch,
			AvgLatencyMs:      health.AvgLatencyMs,
			ConsecutiveErrors: health.ConsecutiveErrors,
		}
	}

	stats := h.ingestion.Stats()
	confirmed, pendingReview := h.matching.Stats()

	opps := h.arbitrage.ActiveOpportunities()
	activeCount := len(opps)
	sort.Slice(opps, func(i, j int) bool {
		return opps[i].Profit.NetProfit.GreaterThan(opps[j].Profit.NetProfit)
	})
	if len(opps) > topOpportunitiesLimit {
		opps = opps[:topOpportunitiesLimit]
	}

	top := make([]topOpportunity, 0, len(opps))
	for _, opp := range opps {
		top = append(top, topOpportunity{
			ID:         opp.ID,
			Spread:     opp.Profit.GrossSpread.String(),
			Confidence: opp.Confidence.Overall,
			MaxSize:    opp.Profit.MaxExecutableSize.String(),
			AgeSeconds: now.Sub(opp.DetectedAt).Seconds(),
		})
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := statusResponse{
		Platforms: platforms,
		Ingestion: ingestionStatus{
			MarketsIngested:   stats.MarketsIngested,
			OrderbooksUpdated: stats.OrderbooksUpdated,
			QuotesUpdated:     stats.QuotesUpdated,
			ErrorsCount:       stats.ErrorsCount,
			LastFullSyncAt:    stats.LastFullSyncAt,
		},
		Matching: matchingStatus{
			ConfirmedMatches: confirmed,
			PendingReview:    pendingReview,
		},
		Arbitrage: arbitrageStatus{
			ActiveCount:      activeCount,
			TopOpportunities: top,
		},
		System: systemStatus{
			Uptime:    h.healthChecker.Uptime().String(),
			MemoryMB:  mem.Alloc / (1024 * 1024),
			Timestamp: now.UnixMilli(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
