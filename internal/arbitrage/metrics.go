package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OpportunitiesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbengine_arb_opportunities_detected_total",
		Help: "Total number of arbitrage opportunities detected",
	})

	OpportunitiesRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbengine_arb_opportunities_rejected_total",
		Help: "Total number of candidate pairs rejected, by reason",
	}, []string{"reason"})

	OpportunityNetProfitUSD = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbengine_arb_opportunity_net_profit_usd",
		Help:    "Net profit of detected arbitrage opportunities in USD",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	OpportunitySizeUSD = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbengine_arb_opportunity_size_usd",
		Help:    "Arbitrage opportunity max executable size in USD",
		Buckets: prometheus.ExponentialBuckets(10, 2, 10),
	})

	DetectionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbengine_arb_detection_duration_seconds",
		Help:    "Duration of one detector scan across all confirmed matches",
		Buckets: prometheus.DefBuckets,
	})

	ConfidenceScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbengine_arb_confidence_score",
		Help:    "Overall confidence score of detected opportunities",
		Buckets: []float64{0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
	})
)
