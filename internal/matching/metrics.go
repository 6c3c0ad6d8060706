package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchesEvaluatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbengine_matching_pairs_evaluated_total",
		Help: "Total number of cross-venue market pairs scored by the matcher",
	})

	MatchesProposedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbengine_matching_proposed_total",
		Help: "Total number of market pairs whose overall score cleared the match threshold and were persisted for review",
	})

	MatchingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbengine_matching_run_duration_seconds",
		Help:    "Duration of one matcher pass across all active markets",
		Buckets: prometheus.DefBuckets,
	})
)
