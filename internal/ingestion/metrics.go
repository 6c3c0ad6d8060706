package ingestion

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MarketsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbengine_ingestion_markets_total",
		Help: "Total number of markets ingested across full syncs",
	}, []string{"venue"})

	FullSyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbengine_ingestion_full_sync_duration_seconds",
		Help:    "Duration of a full market sync across all venues",
		Buckets: prometheus.DefBuckets,
	})

	PollErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbengine_ingestion_poll_errors_total",
		Help: "Total number of errors encountered while polling a venue",
	}, []string{"venue"})
)
