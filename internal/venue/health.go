package venue

import (
	"sync"
	"time"

	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/sony/gobreaker"
)

const (
	degradedThreshold = 3
	offlineThreshold  = 10
	latencyWindow     = 100
)

// HealthTracker is the per-adapter health state from §4.A, built on top of
// a sony/gobreaker circuit breaker instead of a hand-rolled atomic flag: the
// breaker supplies the cool-off-then-half-open-probe mechanics for OFFLINE,
// while an explicit consecutive-error counter drives the DEGRADED tier the
// breaker itself has no concept of.
type HealthTracker struct {
	venue   types.Venue
	breaker *gobreaker.CircuitBreaker

	mu                sync.Mutex
	consecutiveErrors int
	latencies         []float64
	lastFetch         time.Time
	marketCount       int
}

// NewHealthTracker builds a tracker that trips OFFLINE after 10 consecutive
// failures and probes again after coolOff.
func NewHealthTracker(v types.Venue, coolOff time.Duration) *HealthTracker {
	t := &HealthTracker{venue: v}

	settings := gobreaker.Settings{
		Name:        string(v),
		MaxRequests: 1, // one probe request while half-open
		Timeout:     coolOff,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= offlineThreshold
		},
	}
	t.breaker = gobreaker.NewCircuitBreaker(settings)
	return t
}

// Call runs fn through the circuit breaker, recording latency/error
// bookkeeping. fn should return the call's latency in milliseconds and any
// error encountered; Call returns the same, plus gobreaker's own
// "circuit open" error when the breaker is refusing calls (treated by
// callers the same as a TRANSIENT failure).
func (t *HealthTracker) Call(fn func() (int64, error)) (int64, error) {
	result, err := t.breaker.Execute(func() (interface{}, error) {
		latencyMs, callErr := fn()
		t.record(latencyMs, callErr)
		return latencyMs, callErr
	})

	if result == nil {
		return 0, err
	}
	return result.(int64), err
}

func (t *HealthTracker) record(latencyMs int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		t.consecutiveErrors++
		return
	}

	t.consecutiveErrors = 0
	t.lastFetch = time.Now()
	t.latencies = append(t.latencies, float64(latencyMs))
	if len(t.latencies) > latencyWindow {
		t.latencies = t.latencies[len(t.latencies)-latencyWindow:]
	}
}

// SetMarketCount records the size of the last successful FetchActiveMarkets
// response, surfaced in the §6 status payload.
func (t *HealthTracker) SetMarketCount(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.marketCount = n
}

// Status renders the current HEALTHY/DEGRADED/OFFLINE projection.
func (t *HealthTracker) Status() types.VenueHealth {
	t.mu.Lock()
	defer t.mu.Unlock()

	status := types.HealthHealthy
	switch {
	case t.breaker.State() != gobreaker.StateClosed || t.consecutiveErrors >= offlineThreshold:
		status = types.HealthOffline
	case t.consecutiveErrors >= degradedThreshold:
		status = types.HealthDegraded
	}

	var avg float64
	if len(t.latencies) > 0 {
		sum := 0.0
		for _, l := range t.latencies {
			sum += l
		}
		avg = sum / float64(len(t.latencies))
	}

	var lastFetchMs int64
	if !t.lastFetch.IsZero() {
		lastFetchMs = t.lastFetch.UnixMilli()
	}

	return types.VenueHealth{
		Venue:             t.venue,
		Status:            status,
		ConsecutiveErrors: t.consecutiveErrors,
		AvgLatencyMs:      avg,
		LastFetch:         lastFetchMs,
		MarketCount:       t.marketCount,
	}
}

// IsOffline reports whether the orchestrator should suppress events for
// this venue right now — invariant 5 in §8.
func (t *HealthTracker) IsOffline() bool {
	return t.Status().Status == types.HealthOffline
}
