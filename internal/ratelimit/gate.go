// Package ratelimit implements the per-venue concurrency gate and pacing
// limiter from §4.B: a bounded in-flight semaphore plus a token-bucket
// pacer that widens its interval on a RATE_LIMITED signal and relaxes back
// to steady state after a cool-off.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config is one venue's concurrency/pacing configuration.
type Config struct {
	MaxInFlight int           // K concurrent outstanding requests
	Pacing      time.Duration // minimum inter-request gap; 0 = no pacing
	CoolOff     time.Duration // how long a RATE_LIMITED widening lasts
}

// Gate bounds concurrent in-flight requests to one venue and paces request
// issuance, widening the pace temporarily whenever the venue signals
// RATE_LIMITED.
type Gate struct {
	cfg     Config
	sem     chan struct{}
	limiter *rate.Limiter

	mu           sync.Mutex
	steadyRate   rate.Limit
	widenedUntil time.Time
}

// New builds a Gate for one venue from its Config.
func New(cfg Config) *Gate {
	var steady rate.Limit
	if cfg.Pacing > 0 {
		steady = rate.Every(cfg.Pacing)
	} else {
		steady = rate.Inf
	}

	return &Gate{
		cfg:        cfg,
		sem:        make(chan struct{}, cfg.MaxInFlight),
		limiter:    rate.NewLimiter(steady, 1),
		steadyRate: steady,
	}
}

// Acquire blocks until both the in-flight cap and the pacing limiter admit
// a new request, or ctx is cancelled. The returned release func must be
// called exactly once when the request completes.
func (g *Gate) Acquire(ctx context.Context) (release func(), err error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return func() { <-g.sem }, nil
}

// OnRateLimited widens the pacing interval exponentially for CoolOff,
// per §4.B: "On RATE_LIMITED, the gate exponentially widens the pacing for
// that venue for a cool-off period." It schedules its own Relax call once
// that period elapses, so a caller that only ever reports RATE_LIMITED
// signals still gets the pacing back once the venue recovers.
func (g *Gate) OnRateLimited() {
	g.mu.Lock()

	current := g.limiter.Limit()
	var widened rate.Limit
	switch {
	case current == rate.Inf:
		widened = rate.Every(200 * time.Millisecond)
	default:
		widened = current / 2 // half the rate = double the interval
	}

	g.limiter.SetLimit(widened)
	g.widenedUntil = time.Now().Add(g.cfg.CoolOff)
	coolOff := g.cfg.CoolOff
	g.mu.Unlock()

	time.AfterFunc(coolOff, g.Relax)
}

// Relax restores the steady-state pacing once the cool-off window has
// elapsed. It is a no-op before the cool-off expires and safe to call more
// than once; OnRateLimited schedules it automatically, but callers may also
// invoke it periodically (e.g. once per scheduler tick).
func (g *Gate) Relax() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.widenedUntil.IsZero() || time.Now().Before(g.widenedUntil) {
		return
	}

	g.limiter.SetLimit(g.steadyRate)
	g.widenedUntil = time.Time{}
}
