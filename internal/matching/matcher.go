// Package matching implements the §4.E cross-venue market matcher: a
// periodic scan over every pair of ACTIVE markets from distinct venues that
// scores semantic, date, category, and resolution similarity and persists a
// MarketMatch proposal, at PENDING_REVIEW, once the weighted overall clears
// the match threshold. The matcher never promotes a match to CONFIRMED
// itself — that transition belongs to the external review collaborator
// alone (§3, §4.E).
package matching

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/crossvenue/arbengine/internal/storage"
	"github.com/crossvenue/arbengine/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	defaultMatchThreshold = 0.65
	endDatePrefilterDays  = 30
)

// MarketSource supplies the current in-memory market table; satisfied by
// *ingestion.Orchestrator.
type MarketSource interface {
	Markets() []*types.Market
}

// Config configures the Matcher.
type Config struct {
	Source    MarketSource
	Storage   storage.Storage
	Logger    *zap.Logger
	Interval  time.Duration
	Threshold float64 // overall score a pair must clear to be proposed for review
}

// Matcher runs the independent matching cadence described in §4.E.
type Matcher struct {
	cfg    Config
	cancel context.CancelFunc
	done   chan struct{}

	mu           sync.RWMutex
	pendingCount int
}

// New constructs a Matcher.
func New(cfg Config) *Matcher {
	if cfg.Interval == 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = defaultMatchThreshold
	}
	return &Matcher{cfg: cfg, done: make(chan struct{})}
}

// Stats returns the current CONFIRMED-match count, read back from storage
// since only the external review collaborator can set that status, and the
// number of pairs the most recent run proposed (upserted at PENDING_REVIEW)
// for review, for the §6 status endpoint.
func (m *Matcher) Stats() (confirmed int, pendingReview int) {
	confirmedMatches, err := m.cfg.Storage.ConfirmedMatches(context.Background())
	if err != nil {
		m.cfg.Logger.Warn("confirmed-matches-lookup-failed", zap.Error(err))
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(confirmedMatches), m.pendingCount
}

// Start launches the matcher's background loop.
func (m *Matcher) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if err := m.RunOnce(runCtx); err != nil {
					m.cfg.Logger.Error("matching-run-failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop cancels the matcher's loop and waits for it to exit.
func (m *Matcher) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	<-m.done
}

// RunOnce evaluates every unordered cross-venue pair of ACTIVE markets once.
// The matcher is interruptible between pairs, per §5.
func (m *Matcher) RunOnce(ctx context.Context) error {
	timer := prometheus.NewTimer(MatchingDuration)
	defer timer.ObserveDuration()

	active := make([]*types.Market, 0)
	for _, mk := range m.cfg.Source.Markets() {
		if mk.Status == types.MarketActive {
			active = append(active, mk)
		}
	}

	pending := 0
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			a, b := active[i], active[j]
			if a.Venue == b.Venue {
				continue
			}
			if skipByEndDate(a, b) {
				continue
			}

			match := m.evaluatePair(a, b)
			MatchesEvaluatedTotal.Inc()

			if match.Scores.Overall < m.cfg.Threshold {
				continue
			}
			MatchesProposedTotal.Inc()
			pending++

			if err := m.cfg.Storage.UpsertMatch(ctx, match); err != nil {
				m.cfg.Logger.Warn("upsert-match-failed",
					zap.String("source", match.Source.String()),
					zap.String("target", match.Target.String()),
					zap.Error(err))
			}
		}
	}

	m.mu.Lock()
	m.pendingCount = pending
	m.mu.Unlock()

	return nil
}

func skipByEndDate(a, b *types.Market) bool {
	if a.EndDate == nil || b.EndDate == nil {
		return false
	}
	diff := a.EndDate.Sub(*b.EndDate)
	if diff < 0 {
		diff = -diff
	}
	return diff > endDatePrefilterDays*24*time.Hour
}

// evaluatePair scores a single market pair and builds the MarketMatch
// proposal, regardless of whether it will clear the match threshold —
// callers decide whether to persist it. The returned match always carries
// PENDING_REVIEW: the matcher proposes, it never confirms.
func (m *Matcher) evaluatePair(a, b *types.Market) *types.MarketMatch {
	tokensA, tokensB := Tokenize(a.Question), Tokenize(b.Question)

	semantic := semanticScore(tokensA, tokensB)
	date := dateScore(a.Question, b.Question)
	category := categoryScore(a.Category, b.Category)
	resolution := resolutionScore(a.ResolutionRules, b.ResolutionRules)

	overall := 0.45*semantic + 0.20*date + 0.10*category + 0.25*resolution.Score

	scores := types.MatchScores{
		Semantic:   semantic,
		Date:       date,
		Category:   category,
		Resolution: resolution.Score,
		Overall:    overall,
	}

	return &types.MarketMatch{
		Source:        a.Key(),
		Target:        b.Key(),
		Scores:        scores,
		MatchedTerms:  sharedTerms(tokensA, tokensB, 5),
		ResolutionDiff: resolution.Warning,
		MatchReason:   buildReason(scores, resolution.Warning, sharedTerms(tokensA, tokensB, 5)),
		Status:        types.MatchPendingReview,
	}
}

// sharedTerms returns up to n stemmed tokens present in both bags, sorted
// for deterministic output.
func sharedTerms(a, b []string, n int) []string {
	setB := tokenSet(b)
	seen := make(map[string]bool)
	shared := make([]string, 0, n)
	for _, t := range a {
		if !setB[t] || seen[t] {
			continue
		}
		seen[t] = true
		shared = append(shared, t)
	}
	sort.Strings(shared)
	if len(shared) > n {
		shared = shared[:n]
	}
	return shared
}

// buildReason composes the human-readable match_reason from boilerplate
// clauses keyed on the sub-score bands, per §4.E.
func buildReason(scores types.MatchScores, warning string, terms []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "semantic similarity %s", band(scores.Semantic))
	fmt.Fprintf(&b, ", date overlap %s", band(scores.Date))
	fmt.Fprintf(&b, ", category %s", band(scores.Category))
	fmt.Fprintf(&b, ", resolution rules %s", band(scores.Resolution))
	if len(terms) > 0 {
		fmt.Fprintf(&b, "; matched terms: %s", strings.Join(terms, ", "))
	}
	if warning != "" {
		fmt.Fprintf(&b, "; warning: %s", warning)
	}
	return b.String()
}

func band(score float64) string {
	switch {
	case score >= 0.8:
		return "strong"
	case score >= 0.5:
		return "moderate"
	case score >= 0.3:
		return "weak"
	default:
		return "negligible"
	}
}
