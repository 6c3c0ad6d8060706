package types

// MatchStatus is the lifecycle state of a MarketMatch.
type MatchStatus string

const (
	MatchPendingReview MatchStatus = "PENDING_REVIEW"
	MatchConfirmed     MatchStatus = "CONFIRMED"
	MatchRejected      MatchStatus = "REJECTED"
	MatchStale         MatchStatus = "STALE"
)

// MatchScores holds the four sub-scores the matcher computes plus their
// weighted combination, each on [0,1].
type MatchScores struct {
	Semantic   float64
	Date       float64
	Category   float64
	Resolution float64
	Overall    float64
}

// MarketMatch is a directional, asserted cross-venue equivalence between
// two markets. Entities reference the underlying markets by natural key,
// never by pointer, per §9.
type MarketMatch struct {
	Source MarketKey
	Target MarketKey

	Scores        MatchScores
	MatchedTerms  []string
	ResolutionDiff string // empty when not applicable
	MatchReason   string
	Status        MatchStatus
}

// Key returns the natural key a MarketMatch is addressed by: the ordered
// pair of its source and target market keys.
func (m *MarketMatch) Key() (MarketKey, MarketKey) {
	return m.Source, m.Target
}
