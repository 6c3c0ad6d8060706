package storage

import (
	"context"

	"github.com/crossvenue/arbengine/pkg/types"
)

// Storage persists the durable records the system produces: markets (for
// the HTTP status surface and restart recovery), cross-venue match
// proposals, and detected arbitrage opportunities. It is also the only
// place a match's CONFIRMED status can be observed from: that status is
// set externally (by the human review collaborator writing directly to the
// store), never by the matcher, so ConfirmedMatches is the detector's sole
// input set (§3, §4.E).
type Storage interface {
	UpsertMarket(ctx context.Context, m *types.Market) error
	UpsertMatch(ctx context.Context, match *types.MarketMatch) error
	ConfirmedMatches(ctx context.Context) ([]*types.MarketMatch, error)
	StoreOpportunity(ctx context.Context, opp *types.ArbitrageOpportunity) error

	// Close closes the storage connection.
	Close() error
}
