package storage

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"github.com/crossvenue/arbengine/pkg/types"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL. Opportunities are
// stored with their execution plan and partial-fill scenarios as JSONB,
// since those are open-ended per-strategy shapes rather than fixed columns.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{db: db, logger: cfg.Logger}, nil
}

// UpsertMarket inserts or refreshes a market row keyed by (venue, external_id).
func (p *PostgresStorage) UpsertMarket(ctx context.Context, m *types.Market) error {
	query := `
		INSERT INTO markets (
			venue, external_id, question, category, status,
			best_bid_yes, best_ask_yes, last_fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (venue, external_id) DO UPDATE SET
			question = EXCLUDED.question,
			category = EXCLUDED.category,
			status = EXCLUDED.status,
			best_bid_yes = EXCLUDED.best_bid_yes,
			best_ask_yes = EXCLUDED.best_ask_yes,
			last_fetched_at = EXCLUDED.last_fetched_at
	`
	_, err := p.db.ExecContext(ctx, query,
		m.Venue, m.ExternalID, m.Question, m.Category, m.Status,
		m.BestBidYes.String(), m.BestAskYes.String(), m.LastFetchedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert market: %w", err)
	}
	return nil
}

// UpsertMatch inserts a new cross-venue match proposal, or refreshes the
// score/reason of an existing one. Status is never taken from EXCLUDED on
// conflict: it is only ever written here for a brand-new row (always
// PENDING_REVIEW, since the matcher never proposes anything else), and the
// conflict branch keeps the row's existing status untouched so a later
// matcher pass can't demote a CONFIRMED row the review collaborator already
// set (§4.E idempotence).
func (p *PostgresStorage) UpsertMatch(ctx context.Context, match *types.MarketMatch) error {
	scores, err := json.Marshal(match.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	query := `
		INSERT INTO market_matches (
			source_venue, source_external_id, target_venue, target_external_id,
			overall_score, scores, status, match_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source_venue, source_external_id, target_venue, target_external_id)
		DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			scores = EXCLUDED.scores,
			match_reason = EXCLUDED.match_reason
	`
	_, err = p.db.ExecContext(ctx, query,
		match.Source.Venue, match.Source.ExternalID,
		match.Target.Venue, match.Target.ExternalID,
		match.Scores.Overall, scores, match.Status, match.MatchReason,
	)
	if err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}
	return nil
}

// ConfirmedMatches reads back every match row currently at CONFIRMED
// status — the only externally-writable transition in the system (§3) and
// the detector's sole input set.
func (p *PostgresStorage) ConfirmedMatches(ctx context.Context) ([]*types.MarketMatch, error) {
	query := `
		SELECT source_venue, source_external_id, target_venue, target_external_id,
			scores, status, match_reason
		FROM market_matches
		WHERE status = $1
	`
	rows, err := p.db.QueryContext(ctx, query, types.MatchConfirmed)
	if err != nil {
		return nil, fmt.Errorf("query confirmed matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*types.MarketMatch, 0)
	for rows.Next() {
		var match types.MarketMatch
		var scores []byte
		if err := rows.Scan(
			&match.Source.Venue, &match.Source.ExternalID,
			&match.Target.Venue, &match.Target.ExternalID,
			&scores, &match.Status, &match.MatchReason,
		); err != nil {
			return nil, fmt.Errorf("scan confirmed match: %w", err)
		}
		if err := json.Unmarshal(scores, &match.Scores); err != nil {
			return nil, fmt.Errorf("unmarshal scores: %w", err)
		}
		matches = append(matches, &match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate confirmed matches: %w", err)
	}

	return matches, nil
}

// StoreOpportunity stores a detected arbitrage opportunity. The execution
// plan and partial-fill scenarios are stored as JSONB since their shape
// varies with the strategy action chosen.
func (p *PostgresStorage) StoreOpportunity(ctx context.Context, opp *types.ArbitrageOpportunity) error {
	plan, err := json.Marshal(opp.ExecutionPlan)
	if err != nil {
		return fmt.Errorf("marshal execution plan: %w", err)
	}
	partialFills, err := json.Marshal(opp.PartialFills)
	if err != nil {
		return fmt.Errorf("marshal partial fills: %w", err)
	}

	query := `
		INSERT INTO arbitrage_opportunities (
			id, source_venue, source_external_id, target_venue, target_external_id,
			action, net_profit, roi, annualized_roi, max_executable_size,
			confidence_overall, execution_plan, partial_fills, status, detected_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`
	_, err = p.db.ExecContext(ctx, query,
		opp.ID,
		opp.SourceMarket.Venue, opp.SourceMarket.ExternalID,
		opp.TargetMarket.Venue, opp.TargetMarket.ExternalID,
		opp.Strategy.Action,
		opp.Profit.NetProfit.String(), opp.Profit.ROI.String(), opp.Profit.AnnualizedROI.String(),
		opp.Profit.MaxExecutableSize.String(),
		opp.Confidence.Overall,
		plan, partialFills,
		opp.Status, opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}

	p.logger.Debug("opportunity-stored",
		zap.String("opportunity-id", opp.ID),
		zap.String("action", string(opp.Strategy.Action)))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
