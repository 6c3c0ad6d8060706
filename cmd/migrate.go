package cmd

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/crossvenue/arbengine/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bootstrap the Postgres schema",
	Long: `Creates the markets, market_matches, and arbitrage_opportunities
tables arbengine writes to in STORAGE_MODE=postgres, if they don't already
exist. Safe to run repeatedly; every statement is CREATE TABLE IF NOT
EXISTS / CREATE INDEX IF NOT EXISTS.`,
	RunE: runMigrate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(migrateCmd)
}

// schemaStatements mirrors the columns internal/storage/postgres.go reads
// and writes: markets keyed by (venue, external_id), market_matches keyed
// by the ordered (source, target) pair with status defaulting to
// PENDING_REVIEW (only the external review collaborator sets CONFIRMED),
// and arbitrage_opportunities as an append-only detection log.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS markets (
		venue            TEXT NOT NULL,
		external_id      TEXT NOT NULL,
		question         TEXT NOT NULL,
		category         TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL,
		best_bid_yes     NUMERIC NOT NULL DEFAULT 0,
		best_ask_yes     NUMERIC NOT NULL DEFAULT 0,
		last_fetched_at  TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (venue, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS market_matches (
		source_venue       TEXT NOT NULL,
		source_external_id TEXT NOT NULL,
		target_venue       TEXT NOT NULL,
		target_external_id TEXT NOT NULL,
		overall_score      DOUBLE PRECISION NOT NULL,
		scores             JSONB NOT NULL,
		status             TEXT NOT NULL DEFAULT 'PENDING_REVIEW',
		match_reason       TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (source_venue, source_external_id, target_venue, target_external_id)
	)`,
	`CREATE INDEX IF NOT EXISTS market_matches_status_idx ON market_matches (status)`,
	`CREATE TABLE IF NOT EXISTS arbitrage_opportunities (
		id                  TEXT PRIMARY KEY,
		source_venue        TEXT NOT NULL,
		source_external_id  TEXT NOT NULL,
		target_venue        TEXT NOT NULL,
		target_external_id  TEXT NOT NULL,
		action              TEXT NOT NULL,
		net_profit          NUMERIC NOT NULL,
		roi                 NUMERIC NOT NULL,
		annualized_roi      NUMERIC NOT NULL,
		max_executable_size NUMERIC NOT NULL,
		confidence_overall  DOUBLE PRECISION NOT NULL,
		execution_plan      JSONB NOT NULL,
		partial_fills       JSONB NOT NULL,
		status              TEXT NOT NULL,
		detected_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS arbitrage_opportunities_detected_at_idx ON arbitrage_opportunities (detected_at)`,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPass, cfg.PostgresDB, cfg.PostgresSSL,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}

	fmt.Println("schema up to date")
	return nil
}
