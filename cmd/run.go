package cmd

import (
	"fmt"

	"github.com/crossvenue/arbengine/internal/app"
	"github.com/crossvenue/arbengine/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the arbitrage engine",
	Long: `Starts arbengine, which will:
1. Ingest active markets and order books from every enabled venue
2. Match equivalent markets across venues
3. Detect and persist cross-venue arbitrage opportunities

Use --single-market to restrict ingestion to one market for debugging.`,
	RunE: runBot,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("single-market", "s", "", "Track only a single market by external ID (for debugging)")
}

func runBot(cmd *cobra.Command, args []string) error {
	// Load config
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create logger
	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Get flags
	singleMarket, _ := cmd.Flags().GetString("single-market")

	// Create app with options
	opts := &app.Options{
		SingleMarket: singleMarket,
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	// Run app
	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
