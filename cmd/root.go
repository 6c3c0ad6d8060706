package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "arbengine",
	Short: "Cross-venue prediction-market arbitrage detector",
	Long: `arbengine ingests active markets and order books from multiple
prediction-market venues, matches equivalent markets across venues, and
detects cross-venue arbitrage opportunities.

It never places trades: detection and matching only, surfaced through a
status endpoint and persisted opportunity records for a downstream
execution or review system to act on.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
