package commands

import (
	"github.com/spf13/cobra"
)

var strategyFile string

// rootCmd is the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rotation",
	Short: "Weekly sector rotation ranking pipeline",
	Long: `rotation builds a weekly leaderboard of sector index ETFs.

Daily prices are ingested from Yahoo Finance, cleaned into a deduplicated
price table, resampled to weekly closes, and scored on windowed return,
volatility, and max drawdown. Each week the sectors are dense-ranked on the
weighted score.

Usage:
  go run ./cmd/rotation [command]

Examples:
  go run ./cmd/rotation pipeline
  go run ./cmd/rotation rank
  go run ./cmd/rotation api
  go run ./cmd/rotation scheduler`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML file (default from STRATEGY_FILE)")
}
