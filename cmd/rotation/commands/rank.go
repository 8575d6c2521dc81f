package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/rotor/internal/s3_rank"
)

// rankCmd runs the gold build only: silver table -> rankings
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Recompute the weekly rankings from the silver table",
	Long: `Resamples the cleaned daily prices to weekly closes, computes the
windowed metrics and scores, dense-ranks each week, replaces the gold table,
and exports the latest top-N summary.

Example:
  go run ./cmd/rotation rank`,
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	prices, err := a.prices.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load daily prices: %w", err)
	}
	if len(prices) == 0 {
		return fmt.Errorf("silver table is empty; run ingest and silver first")
	}

	observations, ranked := a.gold.Build(prices)

	if err := a.rankings.Replace(ctx, ranked); err != nil {
		return fmt.Errorf("replace rankings: %w", err)
	}

	// any cached leaderboard is stale now
	if err := a.cache.DeletePrefix(ctx, "rankings:latest"); err != nil {
		a.log.WithError(err).Warn("Failed to invalidate leaderboard cache")
	}

	fmt.Printf("Gold build: %d weekly observations, %d ranked rows\n", len(observations), len(ranked))

	summary := s3_rank.LatestSummary(ranked, a.strategy.Rankings.TopN)
	if summary == nil {
		fmt.Println("No scored week yet (not enough history)")
		return nil
	}

	if err := s3_rank.WriteLatestSummary(a.cfg.LatestJSON, summary); err != nil {
		return fmt.Errorf("export latest summary: %w", err)
	}

	fmt.Printf("\nWeek %s top %d:\n", summary.WeekEnd, summary.TopN)
	for _, row := range summary.Sectors {
		fmt.Printf("  %2d. %-6s %-24s score %+.4f  ret %+.4f  vol %.4f  dd %+.4f\n",
			row.Rank, row.Symbol, row.Sector, row.Score, row.Return, row.Volatility, row.Drawdown)
	}
	fmt.Printf("\nExported %s\n", a.cfg.LatestJSON)
	return nil
}
