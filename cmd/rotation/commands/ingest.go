package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/rotor/internal/s0_data"
)

var ingestWorkers int

// ingestCmd captures a fresh bronze run from the price provider
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch daily prices into the bronze layer",
	Long: `Fetches the full daily history for every configured sector ETF and
stores the raw responses as one dated bronze run.

Example:
  go run ./cmd/rotation ingest
  go run ./cmd/rotation ingest --workers 8`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 4, "concurrent fetch workers")
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	runDate := time.Now().UTC()
	results, err := a.collector.Run(context.Background(), a.strategy, runDate, s0_data.Config{Workers: ingestWorkers})
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	fmt.Printf("Ingest run %s\n", runDate.Format("2006-01-02"))
	for _, r := range results {
		if r.Error != nil {
			fmt.Printf("  %-6s FAILED: %v\n", r.Symbol, r.Error)
			continue
		}
		fmt.Printf("  %-6s %d bars\n", r.Symbol, r.BarCount)
	}
	return nil
}
