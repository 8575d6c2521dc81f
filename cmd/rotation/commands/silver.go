package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// silverCmd promotes the latest bronze run into the cleaned price table
var silverCmd = &cobra.Command{
	Use:   "silver",
	Short: "Clean the latest bronze run into the silver table",
	Long: `Deduplicates the most recent bronze run on (symbol, trade_date),
drops incomplete rows, and upserts the result into the cleaned daily price
table.

Example:
  go run ./cmd/rotation silver`,
	RunE: runSilver,
}

func init() {
	rootCmd.AddCommand(silverCmd)
}

func runSilver(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.silver.Build(context.Background())
	if err != nil {
		return fmt.Errorf("silver build: %w", err)
	}

	fmt.Printf("Silver build from run %s\n", result.RunDate.Format("2006-01-02"))
	fmt.Printf("  input    : %d rows\n", result.Input)
	fmt.Printf("  dropped  : %d rows\n", result.Dropped)
	fmt.Printf("  deduped  : %d rows\n", result.Deduped)
	fmt.Printf("  upserted : %d rows\n", result.Upserted)
	return nil
}
