package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// checkCmd runs the data quality gate against the silver table
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the data quality gate",
	Long: `Checks the cleaned price table for duplicate keys, missing sector
labels, negative values, and staleness. The pipeline runs the same gate
before every gold build.

Example:
  go run ./cmd/rotation check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.gate.Check(context.Background())
	if err != nil {
		return fmt.Errorf("quality gate: %w", err)
	}

	fmt.Printf("Quality gate over %d rows\n", report.Rows)
	for _, c := range report.Checks {
		status := "PASS"
		if !c.Passed {
			status = "FAIL"
		}
		fmt.Printf("  %-20s %s", c.Name, status)
		if c.Detail != "" {
			fmt.Printf("  (%s)", c.Detail)
		}
		fmt.Println()
	}

	if !report.Passed {
		return fmt.Errorf("quality gate failed")
	}
	fmt.Println("All checks passed")
	return nil
}
