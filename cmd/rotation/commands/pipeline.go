package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// pipelineCmd runs the full pipeline end to end
var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the full pipeline: ingest, silver, quality, gold",
	Long: `Runs every pipeline step in order and aborts on the first failure.
This is the same run the scheduler triggers weekly.

Example:
  go run ./cmd/rotation pipeline`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.runner.Run(context.Background())
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	fmt.Println("Pipeline completed")
	for _, step := range result.Steps {
		fmt.Printf("  %-8s %s\n", step.Name, step.Duration.Round(time.Millisecond))
	}
	fmt.Printf("  ranked rows: %d\n", result.RankedRows)
	return nil
}
