package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/rotor/internal/scheduler"
	"github.com/wonny/rotor/internal/scheduler/jobs"
)

// schedulerCmd runs the cron scheduler with the standing jobs
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the job scheduler",
	Long: `Runs the cron scheduler in the foreground.

Jobs:
  daily_ingest     - refresh the bronze layer each trading day
  weekly_pipeline  - full pipeline run after the Friday close

Example:
  go run ./cmd/rotation scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.log)

	if err := sched.AddJob(jobs.NewIngestJob(a.collector, a.strategy, a.log)); err != nil {
		return fmt.Errorf("add ingest job: %w", err)
	}
	if err := sched.AddJob(jobs.NewPipelineJob(a.runner, a.log)); err != nil {
		return fmt.Errorf("add pipeline job: %w", err)
	}

	sched.Start()
	fmt.Println("Scheduler running; press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()
	printJobSummary(sched)
	return nil
}

// printJobSummary reports how each job fared while the scheduler was up
func printJobSummary(sched *scheduler.Scheduler) {
	for _, name := range sched.Jobs() {
		history, err := sched.History(name)
		if err != nil {
			continue
		}

		last := history.Latest()
		if last == nil {
			fmt.Printf("%-16s never ran\n", name)
			continue
		}

		status := "ok"
		if !last.Success {
			status = "failed"
		}
		fmt.Printf("%-16s runs=%d success=%.0f%% last=%s at %s\n",
			name, len(history.Results), history.SuccessRate()*100,
			status, last.EndTime.Format("2006-01-02 15:04:05"))
	}
}
