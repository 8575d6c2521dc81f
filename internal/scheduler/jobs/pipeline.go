package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/rotor/internal/pipeline"
	"github.com/wonny/rotor/pkg/logger"
)

// PipelineJob runs the full weekly pipeline after the Friday close, so the
// new week's rankings are ready before Monday.
type PipelineJob struct {
	runner *pipeline.Runner
	logger *logger.Logger
}

// NewPipelineJob creates the weekly pipeline job
func NewPipelineJob(runner *pipeline.Runner, log *logger.Logger) *PipelineJob {
	return &PipelineJob{
		runner: runner,
		logger: log,
	}
}

// Name returns the job name
func (j *PipelineJob) Name() string {
	return "weekly_pipeline"
}

// Schedule runs Saturday 00:00 UTC, after the Friday ingest has landed
func (j *PipelineJob) Schedule() string {
	return "0 0 0 * * SAT"
}

// Run executes the pipeline
func (j *PipelineJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled pipeline run")

	result, err := j.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"steps":       len(result.Steps),
		"ranked_rows": result.RankedRows,
	}).Info("Scheduled pipeline run completed")

	return nil
}
