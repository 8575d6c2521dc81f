package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/rotor/internal/rotationconfig"
	"github.com/wonny/rotor/internal/s0_data"
	"github.com/wonny/rotor/pkg/logger"
)

// IngestJob refreshes the bronze layer every trading day so the weekly
// pipeline never starts from stale captures.
type IngestJob struct {
	collector *s0_data.Collector
	strategy  *rotationconfig.Config
	logger    *logger.Logger
}

// NewIngestJob creates the daily ingestion job
func NewIngestJob(collector *s0_data.Collector, strategy *rotationconfig.Config, log *logger.Logger) *IngestJob {
	return &IngestJob{
		collector: collector,
		strategy:  strategy,
		logger:    log,
	}
}

// Name returns the job name
func (j *IngestJob) Name() string {
	return "daily_ingest"
}

// Schedule runs after the US close, 22:30 UTC Monday through Friday
func (j *IngestJob) Schedule() string {
	return "0 30 22 * * MON-FRI"
}

// Run executes the ingestion
func (j *IngestJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled ingestion")

	if _, err := j.collector.Run(ctx, j.strategy, time.Now().UTC(), s0_data.Config{Workers: 4}); err != nil {
		return fmt.Errorf("collect prices: %w", err)
	}
	return nil
}
