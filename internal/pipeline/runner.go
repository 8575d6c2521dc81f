package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/rotor/internal/contracts"
	"github.com/wonny/rotor/internal/rotationconfig"
	"github.com/wonny/rotor/internal/s0_data"
	"github.com/wonny/rotor/internal/s1_silver"
	"github.com/wonny/rotor/internal/s1_silver/quality"
	"github.com/wonny/rotor/internal/s3_rank"
	"github.com/wonny/rotor/pkg/logger"
)

// RankingsCache is the slice of the response cache the pipeline needs:
// dropping stale leaderboard entries once the rankings table is rebuilt.
// *redis.Cache satisfies it.
type RankingsCache interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

// latestCachePrefix covers the `rankings:latest:<topN>` keys the API caches.
const latestCachePrefix = "rankings:latest"

// Runner executes the full weekly pipeline: ingest -> silver -> quality ->
// gold -> export. Steps run in order and the first failure aborts the run;
// a failed quality gate must never produce new rankings.
type Runner struct {
	strategy  *rotationconfig.Config
	collector *s0_data.Collector
	silver    *s1_silver.Builder
	gate      *quality.Gate
	prices    contracts.PriceRepository
	gold      *s3_rank.Builder
	rankings  contracts.RankingRepository
	cache     RankingsCache
	exportTo  string
	logger    *logger.Logger
}

// NewRunner wires the pipeline steps together. The cache may be nil when no
// API cache is in play.
func NewRunner(
	strategy *rotationconfig.Config,
	collector *s0_data.Collector,
	silver *s1_silver.Builder,
	gate *quality.Gate,
	prices contracts.PriceRepository,
	gold *s3_rank.Builder,
	rankings contracts.RankingRepository,
	cache RankingsCache,
	exportTo string,
	log *logger.Logger,
) *Runner {
	return &Runner{
		strategy:  strategy,
		collector: collector,
		silver:    silver,
		gate:      gate,
		prices:    prices,
		gold:      gold,
		rankings:  rankings,
		cache:     cache,
		exportTo:  exportTo,
		logger:    log.WithField("module", "pipeline"),
	}
}

// StepResult records one completed pipeline step
type StepResult struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Result summarizes one pipeline run
type Result struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Steps      []StepResult `json:"steps"`
	RankedRows int          `json:"ranked_rows"`
}

// Run executes every step. The ingestion run date is the current day; the
// gold build always recomputes the full history.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{StartedAt: time.Now().UTC()}

	hash, err := rotationconfig.Hash(r.strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"strategy":    r.strategy.Meta.StrategyID,
		"version":     r.strategy.Meta.Version,
		"config_hash": hash,
	}).Info("Pipeline started")

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"ingest", r.stepIngest},
		{"silver", r.stepSilver},
		{"quality", r.stepQuality},
		{"gold", func(ctx context.Context) error { return r.stepGold(ctx, result) }},
	}

	for _, step := range steps {
		start := time.Now()
		if err := step.run(ctx); err != nil {
			r.logger.WithError(err).WithField("step", step.name).Error("Pipeline step failed")
			return nil, fmt.Errorf("step %s: %w", step.name, err)
		}

		duration := time.Since(start)
		result.Steps = append(result.Steps, StepResult{Name: step.name, Duration: duration})
		r.logger.WithFields(map[string]interface{}{
			"step":     step.name,
			"duration": duration,
		}).Info("Pipeline step completed")
	}

	result.FinishedAt = time.Now().UTC()
	r.logger.WithFields(map[string]interface{}{
		"duration":    result.FinishedAt.Sub(result.StartedAt),
		"ranked_rows": result.RankedRows,
	}).Info("Pipeline completed")

	return result, nil
}

func (r *Runner) stepIngest(ctx context.Context) error {
	_, err := r.collector.Run(ctx, r.strategy, time.Now().UTC(), s0_data.Config{Workers: 4})
	return err
}

func (r *Runner) stepSilver(ctx context.Context) error {
	_, err := r.silver.Build(ctx)
	return err
}

func (r *Runner) stepQuality(ctx context.Context) error {
	report, err := r.gate.Check(ctx)
	if err != nil {
		return err
	}
	if !report.Passed {
		failed := make([]string, 0, len(report.Checks))
		for _, check := range report.Checks {
			if !check.Passed {
				failed = append(failed, check.Name)
			}
		}
		return fmt.Errorf("quality gate failed: %s", strings.Join(failed, ", "))
	}
	return nil
}

func (r *Runner) stepGold(ctx context.Context, result *Result) error {
	prices, err := r.prices.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load daily prices: %w", err)
	}

	_, ranked := r.gold.Build(prices)
	result.RankedRows = len(ranked)

	if err := r.rankings.Replace(ctx, ranked); err != nil {
		return fmt.Errorf("replace rankings: %w", err)
	}

	// the table just changed under the API; cached leaderboards are stale now
	if r.cache != nil {
		if err := r.cache.DeletePrefix(ctx, latestCachePrefix); err != nil {
			r.logger.WithError(err).Warn("Failed to invalidate leaderboard cache")
		}
	}

	summary := s3_rank.LatestSummary(ranked, r.strategy.Rankings.TopN)
	if summary == nil {
		r.logger.Warn("No scored week yet, skipping latest summary export")
		return nil
	}
	if err := s3_rank.WriteLatestSummary(r.exportTo, summary); err != nil {
		return fmt.Errorf("export latest summary: %w", err)
	}
	return nil
}
