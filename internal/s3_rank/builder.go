package s3_rank

import (
	"fmt"
	"time"

	"github.com/wonny/rotor/internal/contracts"
	"github.com/wonny/rotor/internal/rotationconfig"
	"github.com/wonny/rotor/internal/s2_weekly"
	"github.com/wonny/rotor/pkg/logger"
)

// Builder runs the gold build: daily bars -> weekly observations -> windowed
// metrics -> scores -> per-week dense ranks. Every run is a full recompute
// from the cleaned price table; nothing is patched incrementally.
type Builder struct {
	resampler *s2_weekly.Resampler
	metrics   *MetricsEngine
	scorer    *Scorer
	logger    *logger.Logger
}

// NewBuilder wires the core from the strategy configuration, failing fast on
// invalid parameters.
func NewBuilder(anchor time.Weekday, cfg rotationconfig.Rankings, log *logger.Logger) (*Builder, error) {
	metrics, err := NewMetricsEngine(cfg.LookbackWeeks, cfg.Stddev)
	if err != nil {
		return nil, fmt.Errorf("metrics engine: %w", err)
	}

	scorer, err := NewScorer(cfg.ScoreWeights)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}

	return &Builder{
		resampler: s2_weekly.NewResampler(anchor),
		metrics:   metrics,
		scorer:    scorer,
		logger:    log,
	}, nil
}

// Build transforms cleaned daily prices into the weekly observation table
// and the ranked weekly table. Empty input yields empty tables, not an
// error. The observations come back sorted by (symbol, week); metric rows
// per symbol are computed independently and the final table is ordered by
// (week, rank, symbol).
func (b *Builder) Build(prices []*contracts.PricePoint) ([]contracts.WeeklyObservation, []contracts.RankedWeeklyRow) {
	observations := b.resampler.Resample(prices)

	rows := make([]contracts.RankedWeeklyRow, 0, len(observations))
	for start := 0; start < len(observations); {
		end := start
		for end < len(observations) &&
			observations[end].Symbol == observations[start].Symbol &&
			observations[end].Sector == observations[start].Sector {
			end++
		}
		rows = append(rows, b.metrics.Compute(observations[start:end])...)
		start = end
	}

	b.scorer.Score(rows)
	ranked := b.scorer.Rank(rows)

	scored := 0
	for i := range ranked {
		if ranked[i].Scored() {
			scored++
		}
	}

	b.logger.WithFields(map[string]interface{}{
		"daily_rows":   len(prices),
		"weekly_rows":  len(observations),
		"ranked_rows":  len(ranked),
		"scored_rows":  scored,
	}).Info("Gold build completed")

	return observations, ranked
}

// LatestSummary extracts the latest week's top-N leaderboard from a ranked
// table. Returns nil when no week has scored rows.
func LatestSummary(rows []contracts.RankedWeeklyRow, topN int) *contracts.LatestSummary {
	var latest time.Time
	for _, row := range rows {
		if row.Scored() && row.WeekEnd.After(latest) {
			latest = row.WeekEnd
		}
	}
	if latest.IsZero() {
		return nil
	}

	summary := &contracts.LatestSummary{
		WeekEnd: latest.Format("2006-01-02"),
		TopN:    topN,
		Sectors: make([]contracts.SummaryRow, 0, topN),
	}

	for _, row := range rows {
		if !row.WeekEnd.Equal(latest) || !row.Scored() || *row.Rank > topN {
			continue
		}
		summary.Sectors = append(summary.Sectors, contracts.SummaryRow{
			Rank:       *row.Rank,
			Sector:     row.Sector,
			Symbol:     row.Symbol,
			Score:      *row.Score,
			Return:     *row.Return,
			Volatility: *row.Volatility,
			Drawdown:   *row.Drawdown,
		})
	}

	return summary
}
