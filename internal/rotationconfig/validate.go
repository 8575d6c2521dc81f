package rotationconfig

import (
	"fmt"
	"math"
	"time"
)

// ValidationError aborts the run before any computation starts; a partially
// configured scoring run is worse than no run.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Ingestion ===
	if len(cfg.Ingestion.Symbols) == 0 {
		return ValidationError{"ingestion.symbols", "at least one symbol required"}
	}
	for symbol, sector := range cfg.Ingestion.Symbols {
		if symbol == "" || sector == "" {
			return ValidationError{"ingestion.symbols", "symbol and sector must be non-empty"}
		}
	}
	if _, err := time.Parse("2006-01-02", cfg.Ingestion.StartDate); err != nil {
		return ValidationError{"ingestion.start_date", "must be YYYY-MM-DD"}
	}
	if cfg.Ingestion.Interval != "1d" {
		return ValidationError{"ingestion.interval", "only 1d is supported"}
	}

	// === Weekly ===
	if _, err := cfg.Weekly.AnchorWeekday(); err != nil {
		return ValidationError{"weekly.anchor", err.Error()}
	}

	// === Rankings ===
	if cfg.Rankings.LookbackWeeks < 1 {
		return ValidationError{"rankings.lookback_weeks", "must be >= 1"}
	}
	if cfg.Rankings.Stddev != StddevSample && cfg.Rankings.Stddev != StddevPopulation {
		return ValidationError{"rankings.stddev", "must be sample or population"}
	}
	if err := validateWeight(cfg.Rankings.ScoreWeights.Return, "rankings.score_weights.return"); err != nil {
		return err
	}
	if err := validateWeight(cfg.Rankings.ScoreWeights.Volatility, "rankings.score_weights.volatility"); err != nil {
		return err
	}
	if err := validateWeight(cfg.Rankings.ScoreWeights.Drawdown, "rankings.score_weights.drawdown"); err != nil {
		return err
	}
	if cfg.Rankings.TopN < 1 {
		return ValidationError{"rankings.top_n", "must be >= 1"}
	}

	// === Quality ===
	if cfg.Quality.FreshnessDays < 1 {
		return ValidationError{"quality.freshness_days", "must be >= 1"}
	}

	return nil
}

// validateWeight rejects non-finite weights. The weights are otherwise taken
// verbatim: sign and magnitude are the operator's call.
func validateWeight(w float64, field string) error {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return ValidationError{field, "must be a finite number"}
	}
	return nil
}
