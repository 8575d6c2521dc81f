package rotationconfig

import (
	"fmt"
	"sort"
	"time"
)

// Config is the declarative strategy file for the sector rotation pipeline.
// It is loaded once at startup and passed by value into each component;
// nothing reads it through a global.
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Ingestion Ingestion `yaml:"ingestion" json:"ingestion"`
	Weekly    Weekly    `yaml:"weekly" json:"weekly"`
	Rankings  Rankings  `yaml:"rankings" json:"rankings"`
	Quality   Quality   `yaml:"quality" json:"quality"`
}

// Meta identifies the strategy for audit logging
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Ingestion configures the bronze capture
type Ingestion struct {
	// Symbols maps ETF symbol to sector name, e.g. XLK -> Information Technology
	Symbols   map[string]string `yaml:"symbols" json:"symbols"`
	StartDate string            `yaml:"start_date" json:"start_date"` // YYYY-MM-DD
	Interval  string            `yaml:"interval" json:"interval"`     // 1d
}

// Weekly configures the daily-to-weekly resampling rule
type Weekly struct {
	// Anchor is the weekday that closes each weekly bucket (default FRI,
	// the pandas W-FRI convention the original pipeline used).
	Anchor string `yaml:"anchor" json:"anchor"` // MON..SUN
}

// Rankings configures the gold build
type Rankings struct {
	LookbackWeeks int     `yaml:"lookback_weeks" json:"lookback_weeks"`
	Stddev        string  `yaml:"stddev" json:"stddev"` // sample | population
	ScoreWeights  Weights `yaml:"score_weights" json:"score_weights"`
	TopN          int     `yaml:"top_n" json:"top_n"`
}

// Weights are applied verbatim to the three windowed metrics; no
// normalization is performed and the sum need not equal 1.
type Weights struct {
	Return     float64 `yaml:"return" json:"return"`
	Volatility float64 `yaml:"volatility" json:"volatility"`
	Drawdown   float64 `yaml:"drawdown" json:"drawdown"`
}

// Quality configures the post-silver data checks
type Quality struct {
	FreshnessDays      int      `yaml:"freshness_days" json:"freshness_days"`
	NonNegativeColumns []string `yaml:"non_negative_columns" json:"non_negative_columns"`
}

// Stddev modes
const (
	StddevSample     = "sample"
	StddevPopulation = "population"
)

var weekdays = map[string]time.Weekday{
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
	"SUN": time.Sunday,
}

// AnchorWeekday returns the configured weekly boundary as a time.Weekday
func (w Weekly) AnchorWeekday() (time.Weekday, error) {
	wd, ok := weekdays[w.Anchor]
	if !ok {
		return 0, fmt.Errorf("unknown week anchor %q (valid: MON..SUN)", w.Anchor)
	}
	return wd, nil
}

// StartTime parses the ingestion start date
func (i Ingestion) StartTime() (time.Time, error) {
	return time.Parse("2006-01-02", i.StartDate)
}

// SymbolList returns the configured symbols in sorted order
func (i Ingestion) SymbolList() []string {
	symbols := make([]string, 0, len(i.Symbols))
	for s := range i.Symbols {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
