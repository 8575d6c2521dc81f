package rotationconfig

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
meta:
  strategy_id: sector_rotation_weekly
  version: "1"
ingestion:
  symbols:
    XLK: Information Technology
    XLE: Energy
    XLF: Financials
  start_date: "2018-01-01"
  interval: 1d
weekly:
  anchor: FRI
rankings:
  lookback_weeks: 12
  stddev: sample
  score_weights:
    return: 1.0
    volatility: -0.5
    drawdown: 0.5
  top_n: 5
quality:
  freshness_days: 7
  non_negative_columns: [open, high, low, close, adj_close, volume]
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "sector_rotation_weekly", cfg.Meta.StrategyID)
	assert.Equal(t, 12, cfg.Rankings.LookbackWeeks)
	assert.Equal(t, 1.0, cfg.Rankings.ScoreWeights.Return)
	assert.Equal(t, -0.5, cfg.Rankings.ScoreWeights.Volatility)
	assert.Len(t, cfg.Ingestion.Symbols, 3)
	assert.Equal(t, "Energy", cfg.Ingestion.Symbols["XLE"])

	anchor, err := cfg.Weekly.AnchorWeekday()
	require.NoError(t, err)
	assert.Equal(t, time.Friday, anchor)

	start, err := cfg.Ingestion.StartTime()
	require.NoError(t, err)
	assert.Equal(t, 2018, start.Year())
}

func TestParse_UnknownField(t *testing.T) {
	// KnownFields(true): a typo fails the load instead of silently defaulting
	_, err := Parse([]byte(validYAML + "\nlookback_weeks: 4\n"))
	assert.Error(t, err)
}

func TestHash_Deterministic(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	hash1, err := Hash(cfg)
	require.NoError(t, err)
	hash2, err := Hash(cfg)
	require.NoError(t, err)

	assert.Len(t, hash1, 64)
	assert.Equal(t, hash1, hash2)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Parse([]byte(validYAML))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "lookback below one",
			mutate:  func(c *Config) { c.Rankings.LookbackWeeks = 0 },
			wantErr: "rankings.lookback_weeks",
		},
		{
			name:    "nan weight",
			mutate:  func(c *Config) { c.Rankings.ScoreWeights.Drawdown = math.NaN() },
			wantErr: "rankings.score_weights.drawdown",
		},
		{
			name:    "unknown stddev mode",
			mutate:  func(c *Config) { c.Rankings.Stddev = "robust" },
			wantErr: "rankings.stddev",
		},
		{
			name:    "unknown anchor",
			mutate:  func(c *Config) { c.Weekly.Anchor = "FRIDAY" },
			wantErr: "weekly.anchor",
		},
		{
			name:    "no symbols",
			mutate:  func(c *Config) { c.Ingestion.Symbols = nil },
			wantErr: "ingestion.symbols",
		},
		{
			name:    "top_n below one",
			mutate:  func(c *Config) { c.Rankings.TopN = 0 },
			wantErr: "rankings.top_n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
