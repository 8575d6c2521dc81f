package s3_rank

import (
	"fmt"
	"math"

	"github.com/wonny/rotor/internal/contracts"
	"github.com/wonny/rotor/internal/rotationconfig"
)

// MetricsEngine computes the three windowed statistics per symbol per week:
// lookback return, volatility of weekly returns, and max drawdown. A row
// needs lookback prior observations before any metric is defined; warm-up
// rows keep nil metrics and are excluded from scoring downstream.
type MetricsEngine struct {
	lookback int
	stddev   string
}

// NewMetricsEngine validates the window parameters and fails fast on an
// invalid configuration.
func NewMetricsEngine(lookback int, stddevMode string) (*MetricsEngine, error) {
	if lookback < 1 {
		return nil, fmt.Errorf("lookback_weeks must be >= 1, got %d", lookback)
	}
	if stddevMode != rotationconfig.StddevSample && stddevMode != rotationconfig.StddevPopulation {
		return nil, fmt.Errorf("unknown stddev mode %q", stddevMode)
	}
	return &MetricsEngine{lookback: lookback, stddev: stddevMode}, nil
}

// Compute takes the week-ordered observations of a single symbol and returns
// one row per observation. Row i carries metrics only when i >= lookback:
//   - return:     close[i]/close[i-N] - 1
//   - volatility: stddev of the N weekly returns ending at i
//   - drawdown:   min of close/runningMax - 1 over the N closes ending at i
func (m *MetricsEngine) Compute(observations []contracts.WeeklyObservation) []contracts.RankedWeeklyRow {
	n := m.lookback
	rows := make([]contracts.RankedWeeklyRow, 0, len(observations))

	for i, obs := range observations {
		row := contracts.RankedWeeklyRow{
			WeekEnd:      obs.WeekEnd,
			Sector:       obs.Sector,
			Symbol:       obs.Symbol,
			WeeklyClose:  obs.WeeklyClose,
			WeeklyReturn: obs.WeeklyReturn,
		}

		if i >= n {
			ret := obs.WeeklyClose/observations[i-n].WeeklyClose - 1
			row.Return = &ret

			if vol, ok := m.volatility(observations, i); ok {
				row.Volatility = &vol
			}

			dd := drawdown(observations[i-n+1 : i+1])
			row.Drawdown = &dd
		}

		rows = append(rows, row)
	}

	return rows
}

// volatility is the stddev of the weekly returns over the half-open window
// (i-N, i]. Sample stddev (denominator N-1) is undefined for N < 2.
func (m *MetricsEngine) volatility(observations []contracts.WeeklyObservation, i int) (float64, bool) {
	n := m.lookback
	if m.stddev == rotationconfig.StddevSample && n < 2 {
		return 0, false
	}

	sum := 0.0
	for j := i - n + 1; j <= i; j++ {
		// j >= 1 whenever i >= n, so every return in the window is defined
		sum += *observations[j].WeeklyReturn
	}
	mean := sum / float64(n)

	varianceSum := 0.0
	for j := i - n + 1; j <= i; j++ {
		d := *observations[j].WeeklyReturn - mean
		varianceSum += d * d
	}

	denom := float64(n)
	if m.stddev == rotationconfig.StddevSample {
		denom = float64(n - 1)
	}

	return math.Sqrt(varianceSum / denom), true
}

// drawdown is the max peak-to-trough decline over a window of closes,
// expressed as a non-positive fraction: 0 for a non-decreasing window.
func drawdown(window []contracts.WeeklyObservation) float64 {
	peak := math.Inf(-1)
	minDD := 0.0

	for _, obs := range window {
		if obs.WeeklyClose > peak {
			peak = obs.WeeklyClose
		}
		dd := obs.WeeklyClose/peak - 1
		if dd < minDD {
			minDD = dd
		}
	}

	return minDD
}
