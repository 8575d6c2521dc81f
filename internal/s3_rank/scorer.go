package s3_rank

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/rotor/internal/contracts"
	"github.com/wonny/rotor/internal/rotationconfig"
)

// Scorer combines the three windowed metrics into a single score and assigns
// dense ranks within each week. Weights are applied verbatim: no
// normalization, and the sum need not equal 1.
type Scorer struct {
	weights rotationconfig.Weights
}

// NewScorer rejects non-finite weights before any scoring happens
func NewScorer(weights rotationconfig.Weights) (*Scorer, error) {
	for name, w := range map[string]float64{
		"return":     weights.Return,
		"volatility": weights.Volatility,
		"drawdown":   weights.Drawdown,
	} {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("score weight %s must be a finite number", name)
		}
	}
	return &Scorer{weights: weights}, nil
}

// Score fills in the weighted score for every row whose three metrics are
// all defined. Warm-up rows keep a nil score and never rank.
func (s *Scorer) Score(rows []contracts.RankedWeeklyRow) {
	for i := range rows {
		row := &rows[i]
		if row.Return == nil || row.Volatility == nil || row.Drawdown == nil {
			continue
		}

		score := s.weights.Return**row.Return +
			s.weights.Volatility**row.Volatility +
			s.weights.Drawdown**row.Drawdown
		row.Score = &score
	}
}

// Rank groups scored rows by week and assigns dense ranks: 1 is best, rows
// with bit-equal scores share a rank, and the next distinct score advances
// the rank by exactly one. Unscored rows pass through with a nil rank. The
// returned slice is ordered by (week, rank, symbol) with unranked rows after
// the ranked ones of their week, so repeated runs produce identical output.
func (s *Scorer) Rank(rows []contracts.RankedWeeklyRow) []contracts.RankedWeeklyRow {
	byWeek := make(map[time.Time][]contracts.RankedWeeklyRow)
	for _, row := range rows {
		byWeek[row.WeekEnd] = append(byWeek[row.WeekEnd], row)
	}

	weeks := make([]time.Time, 0, len(byWeek))
	for week := range byWeek {
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	out := make([]contracts.RankedWeeklyRow, 0, len(rows))
	for _, week := range weeks {
		out = append(out, rankWeek(byWeek[week])...)
	}

	return out
}

// rankWeek ranks one week_end group in place
func rankWeek(group []contracts.RankedWeeklyRow) []contracts.RankedWeeklyRow {
	scored := make([]contracts.RankedWeeklyRow, 0, len(group))
	unscored := make([]contracts.RankedWeeklyRow, 0)

	for _, row := range group {
		if row.Scored() {
			scored = append(scored, row)
		} else {
			unscored = append(unscored, row)
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if *scored[i].Score != *scored[j].Score {
			return *scored[i].Score > *scored[j].Score
		}
		return scored[i].Symbol < scored[j].Symbol
	})

	rank := 0
	var prev float64
	for i := range scored {
		if i == 0 || *scored[i].Score != prev {
			rank++
		}
		prev = *scored[i].Score
		r := rank
		scored[i].Rank = &r
	}

	sort.Slice(unscored, func(i, j int) bool { return unscored[i].Symbol < unscored[j].Symbol })

	return append(scored, unscored...)
}
