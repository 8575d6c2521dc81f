package s2_weekly

import (
	"sort"
	"time"

	"github.com/wonny/rotor/internal/contracts"
)

// Resampler converts daily price history into one observation per symbol per
// week. It is a pure transformation: no I/O, no shared state.
type Resampler struct {
	anchor time.Weekday
}

// NewResampler creates a resampler with the given weekly boundary weekday
func NewResampler(anchor time.Weekday) *Resampler {
	return &Resampler{anchor: anchor}
}

// WeekEnd returns the weekly boundary date for a daily bar: the next
// occurrence of the anchor weekday on or after the given date. Every symbol
// in the same calendar week maps to the same boundary date, which the
// per-week ranking groups depend on.
func (r *Resampler) WeekEnd(date time.Time) time.Time {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(r.anchor) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

type groupKey struct {
	symbol string
	sector string
}

// Resample buckets daily bars into weekly observations. Rows missing symbol,
// sector, date, or adjusted close are dropped. Within a bucket the
// chronologically last bar wins; weekly return is the fractional change from
// the prior week's close and is nil for a symbol's first observation.
func (r *Resampler) Resample(prices []*contracts.PricePoint) []contracts.WeeklyObservation {
	buckets := make(map[groupKey]map[time.Time]*contracts.PricePoint)

	for _, p := range prices {
		if p == nil || !p.HasRequiredFields() {
			continue
		}

		key := groupKey{symbol: p.Symbol, sector: p.Sector}
		week := r.WeekEnd(p.Date)

		group, ok := buckets[key]
		if !ok {
			group = make(map[time.Time]*contracts.PricePoint)
			buckets[key] = group
		}

		// last-observed-wins: a later trade date replaces the held bar;
		// an equal date means a re-fetch of the same bar, also kept
		if cur, ok := group[week]; !ok || !p.Date.Before(cur.Date) {
			group[week] = p
		}
	}

	keys := make([]groupKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].symbol != keys[j].symbol {
			return keys[i].symbol < keys[j].symbol
		}
		return keys[i].sector < keys[j].sector
	})

	observations := make([]contracts.WeeklyObservation, 0, len(prices))
	for _, key := range keys {
		group := buckets[key]

		weeks := make([]time.Time, 0, len(group))
		for week := range group {
			weeks = append(weeks, week)
		}
		sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

		var prevClose *float64
		for _, week := range weeks {
			close := *group[week].AdjClose

			obs := contracts.WeeklyObservation{
				Symbol:      key.symbol,
				Sector:      key.sector,
				WeekEnd:     week,
				WeeklyClose: close,
			}
			if prevClose != nil {
				ret := close / *prevClose - 1
				obs.WeeklyReturn = &ret
			}

			observations = append(observations, obs)
			c := close
			prevClose = &c
		}
	}

	return observations
}
