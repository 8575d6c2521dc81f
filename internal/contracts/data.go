package contracts

import "time"

// PricePoint is one daily bar for a sector index ETF.
// Identity key is (Symbol, Date); a later fetch with the same key supersedes
// the earlier one at the storage layer.
type PricePoint struct {
	Symbol   string
	Sector   string
	Date     time.Time
	Open     *float64
	High     *float64
	Low      *float64
	Close    *float64
	AdjClose *float64
	Volume   *int64
}

// HasRequiredFields reports whether the row carries everything the weekly
// pipeline needs. Rows failing this are excluded before the core runs.
func (p *PricePoint) HasRequiredFields() bool {
	return p.Symbol != "" && p.Sector != "" && !p.Date.IsZero() && p.AdjClose != nil
}

// WeeklyObservation is one weekly close per symbol, derived from daily bars.
// WeeklyReturn is nil for the first observation of a symbol.
type WeeklyObservation struct {
	Symbol       string
	Sector       string
	WeekEnd      time.Time
	WeeklyClose  float64
	WeeklyReturn *float64
}

// RankedWeeklyRow is one row of the gold rankings table. The windowed
// metrics, score, and rank are nil until the symbol has lookback_weeks prior
// observations; such warm-up rows stay in the table but never rank.
type RankedWeeklyRow struct {
	WeekEnd      time.Time `json:"week_end"`
	Sector       string    `json:"sector"`
	Symbol       string    `json:"symbol"`
	WeeklyClose  float64   `json:"weekly_close"`
	WeeklyReturn *float64  `json:"weekly_return,omitempty"`
	Return       *float64  `json:"windowed_return,omitempty"`
	Volatility   *float64  `json:"windowed_volatility,omitempty"`
	Drawdown     *float64  `json:"windowed_drawdown,omitempty"`
	Score        *float64  `json:"score,omitempty"`
	Rank         *int      `json:"rank,omitempty"`
}

// Scored reports whether the row participates in ranking
func (r *RankedWeeklyRow) Scored() bool {
	return r.Score != nil
}

// SummaryRow is one sector in the latest top-N export
type SummaryRow struct {
	Rank       int     `json:"rank"`
	Sector     string  `json:"sector"`
	Symbol     string  `json:"symbol"`
	Score      float64 `json:"score"`
	Return     float64 `json:"windowed_return"`
	Volatility float64 `json:"windowed_volatility"`
	Drawdown   float64 `json:"windowed_drawdown"`
}

// LatestSummary is the "latest top-N" payload served to the dashboard and
// written as a JSON file after every gold build
type LatestSummary struct {
	WeekEnd string       `json:"week_end"`
	TopN    int          `json:"top_n"`
	Sectors []SummaryRow `json:"sectors"`
}
