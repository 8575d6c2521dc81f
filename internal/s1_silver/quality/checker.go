package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/rotor/internal/contracts"
	"github.com/wonny/rotor/internal/rotationconfig"
	"github.com/wonny/rotor/pkg/logger"
)

// Gate runs the post-silver data checks. A failed gate stops the pipeline
// before the gold build; stale or broken data must never reach the rankings.
type Gate struct {
	prices contracts.PriceRepository
	config rotationconfig.Quality
	logger *logger.Logger
	now    func() time.Time
}

// NewGate creates a quality gate with the configured thresholds
func NewGate(prices contracts.PriceRepository, cfg rotationconfig.Quality, log *logger.Logger) *Gate {
	return &Gate{
		prices: prices,
		config: cfg,
		logger: log.WithField("module", "quality"),
		now:    time.Now,
	}
}

// CheckResult is the outcome of a single check
type CheckResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Detail  string `json:"detail,omitempty"`
	Errors  int    `json:"errors"`
}

// Report aggregates all check results for one gate run
type Report struct {
	CheckedAt time.Time     `json:"checked_at"`
	Rows      int           `json:"rows"`
	Checks    []CheckResult `json:"checks"`
	Passed    bool          `json:"passed"`
}

// Check loads the cleaned table and runs every configured check
func (g *Gate) Check(ctx context.Context) (*Report, error) {
	rows, err := g.prices.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load daily prices: %w", err)
	}

	report := g.Evaluate(rows)

	g.logger.WithFields(map[string]interface{}{
		"rows":   report.Rows,
		"passed": report.Passed,
		"checks": len(report.Checks),
	}).Info("Quality gate completed")

	return report, nil
}

// Evaluate runs the checks over an in-memory snapshot of the cleaned table
func (g *Gate) Evaluate(rows []*contracts.PricePoint) *Report {
	report := &Report{
		CheckedAt: g.now().UTC(),
		Rows:      len(rows),
		Checks: []CheckResult{
			checkDuplicates(rows),
			checkSectors(rows),
			checkNonNegative(rows, g.config.NonNegativeColumns),
			g.checkFreshness(rows),
		},
	}

	report.Passed = true
	for _, c := range report.Checks {
		if !c.Passed {
			report.Passed = false
			g.logger.WithFields(map[string]interface{}{
				"check":  c.Name,
				"errors": c.Errors,
				"detail": c.Detail,
			}).Warn("Quality check failed")
		}
	}

	return report
}

type priceKey struct {
	symbol string
	date   time.Time
}

// checkDuplicates verifies the (symbol, trade_date) key is unique. The
// upsert makes this structurally true, so a failure points at the table
// itself being corrupted.
func checkDuplicates(rows []*contracts.PricePoint) CheckResult {
	seen := make(map[priceKey]bool, len(rows))
	dups := 0
	for _, p := range rows {
		key := priceKey{symbol: p.Symbol, date: p.Date}
		if seen[key] {
			dups++
		}
		seen[key] = true
	}

	result := CheckResult{Name: "unique_symbol_date", Passed: dups == 0, Errors: dups}
	if dups > 0 {
		result.Detail = fmt.Sprintf("%d duplicate (symbol, trade_date) keys", dups)
	}
	return result
}

// checkSectors verifies every row carries a sector label
func checkSectors(rows []*contracts.PricePoint) CheckResult {
	missing := 0
	for _, p := range rows {
		if p.Sector == "" {
			missing++
		}
	}

	result := CheckResult{Name: "sector_present", Passed: missing == 0, Errors: missing}
	if missing > 0 {
		result.Detail = fmt.Sprintf("%d rows without a sector", missing)
	}
	return result
}

// checkNonNegative verifies the configured price and volume columns hold no
// negative values
func checkNonNegative(rows []*contracts.PricePoint, columns []string) CheckResult {
	bad := 0
	for _, p := range rows {
		for _, col := range columns {
			if negative(p, col) {
				bad++
			}
		}
	}

	result := CheckResult{Name: "non_negative", Passed: bad == 0, Errors: bad}
	if bad > 0 {
		result.Detail = fmt.Sprintf("%d negative values", bad)
	}
	return result
}

func negative(p *contracts.PricePoint, column string) bool {
	switch column {
	case "open":
		return p.Open != nil && *p.Open < 0
	case "high":
		return p.High != nil && *p.High < 0
	case "low":
		return p.Low != nil && *p.Low < 0
	case "close":
		return p.Close != nil && *p.Close < 0
	case "adj_close":
		return p.AdjClose != nil && *p.AdjClose < 0
	case "volume":
		return p.Volume != nil && *p.Volume < 0
	}
	return false
}

// checkFreshness verifies the newest trade date is recent enough to rank on
func (g *Gate) checkFreshness(rows []*contracts.PricePoint) CheckResult {
	if len(rows) == 0 {
		return CheckResult{Name: "freshness", Passed: false, Errors: 1, Detail: "table is empty"}
	}

	var latest time.Time
	for _, p := range rows {
		if p.Date.After(latest) {
			latest = p.Date
		}
	}

	age := g.now().UTC().Sub(latest)
	maxAge := time.Duration(g.config.FreshnessDays) * 24 * time.Hour

	result := CheckResult{Name: "freshness", Passed: age <= maxAge}
	if !result.Passed {
		result.Errors = 1
		result.Detail = fmt.Sprintf("latest trade date %s is older than %d days",
			latest.Format("2006-01-02"), g.config.FreshnessDays)
	}
	return result
}
