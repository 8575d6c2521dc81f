package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rotor/internal/contracts"
	"github.com/wonny/rotor/internal/rotationconfig"
	"github.com/wonny/rotor/pkg/config"
	"github.com/wonny/rotor/pkg/logger"
)

func testGate(t *testing.T, now time.Time) *Gate {
	t.Helper()
	cfg := &config.Config{Env: "test", LogLevel: "error"}
	g := NewGate(nil, rotationconfig.Quality{
		FreshnessDays:      7,
		NonNegativeColumns: []string{"close", "adj_close", "volume"},
	}, logger.New(cfg))
	g.now = func() time.Time { return now }
	return g
}

func cleanBar(symbol, sector, date string, adjClose float64, volume int64) *contracts.PricePoint {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	c := adjClose
	v := volume
	return &contracts.PricePoint{
		Symbol:   symbol,
		Sector:   sector,
		Date:     d,
		Close:    &c,
		AdjClose: &c,
		Volume:   &v,
	}
}

func checkByName(t *testing.T, report *Report, name string) CheckResult {
	t.Helper()
	for _, c := range report.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %s not in report", name)
	return CheckResult{}
}

func TestGate_CleanDataPasses(t *testing.T) {
	now, _ := time.Parse("2006-01-02", "2024-01-15")
	g := testGate(t, now)

	report := g.Evaluate([]*contracts.PricePoint{
		cleanBar("XLK", "Tech", "2024-01-12", 100, 1000),
		cleanBar("XLE", "Energy", "2024-01-12", 80, 2000),
	})

	assert.True(t, report.Passed)
	require.Len(t, report.Checks, 4)
	for _, c := range report.Checks {
		assert.True(t, c.Passed, "check %s", c.Name)
	}
}

func TestGate_DetectsDuplicateKeys(t *testing.T) {
	now, _ := time.Parse("2006-01-02", "2024-01-15")
	g := testGate(t, now)

	report := g.Evaluate([]*contracts.PricePoint{
		cleanBar("XLK", "Tech", "2024-01-12", 100, 1000),
		cleanBar("XLK", "Tech", "2024-01-12", 101, 1100),
	})

	assert.False(t, report.Passed)
	dup := checkByName(t, report, "unique_symbol_date")
	assert.False(t, dup.Passed)
	assert.Equal(t, 1, dup.Errors)
}

func TestGate_DetectsMissingSector(t *testing.T) {
	now, _ := time.Parse("2006-01-02", "2024-01-15")
	g := testGate(t, now)

	report := g.Evaluate([]*contracts.PricePoint{
		cleanBar("XLK", "", "2024-01-12", 100, 1000),
	})

	assert.False(t, report.Passed)
	assert.False(t, checkByName(t, report, "sector_present").Passed)
}

func TestGate_DetectsNegativeValues(t *testing.T) {
	now, _ := time.Parse("2006-01-02", "2024-01-15")
	g := testGate(t, now)

	report := g.Evaluate([]*contracts.PricePoint{
		cleanBar("XLK", "Tech", "2024-01-12", -100, 1000),
		cleanBar("XLE", "Energy", "2024-01-12", 80, -5),
	})

	assert.False(t, report.Passed)
	neg := checkByName(t, report, "non_negative")
	assert.False(t, neg.Passed)
	// -100 hits both close and adj_close, -5 hits volume
	assert.Equal(t, 3, neg.Errors)
}

func TestGate_DetectsStaleData(t *testing.T) {
	now, _ := time.Parse("2006-01-02", "2024-03-01")
	g := testGate(t, now)

	report := g.Evaluate([]*contracts.PricePoint{
		cleanBar("XLK", "Tech", "2024-01-12", 100, 1000),
	})

	assert.False(t, report.Passed)
	fresh := checkByName(t, report, "freshness")
	assert.False(t, fresh.Passed)
	assert.Contains(t, fresh.Detail, "2024-01-12")
}

func TestGate_EmptyTableFailsFreshness(t *testing.T) {
	now, _ := time.Parse("2006-01-02", "2024-01-15")
	g := testGate(t, now)

	report := g.Evaluate(nil)
	assert.False(t, report.Passed)
	assert.False(t, checkByName(t, report, "freshness").Passed)
}
