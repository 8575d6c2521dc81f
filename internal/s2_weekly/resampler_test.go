package s2_weekly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rotor/internal/contracts"
)

func fp(v float64) *float64 { return &v }

func bar(symbol, sector string, date string, adjClose float64) *contracts.PricePoint {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return &contracts.PricePoint{
		Symbol:   symbol,
		Sector:   sector,
		Date:     d,
		AdjClose: fp(adjClose),
	}
}

func TestResampler_WeekEnd(t *testing.T) {
	r := NewResampler(time.Friday)

	tests := []struct {
		date string
		want string
	}{
		{"2024-01-08", "2024-01-12"}, // Monday -> same week Friday
		{"2024-01-11", "2024-01-12"}, // Thursday -> same week Friday
		{"2024-01-12", "2024-01-12"}, // Friday maps to itself
		{"2024-01-13", "2024-01-19"}, // Saturday rolls to next Friday
		{"2024-01-14", "2024-01-19"}, // Sunday rolls to next Friday
	}

	for _, tt := range tests {
		d, err := time.Parse("2006-01-02", tt.date)
		require.NoError(t, err)
		assert.Equal(t, tt.want, r.WeekEnd(d).Format("2006-01-02"), "date %s", tt.date)
	}
}

func TestResampler_LastObservedWins(t *testing.T) {
	r := NewResampler(time.Friday)

	// Mon, Wed, Fri of the same week: the Friday close defines the week
	obs := r.Resample([]*contracts.PricePoint{
		bar("XLK", "Tech", "2024-01-08", 100),
		bar("XLK", "Tech", "2024-01-10", 104),
		bar("XLK", "Tech", "2024-01-12", 102),
	})

	require.Len(t, obs, 1)
	assert.Equal(t, "2024-01-12", obs[0].WeekEnd.Format("2006-01-02"))
	assert.Equal(t, 102.0, obs[0].WeeklyClose)
	assert.Nil(t, obs[0].WeeklyReturn, "first observation has no return")
}

func TestResampler_WeeklyReturns(t *testing.T) {
	r := NewResampler(time.Friday)

	obs := r.Resample([]*contracts.PricePoint{
		bar("XLE", "Energy", "2024-01-12", 100),
		bar("XLE", "Energy", "2024-01-19", 110),
		bar("XLE", "Energy", "2024-01-26", 99),
	})

	require.Len(t, obs, 3)
	assert.Nil(t, obs[0].WeeklyReturn)
	require.NotNil(t, obs[1].WeeklyReturn)
	assert.InDelta(t, 0.10, *obs[1].WeeklyReturn, 1e-12)
	require.NotNil(t, obs[2].WeeklyReturn)
	assert.InDelta(t, -0.10, *obs[2].WeeklyReturn, 1e-12)
}

func TestResampler_ShortWeekUsesLastTrade(t *testing.T) {
	r := NewResampler(time.Friday)

	// Friday is a holiday: Thursday is the last bar but the bucket still
	// closes on the calendar Friday
	obs := r.Resample([]*contracts.PricePoint{
		bar("XLF", "Financials", "2024-01-08", 50),
		bar("XLF", "Financials", "2024-01-11", 51),
	})

	require.Len(t, obs, 1)
	assert.Equal(t, "2024-01-12", obs[0].WeekEnd.Format("2006-01-02"))
	assert.Equal(t, 51.0, obs[0].WeeklyClose)
}

func TestResampler_DropsIncompleteRows(t *testing.T) {
	r := NewResampler(time.Friday)

	noClose := bar("XLK", "Tech", "2024-01-12", 0)
	noClose.AdjClose = nil
	noSector := bar("XLK", "", "2024-01-12", 100)

	obs := r.Resample([]*contracts.PricePoint{
		noClose,
		noSector,
		nil,
		bar("XLK", "Tech", "2024-01-19", 105),
	})

	require.Len(t, obs, 1)
	assert.Equal(t, 105.0, obs[0].WeeklyClose)
}

func TestResampler_MultipleSymbolsOrdered(t *testing.T) {
	r := NewResampler(time.Friday)

	obs := r.Resample([]*contracts.PricePoint{
		bar("XLK", "Tech", "2024-01-12", 100),
		bar("XLE", "Energy", "2024-01-12", 80),
		bar("XLK", "Tech", "2024-01-19", 101),
		bar("XLE", "Energy", "2024-01-19", 82),
	})

	require.Len(t, obs, 4)
	// symbols emitted in sorted order, weeks ascending within a symbol
	assert.Equal(t, "XLE", obs[0].Symbol)
	assert.Equal(t, "XLE", obs[1].Symbol)
	assert.Equal(t, "XLK", obs[2].Symbol)
	assert.True(t, obs[0].WeekEnd.Before(obs[1].WeekEnd))
}

func TestResampler_EmptyInput(t *testing.T) {
	r := NewResampler(time.Friday)

	obs := r.Resample(nil)
	assert.Empty(t, obs)

	obs = r.Resample([]*contracts.PricePoint{})
	assert.Empty(t, obs)
}

func TestResampler_MondayAnchor(t *testing.T) {
	r := NewResampler(time.Monday)

	// Tuesday 2024-01-09 belongs to the week ending Monday 2024-01-15
	d, _ := time.Parse("2006-01-02", "2024-01-09")
	assert.Equal(t, "2024-01-15", r.WeekEnd(d).Format("2006-01-02"))
}
