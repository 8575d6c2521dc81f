package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rotor/internal/contracts"
	"github.com/wonny/rotor/internal/external/yahoo"
	"github.com/wonny/rotor/internal/rotationconfig"
	"github.com/wonny/rotor/internal/s0_data"
	"github.com/wonny/rotor/internal/s1_silver"
	"github.com/wonny/rotor/internal/s1_silver/quality"
	"github.com/wonny/rotor/internal/s3_rank"
	"github.com/wonny/rotor/pkg/config"
	"github.com/wonny/rotor/pkg/logger"
)

type memRawRepo struct {
	runDate time.Time
	rows    []*contracts.PricePoint
}

func (m *memRawRepo) SaveRun(ctx context.Context, runDate time.Time, prices []*contracts.PricePoint) error {
	m.runDate = runDate
	m.rows = prices
	return nil
}

func (m *memRawRepo) GetRun(ctx context.Context, runDate time.Time) ([]*contracts.PricePoint, error) {
	return m.rows, nil
}

func (m *memRawRepo) LatestRunDate(ctx context.Context) (time.Time, error) {
	return m.runDate, nil
}

type memPriceRepo struct {
	rows []*contracts.PricePoint
}

func (m *memPriceRepo) Upsert(ctx context.Context, prices []*contracts.PricePoint) (int, error) {
	m.rows = prices
	return len(prices), nil
}

func (m *memPriceRepo) GetAll(ctx context.Context) ([]*contracts.PricePoint, error) {
	return m.rows, nil
}

func (m *memPriceRepo) LatestDate(ctx context.Context) (time.Time, error) {
	var latest time.Time
	for _, p := range m.rows {
		if p.Date.After(latest) {
			latest = p.Date
		}
	}
	return latest, nil
}

type memRankingRepo struct {
	replaced [][]contracts.RankedWeeklyRow
}

func (m *memRankingRepo) Replace(ctx context.Context, rows []contracts.RankedWeeklyRow) error {
	m.replaced = append(m.replaced, rows)
	return nil
}

func (m *memRankingRepo) Weeks(ctx context.Context) ([]time.Time, error) { return nil, nil }

func (m *memRankingRepo) GetWeek(ctx context.Context, week time.Time, topN int) ([]contracts.RankedWeeklyRow, error) {
	return nil, nil
}

func (m *memRankingRepo) LatestWeek(ctx context.Context) (time.Time, error) {
	return time.Time{}, nil
}

func (m *memRankingRepo) SymbolTrend(ctx context.Context, symbol string) ([]contracts.RankedWeeklyRow, error) {
	return nil, nil
}

type recordingCache struct {
	dropped []string
}

func (c *recordingCache) DeletePrefix(ctx context.Context, prefix string) error {
	c.dropped = append(c.dropped, prefix)
	return nil
}

// four consecutive Fridays, 2024-01-05 .. 2024-01-26, at UTC midnight
var fridayStamps = []int64{1704412800, 1705017600, 1705622400, 1706227200}

func chartJSON(symbol string, closes []float64) string {
	stamps := make([]string, len(closes))
	vals := make([]string, len(closes))
	vols := make([]string, len(closes))
	for i, c := range closes {
		stamps[i] = fmt.Sprintf("%d", fridayStamps[i])
		vals[i] = fmt.Sprintf("%g", c)
		vols[i] = "1000"
	}
	ts := strings.Join(stamps, ",")
	cl := strings.Join(vals, ",")
	vol := strings.Join(vols, ",")

	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"meta": {"symbol": %q, "timezone": "EST"},
				"timestamp": [%s],
				"indicators": {
					"quote": [{
						"open": [%s], "high": [%s], "low": [%s],
						"close": [%s], "volume": [%s]
					}],
					"adjclose": [{"adjclose": [%s]}]
				}
			}],
			"error": null
		}
	}`, symbol, ts, cl, cl, cl, cl, vol, cl)
}

func chartServer(closes map[string][]float64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		symbol := parts[len(parts)-1]
		w.Write([]byte(chartJSON(symbol, closes[symbol])))
	}))
}

func testStrategy() *rotationconfig.Config {
	return &rotationconfig.Config{
		Meta: rotationconfig.Meta{StrategyID: "test", Version: "1"},
		Ingestion: rotationconfig.Ingestion{
			Symbols:   map[string]string{"XLK": "Tech", "XLE": "Energy"},
			StartDate: "2024-01-01",
			Interval:  "1d",
		},
		Weekly: rotationconfig.Weekly{Anchor: "FRI"},
		Rankings: rotationconfig.Rankings{
			LookbackWeeks: 2,
			Stddev:        rotationconfig.StddevSample,
			ScoreWeights:  rotationconfig.Weights{Return: 1, Volatility: -0.5, Drawdown: 0.5},
			TopN:          2,
		},
		Quality: rotationconfig.Quality{
			FreshnessDays:      100000,
			NonNegativeColumns: []string{"close", "adj_close", "volume"},
		},
	}
}

type fixture struct {
	runner   *Runner
	rankings *memRankingRepo
	cache    *recordingCache
}

func newFixture(t *testing.T, baseURL, exportTo string, strategy *rotationconfig.Config) *fixture {
	t.Helper()

	cfg := &config.Config{Env: "test", LogLevel: "error"}
	log := logger.New(cfg)

	client := yahoo.NewClient(config.YahooConfig{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
		RatePerSecond:  100,
	}, log)

	raw := &memRawRepo{}
	prices := &memPriceRepo{}
	rankings := &memRankingRepo{}
	cache := &recordingCache{}

	anchor, err := strategy.Weekly.AnchorWeekday()
	require.NoError(t, err)
	gold, err := s3_rank.NewBuilder(anchor, strategy.Rankings, log)
	require.NoError(t, err)

	runner := NewRunner(
		strategy,
		s0_data.NewCollector(client, raw, log),
		s1_silver.NewBuilder(raw, prices, log),
		quality.NewGate(prices, strategy.Quality, log),
		prices, gold, rankings, cache,
		exportTo, log,
	)

	return &fixture{runner: runner, rankings: rankings, cache: cache}
}

func TestRunner_Run_RebuildsAndInvalidatesCache(t *testing.T) {
	srv := chartServer(map[string][]float64{
		"XLK": {100, 102, 104, 110},
		"XLE": {100, 101, 99, 98},
	})
	defer srv.Close()

	exportTo := filepath.Join(t.TempDir(), "latest.json")
	f := newFixture(t, srv.URL, exportTo, testStrategy())

	result, err := f.runner.Run(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(result.Steps))
	for _, step := range result.Steps {
		names = append(names, step.Name)
	}
	assert.Equal(t, []string{"ingest", "silver", "quality", "gold"}, names)
	assert.Equal(t, 8, result.RankedRows) // 2 symbols x 4 weeks, warm-ups included

	require.Len(t, f.rankings.replaced, 1)
	assert.Len(t, f.rankings.replaced[0], 8)

	// the leaderboard cache is dropped right after the table is replaced
	assert.Equal(t, []string{"rankings:latest"}, f.cache.dropped)

	data, err := os.ReadFile(exportTo)
	require.NoError(t, err)
	var summary contracts.LatestSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, "2024-01-26", summary.WeekEnd)
	require.NotEmpty(t, summary.Sectors)
	assert.Equal(t, 1, summary.Sectors[0].Rank)
	assert.Equal(t, "XLK", summary.Sectors[0].Symbol)
}

func TestRunner_Run_QualityGateAbortsGold(t *testing.T) {
	srv := chartServer(map[string][]float64{
		"XLK": {100, 102, 104, 110},
		"XLE": {100, 101, -99, 98},
	})
	defer srv.Close()

	exportTo := filepath.Join(t.TempDir(), "latest.json")
	f := newFixture(t, srv.URL, exportTo, testStrategy())

	_, err := f.runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step quality")
	assert.Contains(t, err.Error(), "non_negative")

	// a failed gate must leave the rankings, the cache, and the export alone
	assert.Empty(t, f.rankings.replaced)
	assert.Empty(t, f.cache.dropped)
	assert.NoFileExists(t, exportTo)
}
