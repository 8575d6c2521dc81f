package s0_data

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rotor/internal/contracts"
	"github.com/wonny/rotor/internal/external/yahoo"
	"github.com/wonny/rotor/internal/rotationconfig"
	"github.com/wonny/rotor/pkg/config"
	"github.com/wonny/rotor/pkg/logger"
)

type memRawRepo struct {
	runDate time.Time
	saved   []*contracts.PricePoint
}

func (m *memRawRepo) SaveRun(ctx context.Context, runDate time.Time, prices []*contracts.PricePoint) error {
	m.runDate = runDate
	m.saved = prices
	return nil
}

func (m *memRawRepo) GetRun(ctx context.Context, runDate time.Time) ([]*contracts.PricePoint, error) {
	return m.saved, nil
}

func (m *memRawRepo) LatestRunDate(ctx context.Context) (time.Time, error) {
	return m.runDate, nil
}

func chartJSON(symbol string) string {
	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"meta": {"symbol": %q, "timezone": "EST"},
				"timestamp": [1704844800, 1704931200],
				"indicators": {
					"quote": [{
						"open": [100, 101], "high": [102, 103], "low": [99, 100],
						"close": [101, 102], "volume": [1000, 2000]
					}],
					"adjclose": [{"adjclose": [100.5, 101.5]}]
				}
			}],
			"error": null
		}
	}`, symbol)
}

func testStrategy() *rotationconfig.Config {
	return &rotationconfig.Config{
		Meta: rotationconfig.Meta{StrategyID: "test"},
		Ingestion: rotationconfig.Ingestion{
			Symbols:   map[string]string{"XLK": "Tech", "XLE": "Energy"},
			StartDate: "2024-01-01",
			Interval:  "1d",
		},
	}
}

func TestCollector_Run(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		symbol := parts[len(parts)-1]
		w.Write([]byte(chartJSON(symbol)))
	}))
	defer srv.Close()

	cfg := &config.Config{Env: "test", LogLevel: "error"}
	log := logger.New(cfg)
	client := yahoo.NewClient(config.YahooConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
		RatePerSecond:  100,
	}, log)

	repo := &memRawRepo{}
	c := NewCollector(client, repo, log)

	runDate, _ := time.Parse("2006-01-02", "2024-01-15")
	results, err := c.Run(context.Background(), testStrategy(), runDate, Config{Workers: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// results come back sorted by symbol regardless of worker order
	assert.Equal(t, "XLE", results[0].Symbol)
	assert.Equal(t, 2, results[0].BarCount)
	assert.NoError(t, results[0].Error)
	assert.Equal(t, "XLK", results[1].Symbol)

	assert.Equal(t, runDate, repo.runDate)
	require.Len(t, repo.saved, 4)
	// bronze rows sorted by (symbol, date)
	assert.Equal(t, "XLE", repo.saved[0].Symbol)
	assert.Equal(t, "Energy", repo.saved[0].Sector)
	assert.Equal(t, "XLK", repo.saved[2].Symbol)
	assert.True(t, repo.saved[0].Date.Before(repo.saved[1].Date))
}

func TestCollector_Run_AllFetchesFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := &config.Config{Env: "test", LogLevel: "error"}
	log := logger.New(cfg)
	client := yahoo.NewClient(config.YahooConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
		RatePerSecond:  100,
	}, log)

	repo := &memRawRepo{}
	c := NewCollector(client, repo, log)

	runDate, _ := time.Parse("2006-01-02", "2024-01-15")
	_, err := c.Run(context.Background(), testStrategy(), runDate, Config{Workers: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all")
	assert.Empty(t, repo.saved)
}

func TestCollector_Run_PartialFailureStillSaves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/XLE") {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		parts := strings.Split(r.URL.Path, "/")
		w.Write([]byte(chartJSON(parts[len(parts)-1])))
	}))
	defer srv.Close()

	cfg := &config.Config{Env: "test", LogLevel: "error"}
	log := logger.New(cfg)
	client := yahoo.NewClient(config.YahooConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
		RatePerSecond:  100,
	}, log)

	repo := &memRawRepo{}
	c := NewCollector(client, repo, log)

	runDate, _ := time.Parse("2006-01-02", "2024-01-15")
	results, err := c.Run(context.Background(), testStrategy(), runDate, Config{Workers: 2})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Error(t, results[0].Error)   // XLE
	assert.NoError(t, results[1].Error) // XLK
	assert.Len(t, repo.saved, 2)
}
