package s0_data

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/rotor/internal/contracts"
	"github.com/wonny/rotor/internal/external/yahoo"
	"github.com/wonny/rotor/internal/rotationconfig"
	"github.com/wonny/rotor/pkg/logger"
)

// Collector pulls daily history for every configured sector symbol and writes
// the raw responses as one bronze run. The bronze layer is append-only; each
// run is identified by its run date.
type Collector struct {
	client *yahoo.Client
	repo   contracts.RawPriceRepository
	logger *logger.Logger
}

// Config holds collector configuration
type Config struct {
	Workers int
}

// NewCollector creates a new Collector instance
func NewCollector(client *yahoo.Client, repo contracts.RawPriceRepository, log *logger.Logger) *Collector {
	return &Collector{
		client: client,
		repo:   repo,
		logger: log.WithField("module", "collector"),
	}
}

// FetchResult is the per-symbol outcome of a collection run
type FetchResult struct {
	Symbol   string
	BarCount int
	Error    error
}

// Run fetches the full daily history for every symbol in the strategy and
// saves a single bronze run dated runDate. A symbol that fails to fetch is
// reported in its FetchResult but does not abort the run; Run errors only
// when every symbol failed or the bronze write failed.
func (c *Collector) Run(ctx context.Context, strategy *rotationconfig.Config, runDate time.Time, cfg Config) ([]FetchResult, error) {
	symbols := strategy.Ingestion.SymbolList()
	start, err := strategy.Ingestion.StartTime()
	if err != nil {
		return nil, fmt.Errorf("invalid ingestion start date: %w", err)
	}
	end := runDate.AddDate(0, 0, 1) // period2 is exclusive

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"symbols":  len(symbols),
		"from":     start.Format("2006-01-02"),
		"run_date": runDate.Format("2006-01-02"),
		"workers":  workers,
	}).Info("Starting price collection")

	type fetched struct {
		result FetchResult
		prices []*contracts.PricePoint
	}

	symbolCh := make(chan string, len(symbols))
	resultCh := make(chan fetched, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range symbolCh {
				prices, err := c.client.FetchDaily(ctx, symbol, strategy.Ingestion.Symbols[symbol], start, end)
				resultCh <- fetched{
					result: FetchResult{Symbol: symbol, BarCount: len(prices), Error: err},
					prices: prices,
				}
			}
		}()
	}

	for _, symbol := range symbols {
		symbolCh <- symbol
	}
	close(symbolCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]FetchResult, 0, len(symbols))
	var all []*contracts.PricePoint
	failCount := 0

	for f := range resultCh {
		results = append(results, f.result)
		if f.result.Error != nil {
			failCount++
			c.logger.WithError(f.result.Error).WithField("symbol", f.result.Symbol).Warn("Symbol fetch failed")
			continue
		}
		all = append(all, f.prices...)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })

	if failCount == len(symbols) {
		return results, fmt.Errorf("all %d symbol fetches failed", len(symbols))
	}

	// deterministic bronze order regardless of worker scheduling
	sort.Slice(all, func(i, j int) bool {
		if all[i].Symbol != all[j].Symbol {
			return all[i].Symbol < all[j].Symbol
		}
		return all[i].Date.Before(all[j].Date)
	})

	if err := c.repo.SaveRun(ctx, runDate, all); err != nil {
		return results, fmt.Errorf("save bronze run: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"success": len(symbols) - failCount,
		"failed":  failCount,
		"bars":    len(all),
	}).Info("Price collection completed")

	return results, nil
}
