package s1_silver

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/rotor/internal/contracts"
	"github.com/wonny/rotor/pkg/logger"
)

// Builder promotes the latest bronze run into the silver table: rows are
// deduplicated on (symbol, trade_date) with the last capture winning, rows
// missing required fields are dropped, and the survivors are upserted.
type Builder struct {
	raw    contracts.RawPriceRepository
	prices contracts.PriceRepository
	logger *logger.Logger
}

// NewBuilder creates a new silver builder
func NewBuilder(raw contracts.RawPriceRepository, prices contracts.PriceRepository, log *logger.Logger) *Builder {
	return &Builder{
		raw:    raw,
		prices: prices,
		logger: log.WithField("module", "silver"),
	}
}

// Result summarizes one silver build
type Result struct {
	RunDate  time.Time
	Input    int
	Dropped  int
	Deduped  int
	Upserted int
}

// Build cleans the most recent bronze run and upserts it. Errors when no
// bronze run exists yet.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	runDate, err := b.raw.LatestRunDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest run date: %w", err)
	}
	if runDate.IsZero() {
		return nil, fmt.Errorf("no ingestion run found; run ingest first")
	}

	raw, err := b.raw.GetRun(ctx, runDate)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runDate.Format("2006-01-02"), err)
	}

	cleaned, dropped, deduped := Clean(raw)

	upserted, err := b.prices.Upsert(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("upsert daily prices: %w", err)
	}

	result := &Result{
		RunDate:  runDate,
		Input:    len(raw),
		Dropped:  dropped,
		Deduped:  deduped,
		Upserted: upserted,
	}

	b.logger.WithFields(map[string]interface{}{
		"run_date": runDate.Format("2006-01-02"),
		"input":    result.Input,
		"dropped":  result.Dropped,
		"deduped":  result.Deduped,
		"upserted": result.Upserted,
	}).Info("Silver build completed")

	return result, nil
}

type priceKey struct {
	symbol string
	date   time.Time
}

// Clean drops rows missing required fields and deduplicates on
// (symbol, trade_date), keeping the last occurrence. Output order follows
// the first occurrence of each key, so a stable input gives stable output.
func Clean(raw []*contracts.PricePoint) (cleaned []*contracts.PricePoint, dropped, deduped int) {
	index := make(map[priceKey]int)
	cleaned = make([]*contracts.PricePoint, 0, len(raw))

	for _, p := range raw {
		if p == nil || !p.HasRequiredFields() {
			dropped++
			continue
		}

		key := priceKey{symbol: p.Symbol, date: p.Date}
		if at, ok := index[key]; ok {
			cleaned[at] = p
			deduped++
			continue
		}

		index[key] = len(cleaned)
		cleaned = append(cleaned, p)
	}

	return cleaned, dropped, deduped
}
