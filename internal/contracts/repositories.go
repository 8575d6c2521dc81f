package contracts

import (
	"context"
	"time"
)

// RawPriceRepository is the bronze layer: append-only capture of provider
// responses, partitioned by run date.
type RawPriceRepository interface {
	SaveRun(ctx context.Context, runDate time.Time, prices []*PricePoint) error
	GetRun(ctx context.Context, runDate time.Time) ([]*PricePoint, error)
	LatestRunDate(ctx context.Context) (time.Time, error)
}

// PriceRepository is the silver layer: the cleaned, deduplicated daily price
// table. Upsert is last-write-wins on (symbol, date).
type PriceRepository interface {
	Upsert(ctx context.Context, prices []*PricePoint) (int, error)
	GetAll(ctx context.Context) ([]*PricePoint, error)
	LatestDate(ctx context.Context) (time.Time, error)
}

// RankingRepository is the gold layer: weekly rankings, replaced wholesale on
// every pipeline run.
type RankingRepository interface {
	Replace(ctx context.Context, rows []RankedWeeklyRow) error
	Weeks(ctx context.Context) ([]time.Time, error)
	GetWeek(ctx context.Context, week time.Time, topN int) ([]RankedWeeklyRow, error)
	LatestWeek(ctx context.Context) (time.Time, error)
	SymbolTrend(ctx context.Context, symbol string) ([]RankedWeeklyRow, error)
}
