package s1_silver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/rotor/internal/contracts"
)

// Repository implements contracts.PriceRepository on the silver table:
// one cleaned row per (symbol, trade_date), last write wins.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new silver repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert writes the given rows, replacing any existing row with the same
// (symbol, trade_date) key. Returns the number of rows written.
func (r *Repository) Upsert(ctx context.Context, prices []*contracts.PricePoint) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO silver.daily_prices (
			symbol, sector, trade_date,
			open_price, high_price, low_price, close_price, adj_close, volume
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			sector = EXCLUDED.sector,
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			adj_close = EXCLUDED.adj_close,
			volume = EXCLUDED.volume,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(query,
			p.Symbol, p.Sector, p.Date,
			p.Open, p.High, p.Low, p.Close, p.AdjClose, p.Volume,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	for range prices {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("failed to upsert daily price: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	return len(prices), nil
}

// GetAll returns the full cleaned table ordered by (symbol, trade_date)
func (r *Repository) GetAll(ctx context.Context) ([]*contracts.PricePoint, error) {
	query := `
		SELECT symbol, sector, trade_date,
		       open_price, high_price, low_price, close_price, adj_close, volume
		FROM silver.daily_prices
		ORDER BY symbol ASC, trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var prices []*contracts.PricePoint
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(
			&p.Symbol, &p.Sector, &p.Date,
			&p.Open, &p.High, &p.Low, &p.Close, &p.AdjClose, &p.Volume,
		); err != nil {
			return nil, err
		}
		prices = append(prices, &p)
	}
	return prices, rows.Err()
}

// LatestDate returns the most recent trade date in the cleaned table, or a
// zero time when the table is empty.
func (r *Repository) LatestDate(ctx context.Context) (time.Time, error) {
	var date time.Time
	err := r.pool.QueryRow(ctx,
		"SELECT trade_date FROM silver.daily_prices ORDER BY trade_date DESC LIMIT 1",
	).Scan(&date)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest trade date: %w", err)
	}
	return date, nil
}
