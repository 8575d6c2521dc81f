package s0_data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/rotor/internal/contracts"
)

// Repository implements contracts.RawPriceRepository on the bronze table.
// Runs are append-only; re-running a date replaces that date's rows but
// never touches other runs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new bronze repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRun stores one collection run. An existing run with the same date is
// replaced inside the same transaction, which keeps re-ingestion idempotent.
func (r *Repository) SaveRun(ctx context.Context, runDate time.Time, prices []*contracts.PricePoint) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"DELETE FROM bronze.raw_prices WHERE run_date = $1", runDate); err != nil {
		return fmt.Errorf("failed to clear run %s: %w", runDate.Format("2006-01-02"), err)
	}

	query := `
		INSERT INTO bronze.raw_prices (
			run_date, symbol, sector, trade_date,
			open_price, high_price, low_price, close_price, adj_close, volume
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(query,
			runDate, p.Symbol, p.Sector, p.Date,
			p.Open, p.High, p.Low, p.Close, p.AdjClose, p.Volume,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range prices {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert raw price: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRun retrieves every row captured by one run
func (r *Repository) GetRun(ctx context.Context, runDate time.Time) ([]*contracts.PricePoint, error) {
	query := `
		SELECT symbol, sector, trade_date,
		       open_price, high_price, low_price, close_price, adj_close, volume
		FROM bronze.raw_prices
		WHERE run_date = $1
		ORDER BY symbol ASC, trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, runDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runDate.Format("2006-01-02"), err)
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

// LatestRunDate returns the date of the most recent run, or a zero time when
// no run has been captured yet.
func (r *Repository) LatestRunDate(ctx context.Context) (time.Time, error) {
	var runDate time.Time
	err := r.pool.QueryRow(ctx,
		"SELECT run_date FROM bronze.raw_prices ORDER BY run_date DESC LIMIT 1",
	).Scan(&runDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest run date: %w", err)
	}
	return runDate, nil
}
