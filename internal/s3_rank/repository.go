package s3_rank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/rotor/internal/contracts"
)

// Repository implements contracts.RankingRepository on the gold table.
// The table is replaced wholesale on every pipeline run.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new ranking repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Replace swaps the entire ranked weekly table inside one transaction.
// Readers see either the previous build or the new one, never a mix.
func (r *Repository) Replace(ctx context.Context, rows []contracts.RankedWeeklyRow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM gold.weekly_rankings"); err != nil {
		return fmt.Errorf("failed to clear rankings: %w", err)
	}

	query := `
		INSERT INTO gold.weekly_rankings (
			week_end, sector, symbol, weekly_close, weekly_return,
			window_return, volatility, drawdown, score, rank
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(query,
			row.WeekEnd, row.Sector, row.Symbol, row.WeeklyClose, row.WeeklyReturn,
			row.Return, row.Volatility, row.Drawdown, row.Score, row.Rank,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert ranking row: %w", err)
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

// Weeks returns every distinct week_end in ascending order
func (r *Repository) Weeks(ctx context.Context) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT DISTINCT week_end FROM gold.weekly_rankings ORDER BY week_end ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query weeks: %w", err)
	}
	defer rows.Close()

	var weeks []time.Time
	for rows.Next() {
		var week time.Time
		if err := rows.Scan(&week); err != nil {
			return nil, err
		}
		weeks = append(weeks, week)
	}
	return weeks, rows.Err()
}

// GetWeek returns the ranked rows of one week, best rank first. topN <= 0
// returns the full week; otherwise only ranks up to topN, so ties at the
// cutoff are all included.
func (r *Repository) GetWeek(ctx context.Context, week time.Time, topN int) ([]contracts.RankedWeeklyRow, error) {
	query := `
		SELECT week_end, sector, symbol, weekly_close, weekly_return,
		       window_return, volatility, drawdown, score, rank
		FROM gold.weekly_rankings
		WHERE week_end = $1 AND rank IS NOT NULL
	`
	args := []interface{}{week}
	if topN > 0 {
		query += " AND rank <= $2"
		args = append(args, topN)
	}
	query += " ORDER BY rank ASC, symbol ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query week %s: %w", week.Format("2006-01-02"), err)
	}
	defer rows.Close()

	return scanRankedRows(rows)
}

// LatestWeek returns the most recent week_end that has ranked rows.
// Returns a zero time when the table holds no rankings yet.
func (r *Repository) LatestWeek(ctx context.Context) (time.Time, error) {
	var week time.Time
	err := r.pool.QueryRow(ctx,
		"SELECT week_end FROM gold.weekly_rankings WHERE rank IS NOT NULL ORDER BY week_end DESC LIMIT 1",
	).Scan(&week)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest week: %w", err)
	}
	return week, nil
}

// SymbolTrend returns one symbol's full ranked history, oldest week first
func (r *Repository) SymbolTrend(ctx context.Context, symbol string) ([]contracts.RankedWeeklyRow, error) {
	query := `
		SELECT week_end, sector, symbol, weekly_close, weekly_return,
		       window_return, volatility, drawdown, score, rank
		FROM gold.weekly_rankings
		WHERE symbol = $1
		ORDER BY week_end ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query trend for %s: %w", symbol, err)
	}
	defer rows.Close()

	return scanRankedRows(rows)
}

func scanRankedRows(rows pgx.Rows) ([]contracts.RankedWeeklyRow, error) {
	var out []contracts.RankedWeeklyRow
	for rows.Next() {
		var row contracts.RankedWeeklyRow
		if err := rows.Scan(
			&row.WeekEnd, &row.Sector, &row.Symbol, &row.WeeklyClose, &row.WeeklyReturn,
			&row.Return, &row.Volatility, &row.Drawdown, &row.Score, &row.Rank,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
