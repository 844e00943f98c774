package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/report"
)

// dbTimeLayout parses nowText; fractional seconds are accepted implicitly.
const dbTimeLayout = "2006-01-02 15:04:05"

// GetExpenseAggregatesByDate sums a user's expenses per calendar day over the
// last days days, ending today by the database clock. Both slices have
// length days, oldest first, and days without expenses hold 0.00. days must
// be between 1 and report.MaxDays.
func (db *DB) GetExpenseAggregatesByDate(ctx context.Context, userID int64, days int) ([]time.Time, []decimal.Decimal, error) {
	if days < 1 || days > report.MaxDays {
		return nil, nil, fmt.Errorf("%w: days must be between 1 and %d, got %d", models.ErrValidation, report.MaxDays, days)
	}

	day := db.dialect.day("created_at")
	query := "SELECT " + day + ", SUM(amount_cents) FROM expenses" +
		" WHERE user_id = ? AND " + day + " >= ? AND " + day + " <= ?" +
		" GROUP BY " + day

	var end time.Time
	totals := make(map[string]decimal.Decimal)
	err := db.withTx(ctx, "aggregate expenses", func(tx *sql.Tx) error {
		var now string
		if err := tx.QueryRowContext(ctx, "SELECT "+db.dialect.nowText).Scan(&now); err != nil {
			return db.storageErr("aggregate expenses", err)
		}
		var err error
		end, err = time.Parse(dbTimeLayout, now)
		if err != nil {
			return db.storageErr("aggregate expenses", fmt.Errorf("parse database time %q: %w", now, err))
		}

		start := report.WindowStart(end, days)
		rows, err := tx.QueryContext(ctx, db.q(query), userID, report.DayKey(start), report.DayKey(end))
		if err != nil {
			return db.storageErr("aggregate expenses", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				key   string
				cents int64
			)
			if err := rows.Scan(&key, &cents); err != nil {
				return db.storageErr("aggregate expenses", err)
			}
			totals[key] = money.FromCents(cents)
		}
		if err := rows.Err(); err != nil {
			return db.storageErr("aggregate expenses", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	dates, amounts := report.FillDays(end, days, totals)
	return dates, amounts, nil
}
