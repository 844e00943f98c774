package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fintrack/internal/models"
	"fintrack/internal/money"
)

const expenseSelect = `SELECT e.id, e.user_id, e.category_id, e.name, e.amount_cents, e.created_at, e.updated_at,
	u.id, u.username, u.email, c.id, c.name
	FROM expenses e
	JOIN users u ON u.id = e.user_id
	JOIN categories c ON c.id = e.category_id`

func scanExpense(row rowScanner) (*models.Expense, error) {
	var (
		e     models.Expense
		cents int64
		email sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.UserID, &e.CategoryID, &e.Name, &cents, &e.CreatedAt, &e.UpdatedAt,
		&e.User.ID, &e.User.Username, &email, &e.Category.ID, &e.Category.Name,
	)
	if err != nil {
		return nil, err
	}
	e.Amount = money.FromCents(cents)
	if email.Valid {
		e.User.Email = &email.String
	}
	return &e, nil
}

// CreateExpense inserts a new expense into the database. Unknown user or
// category ids and negative amounts are rejected by the store.
func (db *DB) CreateExpense(ctx context.Context, userID, categoryID int64, name string, amount decimal.Decimal) (*models.Expense, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: expense name is empty", models.ErrValidation)
	}
	cents, err := money.ToCents(amount)
	if err != nil {
		return nil, err
	}

	var expense *models.Expense
	err = db.withTx(ctx, "create expense", func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx,
			db.q("INSERT INTO expenses (user_id, category_id, name, amount_cents) VALUES (?, ?, ?, ?) RETURNING id"),
			userID, categoryID, name, cents,
		).Scan(&id)
		if err != nil {
			return db.storageErr("create expense", err)
		}

		expense, err = db.expenseByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	db.log.Info("expense created",
		zap.Int64("expense_id", expense.ID),
		zap.Int64("user_id", userID),
		zap.Int64("amount_cents", cents))
	return expense, nil
}

// GetExpense retrieves a single expense by ID together with its user and category.
func (db *DB) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	var expense *models.Expense
	err := db.withTx(ctx, "get expense", func(tx *sql.Tx) error {
		var err error
		expense, err = db.expenseByID(ctx, tx, id)
		return err
	})
	return expense, err
}

// ListExpenses returns expenses newest first. A nil userID lists every user's
// expenses.
func (db *DB) ListExpenses(ctx context.Context, userID *int64) ([]models.Expense, error) {
	query := expenseSelect
	var args []any
	if userID != nil {
		query += " WHERE e.user_id = ?"
		args = append(args, *userID)
	}
	query += " ORDER BY e.created_at DESC, e.id DESC"

	var expenses []models.Expense
	err := db.withTx(ctx, "list expenses", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, db.q(query), args...)
		if err != nil {
			return db.storageErr("list expenses", err)
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanExpense(rows)
			if err != nil {
				return db.storageErr("list expenses", err)
			}
			expenses = append(expenses, *e)
		}
		if err := rows.Err(); err != nil {
			return db.storageErr("list expenses", err)
		}
		return nil
	})
	return expenses, err
}

// UpdateExpense applies the set fields of upd. updated_at is refreshed by the
// database and never moves backwards.
func (db *DB) UpdateExpense(ctx context.Context, id int64, upd models.ExpenseUpdate) (*models.Expense, error) {
	var (
		sets []string
		args []any
	)
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: expense name is empty", models.ErrValidation)
		}
		sets = append(sets, "name = ?")
		args = append(args, name)
	}
	if upd.Amount != nil {
		cents, err := money.ToCents(*upd.Amount)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "amount_cents = ?")
		args = append(args, cents)
	}
	if upd.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *upd.CategoryID)
	}

	var expense *models.Expense
	err := db.withTx(ctx, "update expense", func(tx *sql.Tx) error {
		current, err := db.expenseByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if upd.IsEmpty() {
			expense = current
			return nil
		}

		sets = append(sets, "updated_at = "+db.dialect.touch)
		query := "UPDATE expenses SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := tx.ExecContext(ctx, db.q(query), append(args, id)...); err != nil {
			return db.storageErr("update expense", err)
		}

		expense, err = db.expenseByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	db.log.Info("expense updated", zap.Int64("expense_id", id))
	return expense, nil
}

// DeleteExpense removes an expense by ID.
func (db *DB) DeleteExpense(ctx context.Context, id int64) error {
	err := db.withTx(ctx, "delete expense", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, db.q("DELETE FROM expenses WHERE id = ?"), id)
		if err != nil {
			return db.storageErr("delete expense", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return db.storageErr("delete expense", err)
		}
		if n == 0 {
			return fmt.Errorf("expense %d: %w", id, models.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.log.Info("expense deleted", zap.Int64("expense_id", id))
	return nil
}

func (db *DB) expenseByID(ctx context.Context, q queryer, id int64) (*models.Expense, error) {
	e, err := scanExpense(q.QueryRowContext(ctx, db.q(expenseSelect+" WHERE e.id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, db.storageErr("get expense", err)
	}
	return e, nil
}
