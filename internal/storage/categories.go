package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fintrack/internal/models"
)

// CreateCategory stores a new category. A taken name yields models.ErrDuplicate.
func (db *DB) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is empty", models.ErrValidation)
	}

	c := &models.Category{Name: name}
	err := db.withTx(ctx, "create category", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			db.q("INSERT INTO categories (name) VALUES (?) RETURNING id"), name,
		).Scan(&c.ID)
		if err != nil {
			return db.classify("create category", fmt.Sprintf("category %q", name), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	db.log.Info("category created", zap.Int64("category_id", c.ID))
	return c, nil
}

// ListCategories returns all categories ordered by id.
func (db *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := db.withTx(ctx, "list categories", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY id")
		if err != nil {
			return db.storageErr("list categories", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c models.Category
			if err := rows.Scan(&c.ID, &c.Name); err != nil {
				return db.storageErr("list categories", err)
			}
			categories = append(categories, c)
		}
		if err := rows.Err(); err != nil {
			return db.storageErr("list categories", err)
		}
		return nil
	})
	return categories, err
}
