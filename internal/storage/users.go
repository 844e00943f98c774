package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fintrack/internal/auth"
	"fintrack/internal/models"
)

const userColumns = "id, username, email, password_hash"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u     models.User
		email sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash); err != nil {
		return nil, err
	}
	if email.Valid {
		u.Email = &email.String
	}
	return &u, nil
}

// CreateUser hashes password and stores a new user. An empty email is stored
// as NULL. A taken username yields models.ErrDuplicate.
func (db *DB) CreateUser(ctx context.Context, username, password, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is empty", models.ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrValidation, err)
	}

	var emailArg sql.NullString
	if e := strings.TrimSpace(email); e != "" {
		emailArg = sql.NullString{String: e, Valid: true}
	}

	var user *models.User
	err = db.withTx(ctx, "create user", func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx,
			db.q("INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?) RETURNING id"),
			username, emailArg, hash,
		).Scan(&id)
		if err != nil {
			return db.classify("create user", fmt.Sprintf("username %q", username), err)
		}

		user, err = db.userByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	db.log.Info("user created", zap.Int64("user_id", user.ID))
	return user, nil
}

// AuthenticateUser looks identifier up by email when it contains "@" and by
// username otherwise. It returns nil without an error when the user does not
// exist or the password does not match.
func (db *DB) AuthenticateUser(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}

	column := "username"
	if auth.IsEmail(identifier) {
		column = "email"
	}

	var user *models.User
	err := db.withTx(ctx, "authenticate user", func(tx *sql.Tx) error {
		u, err := scanUser(tx.QueryRowContext(ctx,
			db.q("SELECT "+userColumns+" FROM users WHERE "+column+" = ? ORDER BY id LIMIT 1"),
			identifier,
		))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return db.storageErr("authenticate user", err)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	if user == nil || !auth.CheckPassword(password, user.PasswordHash) {
		db.log.Debug("authentication failed", zap.String("lookup", column))
		return nil, nil
	}
	return user, nil
}

// ListUsers returns all users ordered by id.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := db.withTx(ctx, "list users", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
		if err != nil {
			return db.storageErr("list users", err)
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return db.storageErr("list users", err)
			}
			users = append(users, *u)
		}
		if err := rows.Err(); err != nil {
			return db.storageErr("list users", err)
		}
		return nil
	})
	return users, err
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user *models.User
	err := db.withTx(ctx, "get user", func(tx *sql.Tx) error {
		var err error
		user, err = db.userByID(ctx, tx, id)
		return err
	})
	return user, err
}

func (db *DB) userByID(ctx context.Context, q queryer, id int64) (*models.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, db.q("SELECT "+userColumns+" FROM users WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, db.storageErr("get user", err)
	}
	return u, nil
}
