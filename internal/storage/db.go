package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"fintrack/internal/config"
	"fintrack/internal/logger"
	"fintrack/internal/models"
)

// DB wraps a sql.DB connection.
type DB struct {
	conn    *sql.DB
	dialect dialect
	log     *zap.Logger
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewDB opens a sqlite database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	return Open(context.Background(), config.DatabaseConfig{Driver: config.DriverSQLite, Path: path}, nil)
}

// Open connects to the configured backend and runs migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = logger.Nop()
	}
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	var conn *sql.DB
	switch d.name {
	case sqliteDialect.name:
		conn, err = openSQLite(cfg.Path)
	case postgresDialect.name:
		conn, err = sql.Open("postgres", cfg.PostgresURL())
	}
	if err != nil {
		return nil, err
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(ctx, conn, d); err != nil {
		conn.Close()
		return nil, err
	}

	log.Debug("database ready", zap.String("driver", d.name))
	return &DB{conn: conn, dialect: d, log: log}, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if !isMemory(path) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps :memory: databases alive and the pragma in force.
	conn.SetMaxOpenConns(1)
	return conn, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// withTx runs fn inside a transaction. fn's error is returned unchanged after
// the rollback; driver errors from begin and commit are classified.
func (db *DB) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return db.storageErr(op, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.log.Warn("rollback failed", zap.String("op", op), zap.Error(rbErr))
		}
		db.log.Debug("transaction rolled back", zap.String("op", op), zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		return db.storageErr(op, err)
	}
	return nil
}

func (db *DB) q(query string) string {
	return db.dialect.rebind(query)
}

func (db *DB) storageErr(op string, err error) error {
	db.log.Warn("storage failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", models.ErrStorage, op, err)
}

// classify maps unique violations to models.ErrDuplicate and everything else
// to models.ErrStorage.
func (db *DB) classify(op, what string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", what, models.ErrDuplicate)
	}
	return db.storageErr(op, err)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(se.Error(), "UNIQUE")
		}
		return false
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	return false
}
