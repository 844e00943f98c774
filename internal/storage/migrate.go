package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// runMigrations applies the embedded migrations for the dialect on conn.
func runMigrations(ctx context.Context, conn *sql.DB, d dialect) error {
	var (
		driver database.Driver
		err    error
	)
	switch d.name {
	case sqliteDialect.name:
		driver, err = sqlite.WithInstance(conn, &sqlite.Config{})
	case postgresDialect.name:
		// A dedicated connection; closing the migrator only returns it to the pool.
		var c *sql.Conn
		if c, err = conn.Conn(ctx); err == nil {
			driver, err = postgres.WithConnection(ctx, c, &postgres.Config{})
			if err != nil {
				c.Close()
			}
		}
	default:
		return fmt.Errorf("no migrations for dialect %q", d.name)
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", d.name, err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+d.name)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, d.name, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// The sqlite driver closes the *sql.DB it was given, which would also
	// drop an in-memory database.
	if d.name == postgresDialect.name {
		defer m.Close()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
