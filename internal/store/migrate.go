package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// migrateUp applies the embedded migrations for dialect ("sqlite" or "postgres") to db.
// The migrate instance is not closed: for sqlite that would close db itself.
func migrateUp(db *sql.DB, dialect string) error {
	var (
		drv database.Driver
		err error
	)
	switch dialect {
	case "sqlite":
		drv, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case "postgres":
		// The postgres driver pins one connection for its advisory lock; hand it back
		// to the pool once we are done.
		var conn *sql.Conn
		conn, err = db.Conn(context.Background())
		if err != nil {
			return fmt.Errorf("migration connection: %w", err)
		}
		defer func() {
			if err := conn.Close(); err != nil {
				slog.Error("close migration connection", "error", err)
			}
		}()
		drv, err = migratepostgres.WithConnection(context.Background(), conn, &migratepostgres.Config{})
	default:
		return fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, drv)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Debug("migrations up to date", "dialect", dialect)
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}

	version, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	slog.Info("migrations applied", "dialect", dialect, "version", version)
	return nil
}
