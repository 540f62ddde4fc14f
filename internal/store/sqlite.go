package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

// sqliteTimeLayout is fixed width so that text comparison orders like time.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000"

const (
	sqliteSelectColumns = `SELECT id, temperature, wind, pressure, humidity, location, ts FROM weather_records`

	sqliteInsertSQL = `INSERT INTO weather_records (temperature, wind, pressure, humidity, location, ts)
VALUES (?, ?, ?, ?, ?, ?)`
	sqliteFindByIDSQL   = sqliteSelectColumns + ` WHERE id = ?`
	sqliteFindAllSQL    = sqliteSelectColumns + ` ORDER BY id`
	sqliteFindLatestSQL = sqliteSelectColumns + ` ORDER BY id DESC LIMIT 1`
	sqliteFindRangeSQL  = sqliteSelectColumns + ` WHERE ts >= ? AND ts <= ? ORDER BY id`
	sqliteFindByKeySQL  = sqliteSelectColumns + ` WHERE location = ? AND ts = ?`
)

// SQLiteStore persists records in SQLite. ids come from AUTOINCREMENT and are never
// reused; (location, ts) is UNIQUE.
type SQLiteStore struct {
	db *sql.DB
}

var _ weather.Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path, applies migrations and
// returns a ready store.
func OpenSQLite(path string, maxOpenConns int) (*SQLiteStore, error) {
	dsn, err := buildSQLiteDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// An in-memory database lives and dies with its connection.
	if path == ":memory:" {
		maxOpenConns = 1
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	if err := migrateUp(db, "sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func buildSQLiteDSN(path string) (string, error) {
	if path == ":memory:" {
		return "file::memory:?_busy_timeout=5000", nil
	}

	dir := filepath.Dir(strings.TrimPrefix(path, "file:"))
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Insert(ctx context.Context, rec weather.Record) (weather.Record, error) {
	rec.Timestamp = weather.Naive(rec.Timestamp)

	res, err := s.db.ExecContext(ctx, sqliteInsertSQL,
		rec.Temperature, rec.Wind, rec.Pressure, rec.Humidity,
		rec.Location, rec.Timestamp.Format(sqliteTimeLayout),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return weather.Record{}, weather.ErrDuplicate
		}
		return weather.Record{}, fmt.Errorf("insert weather record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return weather.Record{}, fmt.Errorf("insert weather record: last id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

func (s *SQLiteStore) FindByID(ctx context.Context, id int64) (weather.Record, error) {
	return s.queryOne(ctx, sqliteFindByIDSQL, id)
}

func (s *SQLiteStore) FindAll(ctx context.Context) ([]weather.Record, error) {
	return s.queryMany(ctx, sqliteFindAllSQL)
}

func (s *SQLiteStore) FindLatest(ctx context.Context) (weather.Record, error) {
	return s.queryOne(ctx, sqliteFindLatestSQL)
}

func (s *SQLiteStore) FindByTimestampRange(ctx context.Context, start, end time.Time) ([]weather.Record, error) {
	return s.queryMany(ctx, sqliteFindRangeSQL,
		weather.Naive(start).Format(sqliteTimeLayout),
		weather.Naive(end).Format(sqliteTimeLayout),
	)
}

func (s *SQLiteStore) FindByLocationAndTimestamp(ctx context.Context, location string, ts time.Time) (weather.Record, error) {
	return s.queryOne(ctx, sqliteFindByKeySQL, location, weather.Naive(ts).Format(sqliteTimeLayout))
}

func (s *SQLiteStore) queryOne(ctx context.Context, query string, args ...any) (weather.Record, error) {
	rec, err := scanSQLiteRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return weather.Record{}, weather.ErrNotFound
	}
	return rec, err
}

func (s *SQLiteStore) queryMany(ctx context.Context, query string, args ...any) ([]weather.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close weather rows", "error", err)
		}
	}()

	var out []weather.Record
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (weather.Record, error) {
	var (
		rec weather.Record
		ts  string
	)
	if err := row.Scan(&rec.ID, &rec.Temperature, &rec.Wind, &rec.Pressure, &rec.Humidity, &rec.Location, &ts); err != nil {
		return weather.Record{}, err
	}
	t, err := time.Parse(sqliteTimeLayout, ts)
	if err != nil {
		return weather.Record{}, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	rec.Timestamp = t
	return rec, nil
}
