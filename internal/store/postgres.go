package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

const pgUniqueViolation = pq.ErrorCode("23505")

const (
	pgSelectColumns = `SELECT id, temperature, wind, pressure, humidity, location, ts FROM weather_records`

	pgInsertSQL = `INSERT INTO weather_records (temperature, wind, pressure, humidity, location, ts)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	pgFindByIDSQL   = pgSelectColumns + ` WHERE id = $1`
	pgFindAllSQL    = pgSelectColumns + ` ORDER BY id`
	pgFindLatestSQL = pgSelectColumns + ` ORDER BY id DESC LIMIT 1`
	pgFindRangeSQL  = pgSelectColumns + ` WHERE ts >= $1 AND ts <= $2 ORDER BY id`
	pgFindByKeySQL  = pgSelectColumns + ` WHERE location = $1 AND ts = $2`
)

// PostgresStore persists records in PostgreSQL. The ts column is a TIMESTAMP without
// time zone, which keeps microseconds; times are truncated to that precision before they
// are sent so that an end-of-day bound is never rounded into the next day.
type PostgresStore struct {
	db *sql.DB
}

var _ weather.Store = (*PostgresStore)(nil)

// OpenPostgres connects to dsn, applies migrations and returns a ready store.
func OpenPostgres(dsn string, maxOpenConns int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	if err := migrateUp(db, "postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func pgTime(t time.Time) time.Time {
	return weather.Naive(t).Truncate(time.Microsecond)
}

func (s *PostgresStore) Insert(ctx context.Context, rec weather.Record) (weather.Record, error) {
	rec.Timestamp = pgTime(rec.Timestamp)

	var id int64
	err := s.db.QueryRowContext(ctx, pgInsertSQL,
		rec.Temperature, rec.Wind, rec.Pressure, rec.Humidity, rec.Location, rec.Timestamp,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return weather.Record{}, weather.ErrDuplicate
		}
		return weather.Record{}, fmt.Errorf("insert weather record: %w", err)
	}

	rec.ID = id
	return rec, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (weather.Record, error) {
	return s.queryOne(ctx, pgFindByIDSQL, id)
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]weather.Record, error) {
	return s.queryMany(ctx, pgFindAllSQL)
}

func (s *PostgresStore) FindLatest(ctx context.Context) (weather.Record, error) {
	return s.queryOne(ctx, pgFindLatestSQL)
}

func (s *PostgresStore) FindByTimestampRange(ctx context.Context, start, end time.Time) ([]weather.Record, error) {
	return s.queryMany(ctx, pgFindRangeSQL, pgTime(start), pgTime(end))
}

func (s *PostgresStore) FindByLocationAndTimestamp(ctx context.Context, location string, ts time.Time) (weather.Record, error) {
	return s.queryOne(ctx, pgFindByKeySQL, location, pgTime(ts))
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, args ...any) (weather.Record, error) {
	rec, err := scanPostgresRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return weather.Record{}, weather.ErrNotFound
	}
	return rec, err
}

func (s *PostgresStore) queryMany(ctx context.Context, query string, args ...any) ([]weather.Record, error) {
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
		rec, err := scanPostgresRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanPostgresRecord(row rowScanner) (weather.Record, error) {
	var rec weather.Record
	if err := row.Scan(&rec.ID, &rec.Temperature, &rec.Wind, &rec.Pressure, &rec.Humidity, &rec.Location, &rec.Timestamp); err != nil {
		return weather.Record{}, err
	}
	rec.Timestamp = weather.Naive(rec.Timestamp)
	return rec, nil
}
