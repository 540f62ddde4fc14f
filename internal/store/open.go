package store

import (
	"fmt"
	"log/slog"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

// Supported values for Options.Driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a store backend.
type Options struct {
	Driver       string
	SQLitePath   string
	DatabaseURL  string
	MaxOpenConns int
}

// Open builds the store named by opts.Driver. The returned close func is never nil.
func Open(opts Options) (weather.Store, func() error, error) {
	switch opts.Driver {
	case DriverMemory:
		slog.Info("using in-memory store")
		return NewMemoryStore(), func() error { return nil }, nil
	case DriverSQLite, "":
		s, err := OpenSQLite(opts.SQLitePath, opts.MaxOpenConns)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using sqlite store", "path", opts.SQLitePath)
		return s, s.Close, nil
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("postgres driver requires DATABASE_URL")
		}
		s, err := OpenPostgres(opts.DatabaseURL, opts.MaxOpenConns)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using postgres store")
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
