package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig is built once at startup and never mutated afterwards.
type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level
	Port     string

	WeatherAPIURL  string
	WeatherAPIKey  string
	WeatherAPIHost string

	// FetchInterval is the fixed rate of the ingestion job.
	FetchInterval time.Duration
	HTTPTimeout   time.Duration
	CycleTimeout  time.Duration

	StoreDriver    string
	SQLitePath     string
	DatabaseURL    string
	DBMaxOpenConns int
}

// IngestionEnabled reports whether a provider key is configured.
func (c *AppConfig) IngestionEnabled() bool {
	return c.WeatherAPIKey != ""
}

// fileConfig is the optional YAML layer. Durations and levels stay strings here and are
// parsed together with the environment values.
type fileConfig struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`
	Port     string `yaml:"port"`

	WeatherAPI struct {
		URL  string `yaml:"url"`
		Key  string `yaml:"key"`
		Host string `yaml:"host"`
	} `yaml:"weather_api"`

	FetchInterval string `yaml:"fetch_interval"`
	HTTPTimeout   string `yaml:"http_timeout"`
	CycleTimeout  string `yaml:"cycle_timeout"`

	Store struct {
		Driver       string `yaml:"driver"`
		SQLitePath   string `yaml:"sqlite_path"`
		DatabaseURL  string `yaml:"database_url"`
		MaxOpenConns string `yaml:"max_open_conns"`
	} `yaml:"store"`
}

func defaults() fileConfig {
	var f fileConfig
	f.AppEnv = "dev"
	f.LogLevel = "info"
	f.Port = "8080"
	f.WeatherAPI.URL = "https://weatherapi-com.p.rapidapi.com/current.json?q=Minsk"
	f.WeatherAPI.Host = "weatherapi-com.p.rapidapi.com"
	f.FetchInterval = "60s"
	f.HTTPTimeout = "10s"
	f.CycleTimeout = "30s"
	f.Store.Driver = "sqlite"
	f.Store.SQLitePath = "data/weather.db"
	return f
}

// Load reads configuration from defaults, the optional CONFIG_FILE and the environment,
// in increasing order of precedence.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	f := defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadYAML(path, &f); err != nil {
			return nil, err
		}
	}
	applyEnv(&f)

	return build(f)
}

func loadYAML(path string, f *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read CONFIG_FILE: %w", err)
	}
	// Unmarshal over the defaults so keys absent from the file keep them.
	if err := yaml.Unmarshal(data, f); err != nil {
		return fmt.Errorf("parse CONFIG_FILE %s: %w", path, err)
	}
	return nil
}

func applyEnv(f *fileConfig) {
	override(&f.AppEnv, "APP_ENV")
	override(&f.LogLevel, "LOG_LEVEL")
	override(&f.Port, "PORT")
	override(&f.WeatherAPI.URL, "WEATHER_API_URL")
	override(&f.WeatherAPI.Key, "WEATHER_API_KEY")
	override(&f.WeatherAPI.Host, "WEATHER_API_HOST")
	override(&f.FetchInterval, "FETCH_INTERVAL")
	override(&f.HTTPTimeout, "HTTP_TIMEOUT")
	override(&f.CycleTimeout, "CYCLE_TIMEOUT")
	override(&f.Store.Driver, "STORE_DRIVER")
	override(&f.Store.SQLitePath, "SQLITE_PATH")
	override(&f.Store.DatabaseURL, "DATABASE_URL")
	override(&f.Store.MaxOpenConns, "DB_MAX_OPEN_CONNS")
}

func override(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func build(f fileConfig) (*AppConfig, error) {
	cfg := &AppConfig{
		AppEnv:         strings.TrimSpace(f.AppEnv),
		Port:           strings.TrimSpace(f.Port),
		WeatherAPIURL:  strings.TrimSpace(f.WeatherAPI.URL),
		WeatherAPIKey:  strings.TrimSpace(f.WeatherAPI.Key),
		WeatherAPIHost: strings.TrimSpace(f.WeatherAPI.Host),
		StoreDriver:    strings.ToLower(strings.TrimSpace(f.Store.Driver)),
		SQLitePath:     strings.TrimSpace(f.Store.SQLitePath),
		DatabaseURL:    strings.TrimSpace(f.Store.DatabaseURL),
	}

	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(f.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.FetchInterval, err = parsePositiveDuration("FETCH_INTERVAL", f.FetchInterval); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = parsePositiveDuration("HTTP_TIMEOUT", f.HTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.CycleTimeout, err = parsePositiveDuration("CYCLE_TIMEOUT", f.CycleTimeout); err != nil {
		return nil, err
	}
	// A cycle may not outlive its tick; the next tick would only be skipped.
	if cfg.CycleTimeout > cfg.FetchInterval {
		return nil, fmt.Errorf("invalid CYCLE_TIMEOUT %s: must not exceed FETCH_INTERVAL %s", cfg.CycleTimeout, cfg.FetchInterval)
	}

	switch cfg.StoreDriver {
	case "memory":
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH must not be empty for the sqlite driver")
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q (allowed: memory, sqlite, postgres)", cfg.StoreDriver)
	}

	cfg.DBMaxOpenConns = defaultMaxOpenConns(cfg.StoreDriver)
	if v := strings.TrimSpace(f.Store.MaxOpenConns); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q", v)
		}
		cfg.DBMaxOpenConns = n
	}

	if cfg.Port == "" {
		return nil, fmt.Errorf("PORT must not be empty")
	}

	return cfg, nil
}

func defaultMaxOpenConns(driver string) int {
	if driver == "postgres" {
		return 10
	}
	return 1
}

func parsePositiveDuration(key, s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", key, d)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
