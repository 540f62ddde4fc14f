package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-analyzer/internal/api/http"
	"github.com/i474232898/weather-analyzer/internal/config"
	"github.com/i474232898/weather-analyzer/internal/logging"
	"github.com/i474232898/weather-analyzer/internal/scheduler"
	"github.com/i474232898/weather-analyzer/internal/store"
	"github.com/i474232898/weather-analyzer/internal/weather"
	"github.com/i474232898/weather-analyzer/internal/weather/providers"
)

const appName = "weather-analyzer"

// Overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New(cfg, version, appName)
	slog.SetDefault(log)

	log.Info("starting",
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
		"store", cfg.StoreDriver,
	)

	recordStore, closeStore, err := store.Open(store.Options{
		Driver:       cfg.StoreDriver,
		SQLitePath:   cfg.SQLitePath,
		DatabaseURL:  cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("close store", "error", err)
		}
	}()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var provider weather.Provider
	if cfg.IngestionEnabled() {
		provider = providers.NewWeatherAPIClient(httpClient, cfg.WeatherAPIURL, cfg.WeatherAPIKey, cfg.WeatherAPIHost)
	}

	service := weather.NewService(recordStore, provider, log)

	// Scheduler that periodically fetches and stores data.
	if cfg.IngestionEnabled() {
		sched := scheduler.New(cfg.FetchInterval, cfg.CycleTimeout, service, log)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
	} else {
		log.Warn("WEATHER_API_KEY is not set; ingestion disabled, serving stored data only")
	}

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	httpapi.RegisterRoutes(app, service)

	listenErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", "port", cfg.Port)
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	return nil
}
