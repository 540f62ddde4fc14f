package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

// Ingester runs one fetch-normalize-store pipeline. *weather.Service implements it.
type Ingester interface {
	FetchAndStore(ctx context.Context) (weather.Record, error)
}

// Outcome describes how a single ingestion cycle ended.
type Outcome int

const (
	OutcomeStored Outcome = iota
	OutcomeDuplicate
	OutcomeSkipped
	OutcomeTransportError
	OutcomeParseError
	OutcomeInternalError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStored:
		return "stored"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeParseError:
		return "parse_error"
	case OutcomeInternalError:
		return "internal_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Scheduler triggers an ingestion cycle at a fixed rate. At most one cycle runs at a
// time; a tick that finds one in progress is skipped.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	ingester     Ingester
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *slog.Logger

	running *atomic.Bool
	skipped *atomic.Int64
}

// New creates a new Scheduler.
func New(interval, cycleTimeout time.Duration, ingester Ingester, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	// No singleton mode: gocron would queue overlapping runs. The running gate
	// drops them instead.
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:    s,
		ingester:     ingester,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		logger:       logger.With("component", "scheduler"),
		running:      atomic.NewBool(false),
		skipped:      atomic.NewInt64(0),
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The first
// cycle runs immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("invalid fetch interval %s", s.interval)
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		_, _ = s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule ingestion job: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", s.interval.String())
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
		s.logger.Info("scheduler stopped")
	}
}

// Skipped returns how many ticks were dropped because a cycle was still running.
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}

// RunOnce runs a single gated cycle bounded by the cycle timeout and reports how it
// ended. The returned error is nil for stored, duplicate and skipped cycles.
func (s *Scheduler) RunOnce(ctx context.Context) (Outcome, error) {
	if !s.running.CAS(false, true) {
		s.skipped.Inc()
		s.logger.Debug("previous ingestion cycle still running; tick skipped")
		return OutcomeSkipped, nil
	}
	defer s.running.Store(false)

	cycleID := uuid.NewString()
	log := s.logger.With("cycle_id", cycleID)

	if s.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cycleTimeout)
		defer cancel()
	}

	start := time.Now()
	outcome, err := s.runCycle(ctx)
	elapsed := time.Since(start)

	switch outcome {
	case OutcomeStored:
		log.Debug("ingestion cycle completed", "duration", elapsed)
	case OutcomeDuplicate:
		log.Info("ingestion cycle found an already stored record", "duration", elapsed)
		return outcome, nil
	case OutcomeTransportError:
		log.Error("weather provider call failed", "error", err, "duration", elapsed)
	case OutcomeParseError:
		log.Error("weather provider payload rejected", "error", err, "duration", elapsed)
	default:
		log.Error("ingestion cycle failed with internal error", "error", err, "duration", elapsed)
	}
	return outcome, err
}

func (s *Scheduler) runCycle(ctx context.Context) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeInternalError
			err = fmt.Errorf("panic in ingestion cycle: %v", r)
		}
	}()

	_, err = s.ingester.FetchAndStore(ctx)
	return classify(err), err
}

func classify(err error) Outcome {
	var (
		te *weather.TransportError
		pe *weather.ParseError
	)
	switch {
	case err == nil:
		return OutcomeStored
	case errors.Is(err, weather.ErrDuplicate):
		return OutcomeDuplicate
	case errors.As(err, &te):
		return OutcomeTransportError
	case errors.As(err, &pe):
		return OutcomeParseError
	default:
		return OutcomeInternalError
	}
}
