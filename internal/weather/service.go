package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Service owns the write path (deduplicated submit), the ingestion pipeline and the
// history queries over a Store.
type Service struct {
	store    Store
	provider Provider
	logger   *slog.Logger
}

// NewService creates a new Service. provider may be nil when ingestion is disabled.
func NewService(store Store, provider Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		provider: provider,
		logger:   logger,
	}
}

// FetchAndStore runs one ingestion pipeline: fetch the provider payload, normalize it
// and submit the resulting record. Errors keep their type (*TransportError,
// *ParseError, ErrDuplicate) so the caller can classify them.
func (s *Service) FetchAndStore(ctx context.Context) (Record, error) {
	if s.provider == nil {
		return Record{}, errors.New("no weather provider configured")
	}

	raw, err := s.provider.FetchRaw(ctx)
	if err != nil {
		return Record{}, err
	}
	s.logger.Debug("provider payload received", "provider", s.provider.Name(), "payload", string(raw))

	rec, err := ParseCurrent(raw)
	if err != nil {
		return Record{}, err
	}

	return s.Submit(ctx, rec)
}

// Submit stores rec unless a record with the same location and timestamp exists, in
// which case ErrDuplicate is returned and nothing is written. Any id on rec is ignored.
func (s *Service) Submit(ctx context.Context, rec Record) (Record, error) {
	rec.ID = 0
	rec.Timestamp = Naive(rec.Timestamp)

	_, err := s.store.FindByLocationAndTimestamp(ctx, rec.Location, rec.Timestamp)
	switch {
	case err == nil:
		s.logDuplicate(rec)
		return Record{}, ErrDuplicate
	case !errors.Is(err, ErrNotFound):
		return Record{}, fmt.Errorf("check existing record: %w", err)
	}

	// A concurrent writer may have inserted the same key since the lookup; the store's
	// uniqueness constraint turns that into ErrDuplicate.
	stored, err := s.store.Insert(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			s.logDuplicate(rec)
			return Record{}, ErrDuplicate
		}
		return Record{}, fmt.Errorf("insert record: %w", err)
	}

	s.logger.Info("weather record added",
		"id", stored.ID,
		"location", stored.Location,
		"timestamp", stored.Timestamp.Format(LocalDateTimeLayout),
	)
	return stored, nil
}

func (s *Service) logDuplicate(rec Record) {
	s.logger.Warn("duplicate weather record rejected",
		"location", rec.Location,
		"timestamp", rec.Timestamp.Format(LocalDateTimeLayout),
	)
}

// GetByID returns the record with the given id or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id int64) (Record, error) {
	return s.store.FindByID(ctx, id)
}

// GetAll returns every stored record.
func (s *Service) GetAll(ctx context.Context) ([]Record, error) {
	return s.store.FindAll(ctx)
}

// GetLatest returns the most recently inserted record (highest id), which is not
// necessarily the one with the latest timestamp.
func (s *Service) GetLatest(ctx context.Context) (Record, error) {
	return s.store.FindLatest(ctx)
}

// GetInTimestampRange averages the records whose timestamp lies in [start, end].
func (s *Service) GetInTimestampRange(ctx context.Context, start, end time.Time) (Average, error) {
	records, err := s.store.FindByTimestampRange(ctx, Naive(start), Naive(end))
	if err != nil {
		return Average{}, err
	}
	return Aggregate(records), nil
}

// GetInDateRange averages the records from the start of startDate to the last
// nanosecond of endDate.
func (s *Service) GetInDateRange(ctx context.Context, startDate, endDate time.Time) (Average, error) {
	return s.GetInTimestampRange(ctx, StartOfDay(startDate), EndOfDay(endDate))
}
