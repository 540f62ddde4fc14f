package store

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
// Records are kept in insertion order, so the slice is also ordered by id.
type MemoryStore struct {
	mu sync.RWMutex

	records []weather.Record
	// key: weather.Record.Key(), value: index into records
	byKey  map[string]int
	nextID int64
}

var _ weather.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey:  make(map[string]int),
		nextID: 1,
	}
}

// Insert assigns the next id and appends the record. The uniqueness check happens under
// the write lock, so two concurrent inserts of the same key cannot both succeed.
func (s *MemoryStore) Insert(_ context.Context, rec weather.Record) (weather.Record, error) {
	rec.Timestamp = weather.Naive(rec.Timestamp)
	key := rec.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byKey[key]; ok {
		return weather.Record{}, weather.ErrDuplicate
	}

	rec.ID = s.nextID
	s.nextID++
	s.byKey[key] = len(s.records)
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// ids are dense and start at 1 in this store.
	i := id - 1
	if i < 0 || i >= int64(len(s.records)) {
		return weather.Record{}, weather.ErrNotFound
	}
	return s.records[i], nil
}

func (s *MemoryStore) FindAll(_ context.Context) ([]weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) FindLatest(_ context.Context) (weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return weather.Record{}, weather.ErrNotFound
	}
	return s.records[len(s.records)-1], nil
}

// FindByTimestampRange returns all records between start and end (inclusive).
func (s *MemoryStore) FindByTimestampRange(_ context.Context, start, end time.Time) ([]weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.Record
	for _, rec := range s.records {
		if !rec.Timestamp.Before(start) && !rec.Timestamp.After(end) {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (s *MemoryStore) FindByLocationAndTimestamp(_ context.Context, location string, ts time.Time) (weather.Record, error) {
	key := weather.Record{Location: location, Timestamp: weather.Naive(ts)}.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byKey[key]
	if !ok {
		return weather.Record{}, weather.ErrNotFound
	}
	return s.records[i], nil
}
