package weather_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-analyzer/internal/store"
	"github.com/i474232898/weather-analyzer/internal/weather"
)

type fakeProvider struct {
	raw []byte
	err error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) FetchRaw(context.Context) ([]byte, error) {
	return p.raw, p.err
}

func sample(day, hour int, temp float32) weather.Record {
	return weather.Record{
		Temperature: temp,
		Wind:        10,
		Pressure:    1010,
		Humidity:    60,
		Location:    "Minsk",
		Timestamp:   time.Date(2023, 12, day, hour, 0, 0, 0, time.UTC),
	}
}

func newTestService(p weather.Provider) *weather.Service {
	return weather.NewService(store.NewMemoryStore(), p, nil)
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)

	rec := sample(4, 12, 25)
	rec.ID = 42 // ignored

	stored, err := svc.Submit(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ID)

	got, err := svc.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	t.Run("duplicate is rejected without a write", func(t *testing.T) {
		dup := sample(4, 12, 99)
		_, err := svc.Submit(ctx, dup)
		assert.ErrorIs(t, err, weather.ErrDuplicate)

		all, err := svc.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, float32(25), all[0].Temperature)
	})

	t.Run("same timestamp at another location is stored", func(t *testing.T) {
		other := sample(4, 12, 20)
		other.Location = "Brest"
		stored, err := svc.Submit(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stored.ID)
	})
}

func TestService_ConcurrentSubmitStoresOnce(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)

	const n = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(ctx, sample(4, 12, 25))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, weather.ErrDuplicate):
				dups++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dups)
}

func TestService_GetByIDAndLatest(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)

	_, err := svc.GetByID(ctx, 1)
	assert.ErrorIs(t, err, weather.ErrNotFound)
	_, err = svc.GetLatest(ctx)
	assert.ErrorIs(t, err, weather.ErrNotFound)

	_, err = svc.Submit(ctx, sample(5, 12, 1))
	require.NoError(t, err)
	second, err := svc.Submit(ctx, sample(4, 12, 2))
	require.NoError(t, err)

	// Latest follows insertion, not the observation time.
	latest, err := svc.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, latest)
}

func TestService_Averages(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)

	for _, r := range []weather.Record{
		{Temperature: 22, Wind: 8, Pressure: 1005, Humidity: 60, Location: "Minsk", Timestamp: time.Date(2023, 12, 4, 0, 0, 0, 0, time.UTC)},
		{Temperature: 25, Wind: 10, Pressure: 1010, Humidity: 65, Location: "Minsk", Timestamp: time.Date(2023, 12, 4, 23, 59, 0, 0, time.UTC)},
		{Temperature: 100, Wind: 100, Pressure: 100, Humidity: 100, Location: "Minsk", Timestamp: time.Date(2023, 12, 5, 0, 0, 0, 0, time.UTC)},
	} {
		_, err := svc.Submit(ctx, r)
		require.NoError(t, err)
	}

	want := weather.Average{Temperature: 23.5, Wind: 9, Pressure: 1007.5, Humidity: 62.5}
	day := time.Date(2023, 12, 4, 0, 0, 0, 0, time.UTC)

	byDate, err := svc.GetInDateRange(ctx, day, day)
	require.NoError(t, err)
	assert.Equal(t, want, byDate)

	byTimestamp, err := svc.GetInTimestampRange(ctx, weather.StartOfDay(day), weather.EndOfDay(day))
	require.NoError(t, err)
	assert.Equal(t, byDate, byTimestamp)

	empty, err := svc.GetInDateRange(ctx, day.AddDate(0, 0, 10), day.AddDate(0, 0, 11))
	require.NoError(t, err)
	assert.Equal(t, weather.Average{}, empty)

	inverted, err := svc.GetInTimestampRange(ctx, weather.EndOfDay(day), weather.StartOfDay(day))
	require.NoError(t, err)
	assert.Equal(t, weather.Average{}, inverted)
}

func TestService_FetchAndStore(t *testing.T) {
	ctx := context.Background()
	payload := []byte(`{"location":{"name":"Minsk"},"current":{"last_updated":"2023-12-04 12:30","temp_c":-3,"wind_kph":14.4,"pressure_mb":1012,"humidity":87}}`)

	t.Run("stores the normalized record", func(t *testing.T) {
		svc := newTestService(&fakeProvider{raw: payload})

		rec, err := svc.FetchAndStore(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rec.ID)
		assert.Equal(t, "Minsk", rec.Location)
		assert.Equal(t, time.Date(2023, 12, 4, 12, 30, 0, 0, time.UTC), rec.Timestamp)

		_, err = svc.FetchAndStore(ctx)
		assert.ErrorIs(t, err, weather.ErrDuplicate)
	})

	t.Run("transport error is passed through", func(t *testing.T) {
		svc := newTestService(&fakeProvider{err: &weather.TransportError{Op: "fetch", StatusCode: 503, Err: errors.New("unavailable")}})

		_, err := svc.FetchAndStore(ctx)
		var te *weather.TransportError
		assert.True(t, errors.As(err, &te))

		all, err := svc.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("parse error writes nothing", func(t *testing.T) {
		svc := newTestService(&fakeProvider{raw: []byte(`{"location":{"name":"Minsk"}}`)})

		_, err := svc.FetchAndStore(ctx)
		var pe *weather.ParseError
		assert.True(t, errors.As(err, &pe))

		all, err := svc.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("no provider", func(t *testing.T) {
		_, err := newTestService(nil).FetchAndStore(ctx)
		assert.Error(t, err)
	})
}
