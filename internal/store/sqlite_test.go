package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "weather.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close sqlite: %v", err)
		}
	})
	return s
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) weather.Store {
		return openTestSQLite(t)
	})
}

func TestSQLiteStore_ReopenKeepsDataAndIDs(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "weather.db")

	s, err := OpenSQLite(path, 1)
	require.NoError(t, err)
	first, err := s.Insert(ctx, minsk(at(4, 12, 30), 25))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path, 1)
	require.NoError(t, err)
	defer func() {
		if err := s.Close(); err != nil {
			t.Errorf("close sqlite: %v", err)
		}
	}()

	got, err := s.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second, err := s.Insert(ctx, minsk(at(4, 12, 45), 22))
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestSQLiteStore_InMemory(t *testing.T) {
	s, err := OpenSQLite(":memory:", 0)
	require.NoError(t, err)
	defer func() {
		if err := s.Close(); err != nil {
			t.Errorf("close sqlite: %v", err)
		}
	}()

	stored, err := s.Insert(context.Background(), minsk(at(4, 12, 30), 25))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ID)
}

func TestBuildSQLiteDSN(t *testing.T) {
	dir := t.TempDir()

	dsn, err := buildSQLiteDSN(filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	assert.Equal(t, "file:"+filepath.Join(dir, "a.db")+"?_busy_timeout=5000&_journal_mode=WAL", dsn)

	dsn, err = buildSQLiteDSN("file:" + filepath.Join(dir, "b.db") + "?mode=rwc")
	require.NoError(t, err)
	assert.Equal(t, "file:"+filepath.Join(dir, "b.db")+"?mode=rwc&_busy_timeout=5000&_journal_mode=WAL", dsn)
}
