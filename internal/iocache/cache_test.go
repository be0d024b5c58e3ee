package iocache

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/tagchurn/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
	t.Cleanup(CloseCaching)
}

func TestInitCaching(t *testing.T) {
	t.Run("sqlite stores", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		runsPath := filepath.Join(dir, "runs.db")

		require.NoError(t, InitCaching(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, runsPath))
		assert.NotNil(t, Manager.GetTagStore())
		assert.NotNil(t, Manager.GetRunStore())

		_, err := os.Stat(cachePath)
		assert.NoError(t, err, "cache database should be created")
		_, err = os.Stat(runsPath)
		assert.NoError(t, err, "runs database should be created")
	})

	t.Run("idempotent", func(t *testing.T) {
		resetGlobals(t)
		cachePath := filepath.Join(t.TempDir(), "cache.db")
		for range 3 {
			assert.NoError(t, InitCaching(schema.SQLiteBackend, cachePath, "", ""))
		}
		assert.Nil(t, Manager.GetRunStore(), "empty runs backend disables tracking")
		CloseCaching()
		CloseCaching()
	})

	t.Run("none backend", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitCaching(schema.NoneBackend, "", schema.NoneBackend, ""))
		store := Manager.GetTagStore()
		require.NotNil(t, store)
		_, _, _, err := store.Get("k")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("unsupported backend", func(t *testing.T) {
		resetGlobals(t)
		err := InitCaching("oracle", "", "", "")
		assert.Error(t, err)
		assert.Nil(t, Manager.GetTagStore())
	})
}

func TestSQLiteCacheStore(t *testing.T) {
	store, err := NewCacheStore("test_cache", schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, _, _, err = store.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	now := time.Now().Unix()
	require.NoError(t, store.Set("k1", []byte(`[{"name":"foo"}]`), 1, now-10))
	require.NoError(t, store.Set("k1", []byte(`[]`), 2, now))
	require.NoError(t, store.Set("k2", []byte(`[]`), 2, now-100))

	value, version, ts, err := store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), value)
	assert.Equal(t, 2, version)
	assert.Equal(t, now, ts)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, now, status.LastEntryTime.Unix())
	assert.Equal(t, now-100, status.OldestEntryTime.Unix())
	assert.Positive(t, status.TableSizeBytes)
}

func TestNoneCacheStore(t *testing.T) {
	store, err := NewCacheStore("test_cache", schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))
	_, _, _, err = store.Get("k")
	assert.Error(t, err)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad-name;", schema.SQLiteBackend, "")
	assert.Error(t, err)
	_, err = NewCacheStore("tag_cache", "oracle", "")
	assert.Error(t, err)
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"tag_cache", false},
		{"_private", false},
		{"table_123", false},
		{"", true},
		{"123table", true},
		{"table-name", true},
		{"tag_cache; DROP TABLE users", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableNameAndPlaceholders(t *testing.T) {
	assert.Equal(t, "`tag_cache`", quoteTableName("tag_cache", schema.MySQLBackend))
	assert.Equal(t, `"tag_cache"`, quoteTableName("tag_cache", schema.PostgreSQLBackend))
	assert.Equal(t, `"tag_cache"`, quoteTableName("tag_cache", schema.SQLiteBackend))

	assert.Equal(t, []string{"$1", "$2"}, placeholders(schema.PostgreSQLBackend, 2))
	assert.Equal(t, []string{"?", "?"}, placeholders(schema.MySQLBackend, 2))
}

func TestGetUpsertQuery(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		want    string
	}{
		{schema.SQLiteBackend, "INSERT OR REPLACE"},
		{schema.MySQLBackend, "ON DUPLICATE KEY UPDATE"},
		{schema.PostgreSQLBackend, "ON CONFLICT (cache_key)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			cs := &CacheStoreImpl{tableName: "tag_cache", backend: tt.backend}
			assert.Contains(t, cs.getUpsertQuery(), tt.want)
		})
	}
}

func TestClearCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewCacheStore(tagTable, schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ClearCache(schema.SQLiteBackend, path, ""), "missing file is not an error")
	assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	assert.Error(t, ClearRuns("oracle", "", ""))
}

func TestPrintCacheStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintCacheStatus(&buf, schema.CacheStatus{
		Backend:         "sqlite",
		Connected:       true,
		TotalEntries:    12345,
		LastEntryTime:   time.Now(),
		OldestEntryTime: time.Now().Add(-48 * time.Hour),
		TableSizeBytes:  2048,
	})
	out := buf.String()
	assert.Contains(t, out, "Total Entries: 12,345")
	assert.Contains(t, out, "Table Size: 2.0 KiB")
	assert.Contains(t, out, "2 days ago")

	buf.Reset()
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
	assert.NotContains(t, buf.String(), "Total Entries")
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	mgr := NewCacheStoreManager(&MockCacheStore{}, nil)
	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			assert.NotNil(t, mgr.GetTagStore())
			assert.Nil(t, mgr.GetRunStore())
		})
	}
	wg.Wait()
}
