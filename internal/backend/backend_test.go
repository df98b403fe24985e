package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracepay/internal/config"
	"tracepay/internal/kv"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  Config
	}{
		{"memory", Config{Type: MemoryBackend}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "nested", "kv.db")}},
		{"bolt", Config{Type: BoltBackend, BoltDBPath: filepath.Join(dir, "kv.bolt")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			res, err := NewFactory(quietLogger()).CreateBackend(ctx, tt.cfg)
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, res.Close()) })

			require.NoError(t, res.Store.Set(ctx, "k", "v"))
			got, err := res.Store.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", got)

			require.NoError(t, res.Store.Remove(ctx, "k"))
			_, err = res.Store.Get(ctx, "k")
			assert.ErrorIs(t, err, kv.ErrNotFound)
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	_, err := f.CreateBackend(ctx, Config{Type: "sheets"})
	assert.ErrorContains(t, err, "invalid backend type")

	_, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend})
	assert.ErrorContains(t, err, "SQLite database path is required")

	_, err = f.CreateBackend(ctx, Config{Type: BoltBackend})
	assert.ErrorContains(t, err, "bolt database path is required")
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  config.BackendBolt,
		SQLiteDBPath: "a.db",
		BoltDBPath:   "b.bolt",
	})
	require.NoError(t, err)
	assert.Equal(t, Config{Type: BoltBackend, SQLiteDBPath: "a.db", BoltDBPath: "b.bolt"}, cfg)
}

func TestBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"memory", "sqlite", "bolt"}, GetBackendTypeStrings())
	var nilResult *BackendResult
	assert.NoError(t, nilResult.Close())
}
