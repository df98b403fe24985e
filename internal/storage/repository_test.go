package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tracepay/internal/kv"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "tracepay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, repo.Set(ctx, "a", "1"))
	require.NoError(t, repo.Set(ctx, "a", "2"))
	v, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "2", v)

	require.NoError(t, repo.Remove(ctx, "a"))
	_, err = repo.Get(ctx, "a")
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func TestSQLiteRepositoryKeys(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, k := range []string{"tp_b", "tp_a", "x_tp"} {
		require.NoError(t, repo.Set(ctx, k, "v"))
	}

	keys, err := repo.Keys(ctx, "tp_")
	require.NoError(t, err)
	require.Equal(t, []string{"tp_a", "tp_b"}, keys)

	all, err := repo.Keys(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestSQLiteRepositorySetStampsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	fixed := time.UnixMilli(1_700_000_000_000)
	repo.now = func() time.Time { return fixed }

	require.NoError(t, repo.Set(ctx, "k", "v"))
	var ms int64
	require.NoError(t, repo.db.QueryRowContext(ctx, `SELECT updated_at FROM kv_entries WHERE key = ?`, "k").Scan(&ms))
	require.Equal(t, fixed.UnixMilli(), ms)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := RunMigrations(path)
	require.NoError(t, err)
	v2, err := RunMigrations(path)
	require.NoError(t, err)
	require.Equal(t, v1, v2)
	require.Equal(t, uint(2), v2)
}
