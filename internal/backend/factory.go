package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tracepay/internal/kv"
	kvbolt "tracepay/internal/kv/bolt"
	"tracepay/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case BoltBackend:
		return f.createBoltBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	if err := ensureDir(config.SQLiteDBPath); err != nil {
		return nil, err
	}

	version, err := storage.RunMigrations(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"schema_version", version)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createBoltBackend(config Config) (*BackendResult, error) {
	if err := ensureDir(config.BoltDBPath); err != nil {
		return nil, err
	}

	store, err := kvbolt.Open(config.BoltDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	f.logger.Info("Initialized bolt backend", "db_path", config.BoltDBPath)

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Store: kv.NewMemory(),
	}, nil
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return nil
}
