package backend

import (
	"context"
	"fmt"

	"kharcha/internal/log"
	"kharcha/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		return f.createFileBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) (*BackendResult, error) {
	docs, err := storage.NewFileStore(config.DataFile, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger file: %w", err)
	}
	users, err := storage.NewFileUserStore(config.UserFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize user file: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized file backend",
		log.FieldBackend, config.Type,
		"data_file", config.DataFile,
		"user_file", config.UserFile)

	return &BackendResult{Ledger: docs, Users: users}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		log.FieldBackend, config.Type,
		"db_path", config.SQLiteDBPath)

	return &BackendResult{
		Ledger:  store,
		Users:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := storage.NewMemoryStoreFromFiles(dataDir)

	f.logger.InfoContext(ctx, "Initialized memory backend",
		log.FieldBackend, config.Type,
		"data_directory", dataDir)

	return &BackendResult{Ledger: store, Users: store}, nil
}
