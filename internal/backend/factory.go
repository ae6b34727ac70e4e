package backend

import (
	"context"
	"fmt"

	"rewards/internal/adapters"
	gledger "rewards/internal/ledger/google"
	"rewards/internal/ledger/memory"
	"rewards/internal/log"
	"rewards/internal/metrics"
	"rewards/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewFactory creates a new backend factory. Both arguments may be nil.
func NewFactory(logger *log.Logger, m *metrics.Metrics) Factory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{
		logger:  logger.WithComponent(log.ComponentBackend),
		metrics: m,
	}
}

// CreateBackend builds the configured store and wraps its reader with
// adapters.InstrumentedReader.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case MemoryBackend:
		res, err = f.createMemoryBackend(config)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case PostgresBackend:
		res, err = f.createPostgresBackend(ctx, config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	res.Type = config.Type
	res.Reader = adapters.NewInstrumentedReader(res.Reader, config.Type.String(), config.StoreTimeout, f.metrics, f.logger)
	return res, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed data: %w", err)
	}

	source := config.SeedFile
	if source == "" {
		source = "built-in"
	}
	f.logger.Info("Initialized memory backend", "seed", source, "transactions", store.Len())

	return &BackendResult{Reader: store, Writer: store}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Reader:  repo,
		Writer:  repo,
		Ping:    repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if config.Migrate {
		if err := storage.RunPostgresMigrations(config.DatabaseURL); err != nil {
			return nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
	}

	repo, err := storage.NewPostgresRepository(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}

	f.logger.Info("Initialized Postgres backend", "migrated", config.Migrate)

	return &BackendResult{
		Reader: repo,
		Writer: repo,
		Ping:   repo.Ping,
		Cleanup: func() error {
			repo.Close()
			return nil
		},
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gledger.New(ctx, gledger.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		SheetName:          config.GoogleSheetName,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)

	return &BackendResult{Reader: cli, Ping: cli.Ping}, nil
}
