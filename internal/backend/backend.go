package backend

import (
	"context"
	"time"

	"rewards/internal/ledger"
)

// BackendType names a transaction store implementation.
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	SheetsBackend   BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// Writable reports whether the backend accepts imports.
func (bt BackendType) Writable() bool {
	return bt == MemoryBackend || bt == SQLiteBackend || bt == PostgresBackend
}

// CleanupFunc releases whatever the backend opened.
type CleanupFunc func() error

// BackendResult carries the reader the services use, the writer when the
// backend supports one, and a cleanup hook that is always safe to call.
type BackendResult struct {
	Type   BackendType
	Reader ledger.TransactionReader
	Writer ledger.TransactionWriter
	// Ping checks connectivity for readiness probes. Nil means always ready.
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	StoreTimeout time.Duration

	// Memory
	SeedFile string

	// SQLite
	SQLiteDBPath string

	// Postgres
	DatabaseURL string
	// Migrate runs schema migrations before the Postgres pool is opened.
	Migrate bool

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}
