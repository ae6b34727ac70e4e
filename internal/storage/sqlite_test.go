package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewards/internal/core"
	"rewards/internal/ledger"
)

func newTestSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "rewards.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteInsertAndQuery(t *testing.T) {
	repo := newTestSQLite(t)
	ctx := context.Background()

	n, err := repo.Insert(ctx, ledger.DefaultSeed())
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	all, err := repo.AllForCustomer(ctx, "cust001")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	for _, tx := range all {
		if tx.ID == "TXN1001" {
			assert.True(t, tx.Amount.Equal(decimal.NewFromInt(120)))
			assert.Equal(t, "2024-04-15", tx.Date.String())
			assert.Equal(t, "Murali Krishna", tx.CustomerName)
		}
	}

	none, err := repo.AllForCustomer(ctx, "CUST999")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = repo.Insert(ctx, []core.Transaction{
		{ID: "TXN9001", CustomerID: "ÉLODIE", CustomerName: "Élodie", Amount: decimal.NewFromInt(75), Date: core.NewDate(2024, 3, 2)},
	})
	require.NoError(t, err)

	accented, err := repo.AllForCustomer(ctx, "élodie")
	require.NoError(t, err)
	require.Len(t, accented, 1, "non-ASCII ids match case-insensitively")
	assert.Equal(t, "ÉLODIE", accented[0].CustomerID, "stored id is kept as written")

	accented, err = repo.ForCustomerInRange(ctx, " Élodie ", core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31))
	require.NoError(t, err)
	assert.Len(t, accented, 1)
}

func TestSQLiteKeepsAmountPrecision(t *testing.T) {
	repo := newTestSQLite(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, []core.Transaction{
		{ID: "T1", CustomerID: "C", CustomerName: "N", Amount: decimal.RequireFromString("50.999"), Date: core.NewDate(2024, 1, 1)},
	})
	require.NoError(t, err)

	got, err := repo.AllForCustomer(ctx, "C")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "50.999", got[0].Amount.String())
}

func TestSQLiteRangeBounds(t *testing.T) {
	repo := newTestSQLite(t)
	ctx := context.Background()
	_, err := repo.Insert(ctx, ledger.DefaultSeed())
	require.NoError(t, err)

	tests := []struct {
		name     string
		from, to core.Date
		want     int
	}{
		{"inclusive both", core.NewDate(2024, 4, 15), core.NewDate(2024, 5, 10), 3},
		{"from only", core.NewDate(2024, 6, 1), core.Date{}, 2},
		{"to only", core.Date{}, core.NewDate(2024, 4, 30), 2},
		{"open", core.Date{}, core.Date{}, 5},
		{"empty", core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ForCustomerInRange(ctx, "CUST001", tt.from, tt.to)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestSQLiteInsertRollsBackOnDuplicate(t *testing.T) {
	repo := newTestSQLite(t)
	ctx := context.Background()

	tx := core.Transaction{ID: "T1", CustomerID: "C", CustomerName: "N", Amount: decimal.RequireFromString("10.55"), Date: core.NewDate(2024, 1, 1)}
	other := tx
	other.ID = "T2"

	_, err := repo.Insert(ctx, []core.Transaction{tx})
	require.NoError(t, err)

	_, err = repo.Insert(ctx, []core.Transaction{other, tx})
	require.ErrorIs(t, err, ledger.ErrDuplicateTransaction)

	got, err := repo.AllForCustomer(ctx, "C")
	require.NoError(t, err)
	require.Len(t, got, 1, "batch must be rolled back")
	assert.Equal(t, "10.55", got[0].Amount.String())
}

func TestSQLiteInsertValidates(t *testing.T) {
	repo := newTestSQLite(t)
	_, err := repo.Insert(context.Background(), []core.Transaction{{ID: "T1"}})
	assert.ErrorIs(t, err, core.ErrMissingCustomerID)
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewards.db")
	require.NoError(t, RunSQLiteMigrations(path))
	require.NoError(t, RunSQLiteMigrations(path))
}

func TestPgxMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db?sslmode=disable", pgxMigrateURL("postgres://u:p@h:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://h/db", pgxMigrateURL("postgresql://h/db"))
	assert.Equal(t, "pgx5://h/db", pgxMigrateURL("pgx5://h/db"))
}
