package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rewards/internal/core"
	"rewards/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores transactions in an embedded SQLite file.
// Amounts are kept as decimal text and dates as YYYY-MM-DD, so range filters
// compare lexically. Customers match on customer_key (core.CustomerKey).
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ledger.TransactionReader = (*SQLiteRepository)(nil)
	_ ledger.TransactionWriter = (*SQLiteRepository)(nil)
)

const selectTransactions = `SELECT id, customer_id, customer_name, amount, txn_date FROM transactions`

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) AllForCustomer(ctx context.Context, customerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransactions+` WHERE customer_key = ?`, core.CustomerKey(customerID))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return scanSQLiteRows(rows)
}

func (r *SQLiteRepository) ForCustomerInRange(ctx context.Context, customerID string, from, to core.Date) ([]core.Transaction, error) {
	fromStr, toStr := from.String(), to.String()
	rows, err := r.db.QueryContext(ctx, selectTransactions+`
		WHERE customer_key = ?
		  AND (? = '' OR txn_date >= ?)
		  AND (? = '' OR txn_date <= ?)`,
		core.CustomerKey(customerID), fromStr, fromStr, toStr, toStr)
	if err != nil {
		return nil, fmt.Errorf("query transactions in range: %w", err)
	}
	return scanSQLiteRows(rows)
}

// Insert writes all transactions in one database transaction. Any failure,
// including a duplicate id, rolls the whole batch back.
func (r *SQLiteRepository) Insert(ctx context.Context, txns []core.Transaction) (int, error) {
	for _, t := range txns {
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions (id, customer_id, customer_key, customer_name, amount, txn_date) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txns {
		if _, err := stmt.ExecContext(ctx, t.ID, t.CustomerID, core.CustomerKey(t.CustomerID), t.CustomerName, t.Amount.String(), t.Date.String()); err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("%w: %s", ledger.ErrDuplicateTransaction, t.ID)
			}
			return 0, fmt.Errorf("insert %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(txns), nil
}

func scanSQLiteRows(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t              core.Transaction
			amount, dateOn string
		)
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.CustomerName, &amount, &dateOn); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		a, err := core.ParseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %s amount %q: %w", t.ID, amount, err)
		}
		d, err := core.ParseDate(dateOn)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		t.Amount, t.Date = a, d
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		// SQLITE_CONSTRAINT_PRIMARYKEY, SQLITE_CONSTRAINT_UNIQUE
		return coded.Code() == 1555 || coded.Code() == 2067
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
