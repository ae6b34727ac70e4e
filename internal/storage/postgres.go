package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rewards/internal/core"
	"rewards/internal/ledger"
)

// PostgresRepository reads and writes transactions through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var (
	_ ledger.TransactionReader = (*PostgresRepository)(nil)
	_ ledger.TransactionWriter = (*PostgresRepository)(nil)
)

const pgSelectTransactions = `SELECT id, customer_id, customer_name, amount::text, txn_date FROM transactions`

// NewPostgresRepository connects and verifies the pool. Schema migrations are
// a separate step (RunPostgresMigrations).
func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) AllForCustomer(ctx context.Context, customerID string) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, pgSelectTransactions+` WHERE customer_key = $1`, core.CustomerKey(customerID))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return collectPgRows(rows)
}

func (r *PostgresRepository) ForCustomerInRange(ctx context.Context, customerID string, from, to core.Date) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, pgSelectTransactions+`
		WHERE customer_key = $1
		  AND ($2::date IS NULL OR txn_date >= $2::date)
		  AND ($3::date IS NULL OR txn_date <= $3::date)`,
		core.CustomerKey(customerID), optionalDate(from), optionalDate(to))
	if err != nil {
		return nil, fmt.Errorf("query transactions in range: %w", err)
	}
	return collectPgRows(rows)
}

// Insert sends all rows as one batch inside a transaction.
func (r *PostgresRepository) Insert(ctx context.Context, txns []core.Transaction) (int, error) {
	for _, t := range txns {
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range txns {
		batch.Queue(`INSERT INTO transactions (id, customer_id, customer_key, customer_name, amount, txn_date)
			VALUES ($1, $2, $3, $4, $5::text::numeric, $6::date)`,
			t.ID, t.CustomerID, core.CustomerKey(t.CustomerID), t.CustomerName, t.Amount.String(), t.Date.Time)
	}

	results := tx.SendBatch(ctx, batch)
	for _, t := range txns {
		if _, err := results.Exec(); err != nil {
			results.Close()
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return 0, fmt.Errorf("%w: %s", ledger.ErrDuplicateTransaction, t.ID)
			}
			return 0, fmt.Errorf("insert %s: %w", t.ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(txns), nil
}

func optionalDate(d core.Date) *time.Time {
	if d.IsEmpty() {
		return nil
	}
	t := d.Time
	return &t
}

func collectPgRows(rows pgx.Rows) ([]core.Transaction, error) {
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t      core.Transaction
			amount string
			dateOn time.Time
		)
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.CustomerName, &amount, &dateOn); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		a, err := core.ParseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %s amount %q: %w", t.ID, amount, err)
		}
		t.Amount, t.Date = a, core.DateOf(dateOn)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
