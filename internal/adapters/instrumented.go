package adapters

import (
	"context"
	"time"

	"rewards/internal/core"
	"rewards/internal/ledger"
	"rewards/internal/log"
	"rewards/internal/metrics"
)

const (
	opAllForCustomer = "all_for_customer"
	opInRange        = "in_range"
)

// InstrumentedReader decorates a TransactionReader with a per-query timeout,
// store metrics and debug logging. It lets every backend be observed the same
// way without the backends knowing about it.
type InstrumentedReader struct {
	next    ledger.TransactionReader
	backend string
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *log.Logger
}

var _ ledger.TransactionReader = (*InstrumentedReader)(nil)

// NewInstrumentedReader wraps next. A zero timeout leaves the caller's deadline alone.
func NewInstrumentedReader(next ledger.TransactionReader, backend string, timeout time.Duration, m *metrics.Metrics, logger *log.Logger) *InstrumentedReader {
	if logger == nil {
		logger = log.Nop()
	}
	return &InstrumentedReader{
		next:    next,
		backend: backend,
		timeout: timeout,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentLedger),
	}
}

func (r *InstrumentedReader) AllForCustomer(ctx context.Context, customerID string) ([]core.Transaction, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	txns, err := r.next.AllForCustomer(ctx, customerID)
	r.observe(ctx, opAllForCustomer, customerID, start, len(txns), err)
	return txns, err
}

func (r *InstrumentedReader) ForCustomerInRange(ctx context.Context, customerID string, from, to core.Date) ([]core.Transaction, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	txns, err := r.next.ForCustomerInRange(ctx, customerID, from, to)
	r.observe(ctx, opInRange, customerID, start, len(txns), err)
	return txns, err
}

// Unwrap returns the decorated reader.
func (r *InstrumentedReader) Unwrap() ledger.TransactionReader {
	return r.next
}

func (r *InstrumentedReader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *InstrumentedReader) observe(ctx context.Context, op, customerID string, start time.Time, rows int, err error) {
	elapsed := time.Since(start)
	r.metrics.RecordStoreQuery(r.backend, op, elapsed.Seconds(), err)

	fields := log.NewFields().
		WithCustomer(customerID).
		WithOperation(op)
	fields[log.FieldBackend] = r.backend
	fields[log.FieldDuration] = elapsed.Milliseconds()

	if err != nil {
		r.logger.WarnContext(ctx, "Transaction store query failed", fields.WithError(err).WithErrorType(log.ErrorTypeDatabase).ToSlice()...)
		return
	}
	fields[log.FieldTransactionCount] = rows
	r.logger.DebugContext(ctx, "Transaction store query", fields.ToSlice()...)
}
