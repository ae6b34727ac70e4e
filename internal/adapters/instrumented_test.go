package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewards/internal/core"
	"rewards/internal/ledger"
	"rewards/internal/ledger/memory"
	"rewards/internal/metrics"
)

type slowReader struct {
	ledger.TransactionReader
}

func (slowReader) AllForCustomer(ctx context.Context, _ string) ([]core.Transaction, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestInstrumentedReaderDelegates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	r := NewInstrumentedReader(memory.New(ledger.DefaultSeed()), "memory", time.Second, m, nil)
	ctx := context.Background()

	all, err := r.AllForCustomer(ctx, "CUST003")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	some, err := r.ForCustomerInRange(ctx, "CUST003", core.NewDate(2024, 5, 1), core.Date{})
	require.NoError(t, err)
	assert.Len(t, some, 1)

	n, err := testutil.GatherAndCount(reg, "store_queries_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per operation")
}

func TestInstrumentedReaderAppliesTimeout(t *testing.T) {
	r := NewInstrumentedReader(slowReader{}, "slow", 20*time.Millisecond, nil, nil)

	_, err := r.AllForCustomer(context.Background(), "CUST001")
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestInstrumentedReaderUnwrap(t *testing.T) {
	inner := memory.New(nil)
	r := NewInstrumentedReader(inner, "memory", 0, nil, nil)
	assert.Same(t, inner, r.Unwrap())
}
