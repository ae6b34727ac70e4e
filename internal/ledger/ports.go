// Package ledger declares the outbound ports that give the reward services
// access to recorded purchase transactions.
package ledger

import (
	"context"
	"errors"

	"rewards/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionReader is the read side every backend implements.
	// Customer ids match case-insensitively; results carry no ordering guarantee.
	TransactionReader interface {
		AllForCustomer(ctx context.Context, customerID string) ([]core.Transaction, error)
		// ForCustomerInRange filters by inclusive bounds. A zero bound leaves
		// that side open.
		ForCustomerInRange(ctx context.Context, customerID string, from, to core.Date) ([]core.Transaction, error)
	}

	// TransactionWriter loads transactions into a backend. Only operator
	// tooling writes; the service itself never does.
	TransactionWriter interface {
		Insert(ctx context.Context, txns []core.Transaction) (int, error)
	}
)

var ErrDuplicateTransaction = errors.New("duplicate transaction id")
