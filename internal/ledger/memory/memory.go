package memory

import (
	"context"
	"fmt"
	"sync"

	"rewards/internal/core"
	"rewards/internal/ledger"
)

// Store keeps transactions in process memory. Reads take a shared lock so
// any number of requests can run against it concurrently.
type Store struct {
	mu    sync.RWMutex
	ids   map[string]struct{}
	items []core.Transaction
}

var (
	_ ledger.TransactionReader = (*Store)(nil)
	_ ledger.TransactionWriter = (*Store)(nil)
)

// New copies txns into a fresh store. Duplicate ids keep the first occurrence.
func New(txns []core.Transaction) *Store {
	s := &Store{ids: make(map[string]struct{}, len(txns))}
	for _, tx := range txns {
		if _, ok := s.ids[tx.ID]; ok {
			continue
		}
		s.ids[tx.ID] = struct{}{}
		s.items = append(s.items, tx)
	}
	return s
}

// NewFromFile seeds the store from a YAML file, or from the built-in sample
// data when path is empty.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(ledger.DefaultSeed()), nil
	}
	txns, err := ledger.ReadSeedFile(path)
	if err != nil {
		return nil, err
	}
	return New(txns), nil
}

func (s *Store) AllForCustomer(ctx context.Context, customerID string) ([]core.Transaction, error) {
	return s.ForCustomerInRange(ctx, customerID, core.Date{}, core.Date{})
}

func (s *Store) ForCustomerInRange(ctx context.Context, customerID string, from, to core.Date) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rng := core.DateRange{From: from, To: to}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, tx := range s.items {
		if core.SameCustomer(tx.CustomerID, customerID) && rng.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Insert validates every transaction before storing any of them.
func (s *Store) Insert(ctx context.Context, txns []core.Transaction) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	for _, tx := range txns {
		if err := tx.Validate(); err != nil {
			return 0, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make(map[string]struct{}, len(txns))
	for _, tx := range txns {
		_, stored := s.ids[tx.ID]
		_, queued := batch[tx.ID]
		if stored || queued {
			return 0, fmt.Errorf("%w: %s", ledger.ErrDuplicateTransaction, tx.ID)
		}
		batch[tx.ID] = struct{}{}
	}
	for _, tx := range txns {
		s.ids[tx.ID] = struct{}{}
		s.items = append(s.items, tx)
	}
	return len(txns), nil
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
