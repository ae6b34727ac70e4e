package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"rewards/internal/core"
	"rewards/internal/ledger"
	"rewards/internal/log"
)

// RewardService computes reward summaries from the transaction store.
// It holds only read-only collaborators and is safe for concurrent use.
type RewardService struct {
	store  ledger.TransactionReader
	policy RewardPolicy
	events *log.StructuredLogger
}

// NewRewardService wires the aggregator. A nil policy falls back to
// DefaultPolicy and a nil logger discards events.
func NewRewardService(store ledger.TransactionReader, policy RewardPolicy, logger *log.Logger) *RewardService {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &RewardService{
		store:  store,
		policy: policy,
		events: log.NewStructuredLogger(logger.WithComponent(log.ComponentRewards)),
	}
}

// CalculateRewards returns the monthly and total points for customerID over rng.
//
// Errors:
//   - core.ErrMissingCustomerID for a blank id
//   - core.ErrInvalidRange when both bounds are set and from is after to
//   - core.ErrCustomerNotFound when nothing matches, either because the
//     customer is unknown or because no purchase falls inside rng
//   - any store failure, wrapped
func (s *RewardService) CalculateRewards(ctx context.Context, customerID string, rng core.DateRange) (core.RewardSummary, error) {
	customerID = strings.TrimSpace(customerID)
	from, to := rng.From.String(), rng.To.String()

	if customerID == "" {
		s.events.LogValidationFailed(ctx, customerID, from, to, core.ErrMissingCustomerID)
		return core.RewardSummary{}, core.ErrMissingCustomerID
	}
	if err := rng.Validate(); err != nil {
		s.events.LogValidationFailed(ctx, customerID, from, to, err)
		return core.RewardSummary{}, err
	}

	txns, err := s.candidates(ctx, customerID, rng)
	if err != nil {
		return core.RewardSummary{}, fmt.Errorf("load transactions for %s: %w", customerID, err)
	}
	if len(txns) == 0 {
		s.events.LogCustomerNotFound(ctx, customerID, from, to)
		return core.RewardSummary{}, s.notFound(ctx, customerID, rng)
	}

	txns = append([]core.Transaction(nil), txns...)
	sortChronologically(txns)
	monthly := s.bucketByMonth(txns)
	summary := AssembleSummary(customerID, rng, txns, monthly)

	s.events.LogRewardsCalculated(ctx, customerID, summary.From.String(), summary.To.String(),
		summary.Total, summary.Monthly.Len(), len(txns))
	return summary, nil
}

func (s *RewardService) candidates(ctx context.Context, customerID string, rng core.DateRange) ([]core.Transaction, error) {
	if rng.Open() {
		return s.store.AllForCustomer(ctx, customerID)
	}
	return s.store.ForCustomerInRange(ctx, customerID, rng.From, rng.To)
}

// notFound tells "unknown customer" apart from "nothing in this range" in the
// error text. Both match core.ErrCustomerNotFound.
func (s *RewardService) notFound(ctx context.Context, customerID string, rng core.DateRange) error {
	if !rng.Open() {
		all, err := s.store.AllForCustomer(ctx, customerID)
		if err != nil {
			return fmt.Errorf("load transactions for %s: %w", customerID, err)
		}
		if len(all) > 0 {
			return fmt.Errorf("%w: no transactions for customer %s in the requested period", core.ErrCustomerNotFound, customerID)
		}
	}
	return fmt.Errorf("%w: no customer found with ID: %s", core.ErrCustomerNotFound, customerID)
}

func (s *RewardService) bucketByMonth(txns []core.Transaction) core.MonthlyPoints {
	var monthly core.MonthlyPoints
	for _, tx := range txns {
		monthly.Add(tx.Date.MonthKey(), s.policy.Calculate(tx.Amount))
	}
	return monthly
}

// sortChronologically orders by date, then id, so output never depends on
// the order a backend returned rows in.
func sortChronologically(txns []core.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date.Time) {
			return txns[i].Date.Before(txns[j].Date.Time)
		}
		return txns[i].ID < txns[j].ID
	})
}
