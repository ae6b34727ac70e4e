package services

import "rewards/internal/core"

// AssembleSummary packages aggregation results. txns must be non-empty and
// sorted chronologically.
//
// Bounds the caller supplied are echoed back; missing ones are filled from
// the earliest and latest transaction. The per-transaction detail list is
// only attached when the caller supplied both bounds.
func AssembleSummary(customerID string, requested core.DateRange, txns []core.Transaction, monthly core.MonthlyPoints) core.RewardSummary {
	first, last := txns[0], txns[len(txns)-1]

	summary := core.RewardSummary{
		CustomerID:   customerID,
		CustomerName: first.CustomerName,
		From:         requested.From,
		To:           requested.To,
		Monthly:      monthly,
		Total:        monthly.Total(),
	}
	if summary.From.IsEmpty() {
		summary.From = first.Date
	}
	if summary.To.IsEmpty() {
		summary.To = last.Date
	}

	if requested.Bounded() {
		summary.Transactions = make([]core.TransactionDetail, 0, len(txns))
		for _, tx := range txns {
			summary.Transactions = append(summary.Transactions, core.TransactionDetail{
				Amount: tx.Amount,
				Date:   tx.Date,
			})
		}
	}
	return summary
}
