package http

import (
	"encoding/json"

	"rewards/internal/core"
)

// RewardsResponse is the wire shape of a reward summary, shared by the API
// and rewardsctl. Transactions is a pointer so an omitted list is absent
// from the JSON rather than empty.
type RewardsResponse struct {
	CustomerID     string             `json:"customerId"`
	CustomerName   string             `json:"customerName"`
	FromDate       core.Date          `json:"fromDate"`
	ToDate         core.Date          `json:"toDate"`
	MonthlyRewards core.MonthlyPoints `json:"monthlyRewards"`
	TotalRewards   int                `json:"totalRewards"`
	Transactions   *[]TransactionDTO  `json:"transactions,omitempty"`
}

// TransactionDTO renders amounts with two decimals as a JSON number.
type TransactionDTO struct {
	Amount json.Number `json:"amount"`
	Date   core.Date   `json:"date"`
}

// NewRewardsResponse converts a summary for encoding.
func NewRewardsResponse(s core.RewardSummary) RewardsResponse {
	resp := RewardsResponse{
		CustomerID:     s.CustomerID,
		CustomerName:   s.CustomerName,
		FromDate:       s.From,
		ToDate:         s.To,
		MonthlyRewards: s.Monthly,
		TotalRewards:   s.Total,
	}
	if s.HasTransactions() {
		items := make([]TransactionDTO, 0, len(s.Transactions))
		for _, t := range s.Transactions {
			items = append(items, TransactionDTO{
				Amount: json.Number(core.FormatAmount(t.Amount)),
				Date:   t.Date,
			})
		}
		resp.Transactions = &items
	}
	return resp
}
