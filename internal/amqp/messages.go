package amqp

import (
	"encoding/json"
	"time"

	"rewards/internal/core"
)

// RewardsCalculatedMessage announces a successful reward calculation so
// downstream consumers (statements, CRM) can react without polling the API.
type RewardsCalculatedMessage struct {
	CustomerID   string       `json:"customer_id"`
	CustomerName string       `json:"customer_name"`
	From         string       `json:"from_date"`
	To           string       `json:"to_date"`
	TotalPoints  int          `json:"total_points"`
	Months       []MonthEntry `json:"months"`
	Timestamp    time.Time    `json:"timestamp"`
}

type MonthEntry struct {
	Month  string `json:"month"`
	Points int    `json:"points"`
}

// NewRewardsCalculatedMessage snapshots a summary. Months keep the summary's order.
func NewRewardsCalculatedMessage(s core.RewardSummary) *RewardsCalculatedMessage {
	entries := s.Monthly.Entries()
	months := make([]MonthEntry, 0, len(entries))
	for _, e := range entries {
		months = append(months, MonthEntry{Month: e.Month, Points: e.Points})
	}
	return &RewardsCalculatedMessage{
		CustomerID:   s.CustomerID,
		CustomerName: s.CustomerName,
		From:         s.From.String(),
		To:           s.To.String(),
		TotalPoints:  s.Total,
		Months:       months,
		Timestamp:    time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RewardsCalculatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
