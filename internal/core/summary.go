package core

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MonthPoints is one bucket of MonthlyPoints.
type MonthPoints struct {
	Month  string
	Points int
}

// MonthlyPoints maps YYYY-MM keys to points, keeping keys in the order they
// were first added. The zero value is ready to use.
type MonthlyPoints struct {
	order  []string
	points map[string]int
}

// Add accumulates points into the bucket for month.
func (m *MonthlyPoints) Add(month string, points int) {
	if m.points == nil {
		m.points = make(map[string]int)
	}
	if _, ok := m.points[month]; !ok {
		m.order = append(m.order, month)
	}
	m.points[month] += points
}

func (m MonthlyPoints) Get(month string) (int, bool) {
	p, ok := m.points[month]
	return p, ok
}

func (m MonthlyPoints) Len() int {
	return len(m.order)
}

// Months returns keys in first-seen order.
func (m MonthlyPoints) Months() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m MonthlyPoints) Entries() []MonthPoints {
	out := make([]MonthPoints, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, MonthPoints{Month: k, Points: m.points[k]})
	}
	return out
}

func (m MonthlyPoints) Total() int {
	total := 0
	for _, p := range m.points {
		total += p
	}
	return total
}

// MarshalJSON writes an object whose keys follow insertion order.
func (m MonthlyPoints) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.points[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// TransactionDetail is the per-transaction line of a bounded summary.
type TransactionDetail struct {
	Amount decimal.Decimal
	Date   Date
}

// RewardSummary is the result of a reward calculation for one customer.
type RewardSummary struct {
	CustomerID   string
	CustomerName string
	From         Date
	To           Date
	Monthly      MonthlyPoints
	Total        int
	// Transactions is nil unless the caller supplied both range bounds.
	Transactions []TransactionDetail
}

// HasTransactions reports whether the detail list is present.
func (s RewardSummary) HasTransactions() bool {
	return s.Transactions != nil
}
