package google

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseTransactions(t *testing.T) {
	values := [][]interface{}{
		{"Date", "ID", "Customer ID", "Customer Name", "Amount", "Notes"},
		{"2024-04-15", "TXN1001", "CUST001", "Murali Krishna", 120.0, "walk-in"},
		{"2024-04-25", "TXN1004", "CUST001", "Murali Krishna", "49,00"},
		{},
		{"", "", "", "", ""},
		{"15/04/2024", "TXN9", "CUST001", "Murali Krishna", 10.0},
		{"2024-05-10", "TXN1002", "CUST001", "Murali Krishna", -3.0},
		{"2024-05-11", "TXN1001", "CUST001", "Murali Krishna", 1.0},
	}
	txns, skipped, err := parseTransactions(values)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txns))
	}
	if txns[0].ID != "TXN1001" || !txns[0].Amount.Equal(decimal.NewFromInt(120)) || txns[0].Date.String() != "2024-04-15" {
		t.Fatalf("unexpected first row: %+v", txns[0])
	}
	if !txns[1].Amount.Equal(decimal.NewFromInt(49)) {
		t.Fatalf("comma decimal not parsed: %s", txns[1].Amount)
	}
	if len(skipped) != 3 {
		t.Fatalf("expected 3 skipped rows, got %d: %+v", len(skipped), skipped)
	}
	if skipped[0].Row != 6 {
		t.Fatalf("row numbers are 1-based, got %d", skipped[0].Row)
	}
}

func TestParseTransactionsMissingHeader(t *testing.T) {
	_, _, err := parseTransactions([][]interface{}{{"ID", "Amount"}})
	if err == nil {
		t.Fatal("expected header error")
	}
}

func TestParseTransactionsEmpty(t *testing.T) {
	txns, skipped, err := parseTransactions(nil)
	if err != nil || txns != nil || skipped != nil {
		t.Fatalf("expected empty result, got %v %v %v", txns, skipped, err)
	}
}
