package google

import (
	"fmt"
	"strconv"
	"strings"

	"rewards/internal/core"
)

var requiredHeaders = []string{"ID", "Customer ID", "Customer Name", "Amount", "Date"}

// skippedRow describes a data row that could not be turned into a transaction.
// Row is 1-based, matching what a user sees in the sheet.
type skippedRow struct {
	Row int
	Err error
}

// parseTransactions converts a values matrix (as returned by the Sheets API)
// into transactions. The first row must carry the headers; column order is free.
// Blank rows are ignored and malformed rows are reported, not fatal.
func parseTransactions(values [][]interface{}) ([]core.Transaction, []skippedRow, error) {
	if len(values) == 0 {
		return nil, nil, nil
	}
	headers := toStrings(values[0])
	cols := make([]int, len(requiredHeaders))
	var missing []string
	for i, h := range requiredHeaders {
		cols[i] = indexOf(headers, h)
		if cols[i] == -1 {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("unexpected ledger header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var (
		out     []core.Transaction
		skipped []skippedRow
		seen    = map[string]bool{}
	)
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		tx, err := rowToTransaction(row, cols)
		if err == nil && seen[tx.ID] {
			err = fmt.Errorf("duplicate transaction id %s", tx.ID)
		}
		if err != nil {
			skipped = append(skipped, skippedRow{Row: i + 1, Err: err})
			continue
		}
		seen[tx.ID] = true
		out = append(out, tx)
	}
	return out, skipped, nil
}

func rowToTransaction(row []string, cols []int) (core.Transaction, error) {
	amount, err := core.ParseAmount(safeGet(row, cols[3]))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", safeGet(row, cols[3]), err)
	}
	date, err := core.ParseDate(safeGet(row, cols[4]))
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		ID:           safeGet(row, cols[0]),
		CustomerID:   safeGet(row, cols[1]),
		CustomerName: safeGet(row, cols[2]),
		Amount:       amount,
		Date:         date,
	}
	return tx, tx.Validate()
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch t := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(t))
		}
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return strings.TrimSpace(arr[idx])
}
