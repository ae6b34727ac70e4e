package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewards/internal/core"
)

func TestReadSeed(t *testing.T) {
	doc := `
transactions:
  - id: TXN1
    customer_id: CUST001
    customer_name: Murali Krishna
    amount: 120.50
    date: 2024-04-15
  - id: TXN2
    customer_id: CUST001
    customer_name: Murali Krishna
    amount: "49,99"
    date: "2024-04-25"
`
	txns, err := ReadSeed(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, "TXN1", txns[0].ID)
	assert.Equal(t, "120.5", txns[0].Amount.String())
	assert.Equal(t, "2024-04-15", txns[0].Date.String())
	assert.Equal(t, "49.99", txns[1].Amount.String())
}

func TestReadSeedRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "negative amount",
			doc:  "transactions:\n  - {id: T, customer_id: C, customer_name: N, amount: -5, date: 2024-01-01}\n",
			want: core.ErrInvalidAmount,
		},
		{
			name: "bad date",
			doc:  "transactions:\n  - {id: T, customer_id: C, customer_name: N, amount: 5, date: 01/01/2024}\n",
			want: core.ErrInvalidDate,
		},
		{
			name: "missing customer",
			doc:  "transactions:\n  - {id: T, customer_name: N, amount: 5, date: 2024-01-01}\n",
			want: core.ErrMissingCustomerID,
		},
		{
			name: "duplicate id",
			doc: "transactions:\n" +
				"  - {id: T, customer_id: C, customer_name: N, amount: 5, date: 2024-01-01}\n" +
				"  - {id: T, customer_id: C, customer_name: N, amount: 6, date: 2024-01-02}\n",
			want: ErrDuplicateTransaction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSeed(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestReadSeedUnknownField(t *testing.T) {
	_, err := ReadSeed(strings.NewReader("transactions:\n  - {id: T, colour: red}\n"))
	require.Error(t, err)
}

func TestReadSeedEmptyDocument(t *testing.T) {
	txns, err := ReadSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestReadSeedFileMatchesDefaultSeed(t *testing.T) {
	path := filepath.Join("..", "..", "data", "transactions.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("sample data not present")
	}
	fromFile, err := ReadSeedFile(path)
	require.NoError(t, err)

	builtin := DefaultSeed()
	require.Len(t, fromFile, len(builtin))
	for i := range builtin {
		assert.Equal(t, builtin[i].ID, fromFile[i].ID)
		assert.True(t, builtin[i].Amount.Equal(fromFile[i].Amount), builtin[i].ID)
		assert.True(t, builtin[i].Date.Equal(fromFile[i].Date.Time), builtin[i].ID)
	}
}
