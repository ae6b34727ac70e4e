package ledger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"rewards/internal/core"
)

// SeedFile is the YAML layout accepted by ReadSeed:
//
//	transactions:
//	  - id: TXN1001
//	    customer_id: CUST001
//	    customer_name: Murali Krishna
//	    amount: 120.00
//	    date: 2024-04-15
type SeedFile struct {
	Transactions []SeedTransaction `yaml:"transactions"`
}

// SeedTransaction keeps amount and date as raw text so they go through the
// same parsers as every other input.
type SeedTransaction struct {
	ID           string `yaml:"id"`
	CustomerID   string `yaml:"customer_id"`
	CustomerName string `yaml:"customer_name"`
	Amount       string `yaml:"amount"`
	Date         string `yaml:"date"`
}

// ReadSeed decodes and validates a seed document. Duplicate ids are rejected.
func ReadSeed(r io.Reader) ([]core.Transaction, error) {
	var doc SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	out := make([]core.Transaction, 0, len(doc.Transactions))
	seen := make(map[string]struct{}, len(doc.Transactions))
	for i, raw := range doc.Transactions {
		tx, err := raw.toTransaction()
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i+1, err)
		}
		if _, dup := seen[tx.ID]; dup {
			return nil, fmt.Errorf("seed entry %d: %w: %s", i+1, ErrDuplicateTransaction, tx.ID)
		}
		seen[tx.ID] = struct{}{}
		out = append(out, tx)
	}
	return out, nil
}

// ReadSeedFile opens path and passes it to ReadSeed.
func ReadSeedFile(path string) ([]core.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return ReadSeed(f)
}

func (s SeedTransaction) toTransaction() (core.Transaction, error) {
	amount, err := core.ParseAmount(s.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", s.Amount, err)
	}
	date, err := core.ParseDate(s.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		ID:           strings.TrimSpace(s.ID),
		CustomerID:   strings.TrimSpace(s.CustomerID),
		CustomerName: strings.TrimSpace(s.CustomerName),
		Amount:       amount,
		Date:         date,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// DefaultSeed is the built-in sample data set used when no seed file is configured.
func DefaultSeed() []core.Transaction {
	tx := func(id, cust, name, amount string, y, m, d int) core.Transaction {
		a, _ := core.ParseAmount(amount)
		return core.Transaction{ID: id, CustomerID: cust, CustomerName: name, Amount: a, Date: core.NewDate(y, m, d)}
	}
	return []core.Transaction{
		tx("TXN1001", "CUST001", "Murali Krishna", "120.00", 2024, 4, 15),
		tx("TXN1002", "CUST001", "Murali Krishna", "90.00", 2024, 5, 10),
		tx("TXN1003", "CUST001", "Murali Krishna", "130.00", 2024, 6, 5),
		tx("TXN1004", "CUST001", "Murali Krishna", "49.00", 2024, 4, 25),
		tx("TXN1005", "CUST001", "Murali Krishna", "100.00", 2024, 6, 18),
		tx("TXN1006", "CUST003", "Ram Prasad", "75.00", 2024, 4, 22),
		tx("TXN1007", "CUST003", "Ram Prasad", "101.00", 2024, 5, 11),
		tx("TXN1008", "CUST004", "Sita Devi", "55.00", 2024, 5, 9),
		tx("TXN1009", "CUST004", "Sita Devi", "200.00", 2024, 6, 30),
	}
}
