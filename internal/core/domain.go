package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
	// MonthLayout is the key format for monthly reward buckets.
	MonthLayout = "2006-01"
)

type (
	Date struct {
		time.Time
	}

	// DateRange bounds a query on both sides. A zero bound means the
	// caller did not supply it.
	DateRange struct {
		From Date
		To   Date
	}

	Transaction struct {
		ID           string
		CustomerID   string
		CustomerName string
		Amount       decimal.Decimal
		Date         Date
	}
)

var (
	ErrInvalidRange       = errors.New("invalid date range")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrMissingCustomerID  = errors.New("customer id is required")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyTransactionID = errors.New("empty transaction id")
	ErrEmptyCustomerName  = errors.New("empty customer name")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string. Blank input is an error; callers
// treating a missing date as "absent" must check for that first.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q is not in YYYY-MM-DD format", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero (optional dates use the zero value)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket the date falls into.
func (d Date) MonthKey() string {
	return d.Format(MonthLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate reports ErrInvalidRange when both bounds are present and out of order.
func (r DateRange) Validate() error {
	if r.From.IsEmpty() || r.To.IsEmpty() {
		return nil
	}
	if r.From.After(r.To.Time) {
		return fmt.Errorf("%w: fromDate %s cannot be after toDate %s", ErrInvalidRange, r.From, r.To)
	}
	return nil
}

// Open reports whether neither bound was supplied.
func (r DateRange) Open() bool {
	return r.From.IsEmpty() && r.To.IsEmpty()
}

// Bounded reports whether both bounds were supplied.
func (r DateRange) Bounded() bool {
	return !r.From.IsEmpty() && !r.To.IsEmpty()
}

// Contains is inclusive on both ends; an absent bound does not restrict.
func (r DateRange) Contains(d Date) bool {
	if !r.From.IsEmpty() && d.Before(r.From.Time) {
		return false
	}
	if !r.To.IsEmpty() && d.After(r.To.Time) {
		return false
	}
	return true
}

// CustomerKey is the normalised form stores index and match customers by.
func CustomerKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// SameCustomer compares customer identifiers case-insensitively.
func SameCustomer(a, b string) bool {
	return CustomerKey(a) == CustomerKey(b)
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyTransactionID
	}
	if strings.TrimSpace(t.CustomerID) == "" {
		return ErrMissingCustomerID
	}
	if strings.TrimSpace(t.CustomerName) == "" {
		return ErrEmptyCustomerName
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("%w: %s is negative", ErrInvalidAmount, t.Amount)
	}
	if t.Date.IsEmpty() {
		return fmt.Errorf("%w: transaction %s has no date", ErrInvalidDate, t.ID)
	}
	return nil
}
