package http

import (
	"fmt"
	"net/url"
	"strings"

	"rewards/internal/core"
)

const (
	paramFromDate = "fromDate"
	paramToDate   = "toDate"
)

// parseRange reads the optional fromDate/toDate query parameters. A blank
// parameter counts as absent; a malformed one is core.ErrInvalidDate.
// Ordering is left to the reward service.
func parseRange(q url.Values) (core.DateRange, error) {
	from, err := parseOptionalDate(q, paramFromDate)
	if err != nil {
		return core.DateRange{}, err
	}
	to, err := parseOptionalDate(q, paramToDate)
	if err != nil {
		return core.DateRange{}, err
	}
	return core.DateRange{From: from, To: to}, nil
}

func parseOptionalDate(q url.Values, name string) (core.Date, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
