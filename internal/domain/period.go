package domain

import (
	"fmt"
	"time"
)

// Period is a year-month token ("2026-02") identifying which monthly
// statement a transaction belongs to. It is the primary grouping key and is
// distinct from the purchase date's month. The string form sorts
// chronologically, so lexical comparison is safe.
type Period string

// ParsePeriod validates a "YYYY-MM" token.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("invalid billing period %q (expected YYYY-MM): %w", s, err)
	}
	return PeriodOf(t), nil
}

// PeriodOf derives the billing period from a date.
func PeriodOf(t time.Time) Period {
	return Period(t.Format("2006-01"))
}

// Time returns the first instant of the period's month in UTC.
func (p Period) Time() time.Time {
	t, err := time.Parse("2006-01", string(p))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddMonths returns the period n calendar months later (or earlier for
// negative n).
func (p Period) AddMonths(n int) Period {
	return PeriodOf(p.Time().AddDate(0, n, 0))
}

// Before reports whether p is chronologically earlier than other.
func (p Period) Before(other Period) bool {
	return string(p) < string(other)
}

// After reports whether p is chronologically later than other.
func (p Period) After(other Period) bool {
	return string(p) > string(other)
}

// InvoiceDay is the day-of-month all invoice dates are pinned to. Pinning
// sidesteps end-of-month overflow when adding calendar months (Jan 31 plus
// one month must not roll into March).
const InvoiceDay = 10

// InvoiceDate returns the pinned invoice date for the period.
func (p Period) InvoiceDate() time.Time {
	t := p.Time()
	return time.Date(t.Year(), t.Month(), InvoiceDay, 0, 0, 0, 0, time.UTC)
}

func (p Period) String() string {
	return string(p)
}
