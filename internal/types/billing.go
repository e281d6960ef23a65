package types

import (
	"time"
)

// BillingPeriod is a calendar month. Start identifies the period and is the
// idempotency key of subscription payment rows.
type BillingPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CalendarMonthPeriod returns the calendar month containing t, in UTC.
// End is the last second of the month.
func CalendarMonthPeriod(t time.Time) BillingPeriod {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return BillingPeriod{Start: start, End: end}
}

// Contains reports whether t falls within the period
func (p BillingPeriod) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start) && !t.After(p.End)
}

// ValidateBillingDay checks a day-of-month anchor
func ValidateBillingDay(day int) bool {
	return day >= 1 && day <= 31
}
