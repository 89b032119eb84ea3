// Package dates handles calendar-day values.
//
// A calendar day is represented as a time.Time at midnight UTC, which is also how
// PostgreSQL date columns come back through pgx.
package dates

import (
	"errors"
	"strings"
	"time"
)

const Layout = "2006-01-02"

var ErrEmpty = errors.New("empty date")

// Day returns the calendar day of t as seen in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Parse reads a YYYY-MM-DD value.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmpty
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// Span lists every day from start to end inclusive. It returns nil when end is before start.
func Span(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil
	}
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
