package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// Date layouts used throughout the application
const (
	// LayoutISODate is how reservation ranges are given on the command line.
	LayoutISODate = "2006-01-02"
	// LayoutTourDate is the month/day/year format of the tour results table.
	LayoutTourDate = "1/2/2006"
)

// ParseISODate parses an ISO 8601 date ("2006-01-02") or date-time (RFC 3339,
// with or without a zone) and truncates it to the calendar day.
func ParseISODate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date cannot be empty")
	}

	layouts := []string{LayoutISODate, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

// ParseTourDate parses a month/day/year date as printed in the tour table.
func ParseTourDate(s string) (time.Time, error) {
	t, err := time.Parse(LayoutTourDate, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid tour date %q, expected M/D/YYYY: %w", s, err)
	}
	return t, nil
}

// Day drops the clock and zone, keeping the calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Range is an inclusive range of calendar days.
type Range struct {
	Min time.Time
	Max time.Time
}

// NewRange builds a Range from two dates given in any order.
func NewRange(a, b time.Time) Range {
	a, b = Day(a), Day(b)
	if b.Before(a) {
		a, b = b, a
	}
	return Range{Min: a, Max: b}
}

// ParseRange parses two ISO dates into a Range.
func ParseRange(from, to string) (Range, error) {
	a, err := ParseISODate(from)
	if err != nil {
		return Range{}, err
	}
	b, err := ParseISODate(to)
	if err != nil {
		return Range{}, err
	}
	return NewRange(a, b), nil
}

// Contains reports whether t falls on a day within the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.Min) && !d.After(r.Max)
}

func (r Range) String() string {
	return r.Min.Format(LayoutISODate) + ".." + r.Max.Format(LayoutISODate)
}
