// Package dateparse turns raw roster cell text into validated calendar
// dates. Birthdays are commonly entered without a year ("04/07"), so a
// missing year defaults to the current year at parse time — it only
// affects the display year of the recurring series, never the recurrence
// pattern.
package dateparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is the sentinel wrapped by all parse failures.
var ErrInvalidDate = errors.New("dateparse: invalid date")

// Date is a validated calendar date. Day is guaranteed to fit the
// month/year combination, leap years included.
type Date struct {
	Day   int
	Month time.Month
	Year  int
}

// Midday returns the date as an instant at 12:00 in loc. Midday keeps an
// all-day event on the intended calendar day regardless of the timezone
// the destination renders it in.
func (d Date) Midday(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, loc)
}

// Parse converts raw text in day-first order ("15/01", "29-02-2024") into
// a Date. Total: every input yields either a valid Date or an error
// wrapping ErrInvalidDate. Separators "/" and "-" are accepted, "/" wins
// when present.
func Parse(raw string, now func() time.Time) (Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty input", ErrInvalidDate)
	}

	sep := "-"
	if strings.Contains(s, "/") {
		sep = "/"
	}

	parts := strings.Split(s, sep)
	if len(parts) < 2 {
		return Date{}, fmt.Errorf("%w: %q has no day/month separator", ErrInvalidDate, raw)
	}

	day, err := parseField(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("%w: day %q is not a number", ErrInvalidDate, parts[0])
	}

	month, err := parseField(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("%w: month %q is not a number", ErrInvalidDate, parts[1])
	}

	year := now().Year()

	if len(parts) >= 3 {
		year, err = parseField(parts[2])
		if err != nil {
			return Date{}, fmt.Errorf("%w: year %q is not a number", ErrInvalidDate, parts[2])
		}
	}

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDate, month)
	}

	if day < 1 || day > daysInMonth(time.Month(month), year) {
		return Date{}, fmt.Errorf("%w: day %d out of range for %d/%d", ErrInvalidDate, day, month, year)
	}

	return Date{Day: day, Month: time.Month(month), Year: year}, nil
}

// parseField parses a single numeric component, rejecting whitespace-only
// and signed values that strconv would otherwise accept.
func parseField(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, fmt.Errorf("not a positive number: %q", s)
	}

	return strconv.Atoi(s)
}

// daysInMonth returns the day count of month in year. time.Date
// normalizes day 0 of the following month to the last day of this one.
func daysInMonth(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
