package model

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar date layout used for parsing and
// encoding.
const DateLayout = "2006-01-02"

// Date is a calendar date with no time zone. Dates compare as calendar
// values only.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t as observed in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return Date{}, fmt.Errorf("model: parse date %q: %w", raw, err)
	}
	return DateOf(t), nil
}

// Valid reports whether the date names a real calendar day.
func (d Date) Valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	y, m, day := t.Date()
	return y == d.Year && m == d.Month && day == d.Day
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
