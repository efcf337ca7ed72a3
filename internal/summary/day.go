package summary

import (
	"fmt"
	"time"
)

// DayLayout is the canonical day-key form. Keys in this form sort
// lexicographically in calendar order, so plain string comparison is date
// comparison everywhere in this module.
const DayLayout = "2006-01-02"

// ValidDay reports whether day is a canonical YYYY-MM-DD key.
func ValidDay(day string) bool {
	_, err := time.Parse(DayLayout, day)
	return err == nil
}

// ParseDay converts a day-key to its midnight instant in UTC.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", day, err)
	}
	return t, nil
}

// DayOf returns the day-key of t in loc, or in t's own location when loc is
// nil. This is the only bridge from instants to day-keys; core functions
// never read the wall clock themselves.
func DayOf(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DayLayout)
}

// AddDays shifts a day-key by n calendar days.
func AddDays(day string, n int) (string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DayLayout), nil
}

// DayRange expands an inclusive [start,end] interval into ascending
// day-keys. An empty or inverted interval yields nil.
func DayRange(start, end string) ([]string, error) {
	if start == "" || end == "" || start > end {
		return nil, nil
	}
	st, err := ParseDay(start)
	if err != nil {
		return nil, err
	}
	en, err := ParseDay(end)
	if err != nil {
		return nil, err
	}
	var days []string
	for t := st; !t.After(en); t = t.AddDate(0, 0, 1) {
		days = append(days, t.Format(DayLayout))
	}
	return days, nil
}

// MaxDay returns the later of two day-keys; an empty key never wins.
func MaxDay(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" || a > b {
		return a
	}
	return b
}
