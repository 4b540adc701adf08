package domain

import "time"

// DateLayout is the wire and storage format of a calendar day
const DateLayout = "2006-01-02"

// Day truncates t to its calendar day at UTC midnight.
// The ledger has no intra-day ordering, so every comparison happens on days.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a "2006-01-02" string into a calendar day
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDay formats a calendar day as "2006-01-02"
func FormatDay(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the number of calendar days in [start, end], 0 if end is before start
func DaysBetween(start, end time.Time) int {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}
