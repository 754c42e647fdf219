package domain

import "time"

// DateLayout is the ISO calendar date format used on the wire and in exports.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar day, expressed as UTC midnight. The
// calendar day is taken in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
