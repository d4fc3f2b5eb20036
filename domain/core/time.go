package core

import (
	"time"
)

// DateLayout is the YYYY-MM-DD layout used for search windows
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date in UTC
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate formats t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// FromUnix converts epoch seconds as reported by the search API
func FromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// Today returns the current UTC date truncated to midnight
func Today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}
