package utils

import "time"

// TimeNowUTC returns the current time in UTC. Market data timestamps are
// stored in UTC, so all elapsed-day arithmetic uses this clock.
func TimeNowUTC() time.Time {
	return time.Now().UTC()
}

// PrettyDate formats a time as a short human-readable date.
func PrettyDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}

// DateOnly truncates a time to midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsWeekend reports whether the date falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
