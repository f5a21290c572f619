// Package timeutil provides time formatting utilities for skydash.
//
// Snapshot timestamps are stored as Unix seconds (int64). This package
// converts them to calendar days for charting, to human-readable strings for
// the dashboard and CLI, and computes the lower bound of a named time range.
package timeutil

import (
	"fmt"
	"time"
)

// DayLayout is the calendar-day key used by chart rows.
const DayLayout = "2006-01-02"

// FromUnix converts a Unix seconds timestamp to time.Time.
func FromUnix(ts int64) time.Time {
	return time.Unix(ts, 0)
}

// DayKey returns the "YYYY-MM-DD" calendar date of ts in loc.
// A nil loc means the local zone.
func DayKey(ts int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return FromUnix(ts).In(loc).Format(DayLayout)
}

// ParseDay parses a day key back to local midnight of that date in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DayLayout, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing day %q: %w", day, err)
	}
	return t, nil
}

// FormatTimestampFull formats a Unix seconds timestamp in local time.
// Format: "2006-01-02 15:04:05"
func FormatTimestampFull(ts int64) string {
	return FromUnix(ts).Local().Format("2006-01-02 15:04:05")
}

// ShortDate formats t as an axis label, e.g. "Jan 2".
func ShortDate(t time.Time) string {
	return t.Format("Jan 2")
}

// RelativeTime returns a human-readable relative time string.
// Examples: "just now", "5s ago", "2m ago", "1h ago"
func RelativeTime(ts int64) string {
	diff := time.Since(FromUnix(ts))

	switch {
	case diff < time.Second:
		return "just now"
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	}
}
