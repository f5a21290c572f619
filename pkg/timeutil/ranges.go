package timeutil

import "time"

// Range names accepted by the history and diff endpoints.
const (
	RangeToday = "today"
	Range7d    = "7d"
	Range30d   = "30d"
	RangeAll   = "all"
)

// RangeStart returns the Unix seconds lower bound for rng relative to now.
// "today" starts at local midnight, "7d" and "30d" go back that many days
// from now, and "all" or any unknown value yields 0.
func RangeStart(rng string, now time.Time) int64 {
	switch rng {
	case RangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Unix()
	case Range7d:
		return now.AddDate(0, 0, -7).Unix()
	case Range30d:
		return now.AddDate(0, 0, -30).Unix()
	default:
		return 0
	}
}

// ValidRange reports whether rng is one of the named ranges.
func ValidRange(rng string) bool {
	switch rng {
	case RangeToday, Range7d, Range30d, RangeAll:
		return true
	}
	return false
}
