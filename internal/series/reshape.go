package series

import (
	"sort"
	"time"

	"github.com/Mr-Dark-debug/skydash/pkg/timeutil"
)

// DefaultTopN is how many series are shown before the user picks any.
const DefaultTopN = 5

// Reshape pivots a collection into one row per calendar day (in loc, or the
// local zone when nil), ascending by date. When a series has several points
// on one day the later point wins. Days are never zero-filled.
func Reshape(c Collection, loc *time.Location) []Row {
	byDate := make(map[string]*Row)
	for _, s := range c {
		for _, p := range s.Points {
			day := timeutil.DayKey(p.Timestamp, loc)
			row, ok := byDate[day]
			if !ok {
				row = &Row{Date: day, Values: make(map[string]float64)}
				byDate[day] = row
			}
			row.Values[s.Name] = p.Value
		}
	}

	rows := make([]Row, 0, len(byDate))
	for _, r := range byDate {
		rows = append(rows, *r)
	}
	// YYYY-MM-DD sorts lexically in calendar order.
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}

// DefaultSelection ranks series by their most recent value, highest first,
// and returns up to topN names. Ties keep collection order. Empty series
// rank with a value of 0.
func DefaultSelection(c Collection, topN int) []string {
	if topN <= 0 {
		topN = DefaultTopN
	}

	type ranked struct {
		name string
		last float64
	}
	rs := make([]ranked, len(c))
	for i, s := range c {
		rs[i] = ranked{name: s.Name, last: s.LastValue()}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].last > rs[j].last })

	if len(rs) > topN {
		rs = rs[:topN]
	}
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.name
	}
	return names
}
