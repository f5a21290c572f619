package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/skydash/pkg/timeutil"
)

// ────────────────────────────────────────────────────────────
// Range selection
// ────────────────────────────────────────────────────────────

var (
	progressRanges = []string{timeutil.RangeToday, timeutil.Range7d, timeutil.Range30d}
	chartRanges    = []string{timeutil.Range7d, timeutil.Range30d, timeutil.RangeAll}
)

// cycle returns the range step positions away from cur, wrapping around.
// An unknown cur starts from the first range.
func cycle(ranges []string, cur string, step int) string {
	idx := 0
	for i, r := range ranges {
		if r == cur {
			idx = i
			break
		}
	}
	n := len(ranges)
	return ranges[((idx+step)%n+n)%n]
}

// rangeLabel is the selector caption of a range.
func rangeLabel(rng string) string {
	switch rng {
	case timeutil.RangeToday:
		return "Today"
	case timeutil.RangeAll:
		return "All"
	default:
		return rng
	}
}

// renderRangeSelector draws ranges with the active one highlighted.
func renderRangeSelector(ranges []string, active string) string {
	var b strings.Builder
	for _, r := range ranges {
		if r == active {
			b.WriteString(rangeActiveStyle.Render(rangeLabel(r)))
		} else {
			b.WriteString(rangeIdleStyle.Render(rangeLabel(r)))
		}
	}
	return b.String()
}

// ────────────────────────────────────────────────────────────
// Chip window
// ────────────────────────────────────────────────────────────

// chipWindow picks the widest run of chips around cursor that fits in max
// columns. It returns the half-open index range [start, end).
func chipWindow(widths []int, cursor, max int) (int, int) {
	if len(widths) == 0 {
		return 0, 0
	}
	cursor = clamp(cursor, 0, len(widths)-1)
	start, end := cursor, cursor+1
	used := widths[cursor]

	for {
		grew := false
		if end < len(widths) && used+widths[end] <= max {
			used += widths[end]
			end++
			grew = true
		}
		if start > 0 && used+widths[start-1] <= max {
			start--
			used += widths[start]
			grew = true
		}
		if !grew {
			return start, end
		}
	}
}

// ────────────────────────────────────────────────────────────
// String helpers
// ────────────────────────────────────────────────────────────

// truncate cuts a string to maxLen terminal cells and appends "..." if
// truncated. Wide runes count as two cells.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return takeCells(s, maxLen)
	}
	return takeCells(s, maxLen-3) + "..."
}

// takeCells returns the longest prefix of s that fits in n cells.
func takeCells(s string, n int) string {
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > n {
			break
		}
		b.WriteRune(r)
		used += w
	}
	return b.String()
}

// formatDelay prints whole seconds as "5s".
func formatDelay(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return d.String()
}

// clamp restricts val to [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
