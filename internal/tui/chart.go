package tui

import (
	"strings"
	"time"

	tslc "github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/skydash/internal/series"
	"github.com/Mr-Dark-debug/skydash/internal/trend"
	"github.com/Mr-Dark-debug/skydash/pkg/numfmt"
	"github.com/Mr-Dark-debug/skydash/pkg/timeutil"
)

// chartPanel is a history chart for one category.
type chartPanel struct {
	title    string
	category string
	rng      string

	loading bool
	loaded  bool
	failed  bool

	data      series.Collection
	selection series.Selection
	trends    map[string]trend.Trend
	cursor    int // chip under the cursor, index into data
}

func newChartPanel(title, category string) chartPanel {
	return chartPanel{title: title, category: category, rng: timeutil.Range7d, loading: true}
}

func (c chartPanel) slot() string { return "history/" + c.category }

// apply stores a fetch result and seeds the selection on the first
// non-empty load. A failure keeps whatever was shown before.
func (c *chartPanel) apply(data series.Collection, err error, topN int) {
	c.loading = false
	if err != nil {
		if !c.loaded {
			c.failed = true
		}
		return
	}
	c.data = data
	c.loaded = true
	c.failed = false
	c.selection.Seed(data, topN)

	c.trends = make(map[string]trend.Trend, len(data))
	for _, t := range trend.FitAll(data) {
		c.trends[t.Name] = t
	}
	c.cursor = clamp(c.cursor, 0, maxInt(len(data)-1, 0))
}

func (c *chartPanel) moveCursor(step int) {
	if len(c.data) == 0 {
		return
	}
	c.cursor = clamp(c.cursor+step, 0, len(c.data)-1)
}

func (c *chartPanel) toggleCursor() {
	if c.cursor < 0 || c.cursor >= len(c.data) {
		return
	}
	c.selection.Toggle(c.data[c.cursor].Name)
}

// plotted returns the selected series present in the data, paired with
// their color index. Colors follow selection order.
func (c *chartPanel) plotted() (series.Collection, []int) {
	var out series.Collection
	var colors []int
	for i, name := range c.selection.Names() {
		if s, ok := c.data.Get(name); ok {
			out = append(out, s)
			colors = append(colors, i)
		}
	}
	return out, colors
}

// renderChartPanel draws chart i in a box of width x height.
func renderChartPanel(m *Model, i, width, height int) string {
	c := &m.charts[i]
	active := m.focus == len(m.tables)+i

	style, titleStyle := panelStyle, panelTitleDimStyle
	if active {
		style, titleStyle = panelActiveStyle, panelTitleStyle
	}
	inner := maxInt(width-style.GetHorizontalFrameSize(), 20)
	rows := maxInt(height-style.GetVerticalFrameSize(), 3)

	title := titleStyle.Render(c.title) + " " + renderRangeSelector(chartRanges, c.rng)
	if c.loading {
		title += " " + m.spinner.View()
	}

	var body string
	switch {
	case !c.loaded && c.failed:
		body = emptyStateStyle.Render("Could not load history.")
	case !c.loaded:
		body = emptyStateStyle.Render("Loading...")
	case len(c.data) == 0:
		body = emptyStateStyle.Render("No history in this period.")
	default:
		body = renderChartBody(c, inner, rows-1, active, m.opts.Location)
	}

	return style.Width(width).Height(height).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, body))
}

func renderChartBody(c *chartPanel, width, rows int, active bool, loc *time.Location) string {
	chips := renderChips(c, width, active)
	selected, colors := c.plotted()
	if len(selected) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, chips,
			emptyStateStyle.Render("Select a series to plot."))
	}

	legend := renderLegend(c, selected, colors, width)
	plotRows := rows - lipgloss.Height(chips) - lipgloss.Height(legend)
	plot := plotSeries(selected, colors, width, plotRows, loc)

	return lipgloss.JoinVertical(lipgloss.Left, chips, plot, legend)
}

// renderChips draws the multi-select filter as a single line windowed
// around the cursor.
func renderChips(c *chartPanel, width int, active bool) string {
	labels := make([]string, len(c.data))
	widths := make([]int, len(c.data))
	for i, s := range c.data {
		st := chipStyle
		if c.selection.Contains(s.Name) {
			st = chipSelectedStyle
		}
		if active && i == c.cursor {
			st = chipCursorStyle.Inherit(st)
		}
		labels[i] = st.Render(truncate(series.FormatName(s.Name), 24))
		widths[i] = lipgloss.Width(labels[i])
	}

	start, end := chipWindow(widths, c.cursor, width-4)
	line := strings.Join(labels[start:end], "")
	if start > 0 {
		line = dimStyle.Render("‹ ") + line
	}
	if end < len(labels) {
		line += dimStyle.Render(" ›")
	}
	return line
}

// renderLegend lists each plotted series with its latest value and growth
// per day, wrapping onto as many lines as needed.
func renderLegend(c *chartPanel, selected series.Collection, colors []int, width int) string {
	var lines []string
	var line string
	for i, s := range selected {
		entry := seriesStyle(colors[i]).Render("●") + " " +
			chartLabelStyle.Render(series.FormatName(s.Name)) + " " +
			numfmt.Compact(s.LastValue())
		if t, ok := c.trends[s.Name]; ok && t.Points > 1 {
			entry += dimStyle.Render(" (" + numfmt.Signed(t.PerDay) + "/day)")
		}

		switch {
		case line == "":
			line = entry
		case lipgloss.Width(line)+3+lipgloss.Width(entry) <= width:
			line += "   " + entry
		default:
			lines = append(lines, line)
			line = entry
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// plotSeries draws the day-reshaped series as braille lines. The Y axis
// starts at zero unless a value is negative.
func plotSeries(c series.Collection, colors []int, width, height int, loc *time.Location) string {
	if width < 20 || height < 4 {
		return ""
	}
	rows := series.Reshape(c, loc)
	if len(rows) == 0 {
		return ""
	}

	days := make([]time.Time, len(rows))
	for i, r := range rows {
		t, err := timeutil.ParseDay(r.Date, loc)
		if err != nil {
			return ""
		}
		days[i] = t
	}

	minX, maxX := days[0], days[len(days)-1]
	if !maxX.After(minX) {
		maxX = minX.Add(24 * time.Hour)
	}
	minY, maxY := yBounds(c)

	chart := tslc.New(width, height,
		tslc.WithTimeRange(minX, maxX),
		tslc.WithYRange(minY, maxY),
		tslc.WithXLabelFormatter(func(_ int, v float64) string {
			return timeutil.ShortDate(time.Unix(int64(v), 0).In(loc))
		}),
		tslc.WithYLabelFormatter(func(_ int, v float64) string {
			return numfmt.Compact(v)
		}),
		tslc.WithAxesStyles(chartAxisStyle, chartLabelStyle),
	)

	for i, s := range c {
		for d, r := range rows {
			if v, ok := r.Value(s.Name); ok {
				chart.PushDataSet(s.Name, tslc.TimePoint{Time: days[d], Value: v})
			}
		}
		chart.SetDataSetStyle(s.Name, seriesStyle(colors[i]))
	}
	chart.DrawBrailleAll()
	return chart.View()
}

// yBounds returns the Y range of c, anchored at zero and padded by 5% at
// the top.
func yBounds(c series.Collection) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, s := range c {
		for _, p := range s.Points {
			if p.Value < lo {
				lo = p.Value
			}
			if p.Value > hi {
				hi = p.Value
			}
		}
	}
	if hi <= lo {
		return lo, lo + 1
	}
	return lo, hi + (hi-lo)*0.05
}
