package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Mr-Dark-debug/skydash/internal/client"
	"github.com/Mr-Dark-debug/skydash/internal/series"
	"github.com/Mr-Dark-debug/skydash/pkg/numfmt"
	"github.com/Mr-Dark-debug/skydash/pkg/timeutil"
)

// progressPanel is a diff table for one category.
type progressPanel struct {
	title    string
	category string
	rng      string

	loading bool
	loaded  bool
	failed  bool

	items  []client.ProgressItem
	scroll int
}

func newProgressPanel(title, category string) progressPanel {
	return progressPanel{title: title, category: category, rng: timeutil.RangeToday, loading: true}
}

func (p progressPanel) slot() string { return "diff/" + p.category }

// apply stores a fetch result. A failure keeps whatever was shown before.
func (p *progressPanel) apply(items []client.ProgressItem, err error) {
	p.loading = false
	if err != nil {
		if !p.loaded {
			p.failed = true
		}
		return
	}
	p.items = items
	p.loaded = true
	p.failed = false
	p.scroll = clamp(p.scroll, 0, maxInt(len(items)-1, 0))
}

// renderProgressPanel draws table i in a box of width x height.
func renderProgressPanel(m *Model, i, width, height int) string {
	p := &m.tables[i]
	active := m.focus == i

	style, titleStyle := panelStyle, panelTitleDimStyle
	if active {
		style, titleStyle = panelActiveStyle, panelTitleStyle
	}
	inner := maxInt(width-style.GetHorizontalFrameSize(), 10)
	rows := maxInt(height-style.GetVerticalFrameSize()-1, 1)

	title := titleStyle.Render(p.title) + " " + renderRangeSelector(progressRanges, p.rng)
	if p.loading {
		title += " " + m.spinner.View()
	}

	body := renderProgressBody(p, inner, rows-1)
	return style.Width(width).Height(height).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, body))
}

func renderProgressBody(p *progressPanel, width, rows int) string {
	switch {
	case !p.loaded && p.failed:
		return emptyStateStyle.Render("Could not load progress.")
	case !p.loaded:
		return emptyStateStyle.Render("Loading...")
	case len(p.items) == 0:
		return emptyStateStyle.Render("No progress in this period.")
	}

	nameWidth := maxInt(width-2*numColumnWidth, 8)

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		StyleFunc(progressCellStyle).
		Headers("Item", "Progress", "Total")

	// One row goes to the header.
	visible := maxInt(rows-1, 1)
	start := clamp(p.scroll, 0, maxInt(len(p.items)-visible, 0))
	end := minInt(start+visible, len(p.items))
	for _, it := range p.items[start:end] {
		t.Row(
			truncate(series.FormatName(it.Name), nameWidth),
			"+"+numfmt.Round(it.Progress),
			numfmt.Round(it.EndValue),
		)
	}
	return t.Render()
}

// numColumnWidth is the room reserved for each numeric column.
const numColumnWidth = 14

func progressCellStyle(row, col int) lipgloss.Style {
	var st lipgloss.Style
	switch {
	case row == table.HeaderRow:
		st = tableHeadStyle
	case col == 1:
		st = tableGainStyle
	case col == 2:
		st = tableTotalStyle
	default:
		st = tableNameStyle
	}
	if col > 0 {
		st = st.Align(lipgloss.Right).PaddingLeft(2)
	}
	return st
}
