package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/skydash/pkg/palette"
)

// ────────────────────────────────────────────────────────────
// Color Palette
// ────────────────────────────────────────────────────────────
//
// All colors are defined here. No ad-hoc color literals anywhere.
// Chart lines take their colors from palette.Series so the terminal
// and exported charts agree.

var (
	// Base
	colorBg        = lipgloss.Color("#111827")
	colorBgSurface = lipgloss.Color("#1f2937")

	// Text
	colorText      = lipgloss.Color("#e2e8f0")
	colorTextDim   = lipgloss.Color("#a0aec0")
	colorTextMuted = lipgloss.Color("#4a5568")

	// Accents
	colorIndigo = lipgloss.Color("#818cf8")
	colorGreen  = lipgloss.Color("#4ade80")
	colorRed    = lipgloss.Color("#f87171")
	colorGray   = lipgloss.Color("#6b7280")

	// Structural
	colorDivider   = lipgloss.Color("#374151")
	colorHighlight = lipgloss.Color("#6366f1")
)

// ────────────────────────────────────────────────────────────
// Component Styles
// ────────────────────────────────────────────────────────────

// Header bar
var (
	headerBarStyle = lipgloss.NewStyle().
			Background(colorBgSurface).
			Foreground(colorText).
			Padding(0, 1)

	headerBrandStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorIndigo)

	headerSepStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	headerMetaStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	collectButtonStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorText).
				Background(colorHighlight).
				Padding(0, 1)

	collectBusyStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Background(colorGray).
				Padding(0, 1)
)

// Panel chrome
var (
	panelStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.Border{Top: "─"}).
			BorderForeground(colorDivider)

	panelActiveStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.Border{Top: "─"}).
				BorderForeground(colorIndigo)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(colorIndigo).
			Bold(true)

	panelTitleDimStyle = lipgloss.NewStyle().
				Foreground(colorTextDim).
				Bold(true)

	emptyStateStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Padding(1, 2)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)

// Range selector
var (
	rangeActiveStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Background(colorHighlight).
				Bold(true).
				Padding(0, 1)

	rangeIdleStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Padding(0, 1)
)

// Stat boxes
var (
	statLabelStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Bold(true)

	statMoneyStyle  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	statKillsStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	statDeathsStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// Progress tables
var (
	tableHeadStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Bold(true)

	tableNameStyle = lipgloss.NewStyle().
			Foreground(colorText)

	tableGainStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	tableTotalStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)

// Chart chips and legend
var (
	chipStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Padding(0, 1)

	chipSelectedStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Background(colorHighlight).
				Padding(0, 1)

	chipCursorStyle = lipgloss.NewStyle().
			Underline(true).
			Bold(true)

	chartAxisStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	chartLabelStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)

// Footer
var (
	statusStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Background(colorBgSurface).
		Padding(0, 1)
)

// seriesStyle colors the i-th selected series.
func seriesStyle(i int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Color(i)))
}
