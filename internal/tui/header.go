package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader produces the top bar:
//
//	SKYDASH  |  Latest data: 2024-03-10 12:00:00      Collect Latest Data
func renderHeader(m *Model) string {
	brand := headerBrandStyle.Render("SKYDASH")
	sep := headerSepStyle.Render(" │ ")

	status := ""
	if m.collectStatus != "" {
		status = sep + headerMetaStyle.Render(m.collectStatus)
	}
	left := brand + sep + headerMetaStyle.Render(m.info) + status

	var button string
	if m.collecting {
		button = collectBusyStyle.Render("Collecting...")
	} else {
		button = collectButtonStyle.Render("Collect Latest Data")
	}

	// headerBarStyle pads one column on each side.
	inner := m.width - 2
	gap := inner - lipgloss.Width(left) - lipgloss.Width(button)
	if gap < 1 {
		// Narrow: the snapshot info is cut before the collect status.
		room := inner - lipgloss.Width(brand+sep) - lipgloss.Width(status) - lipgloss.Width(button) - 1
		if room > 3 {
			left = brand + sep + headerMetaStyle.Render(truncate(m.info, room)) + status
		} else {
			rest := inner - lipgloss.Width(brand+sep) - lipgloss.Width(button) - 1
			left = brand + sep + headerMetaStyle.Render(truncate(m.collectStatus, maxInt(rest, 0)))
		}
		gap = maxInt(inner-lipgloss.Width(left)-lipgloss.Width(button), 0)
	}

	content := left + strings.Repeat(" ", gap) + button
	return headerBarStyle.Width(m.width).Render(content)
}

// renderFooter produces the bottom status bar with keyboard hints.
func renderFooter(m *Model) string {
	return statusStyle.Width(m.width).Render(m.help.View(m.keys))
}
