package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/skydash/internal/client"
	"github.com/Mr-Dark-debug/skydash/pkg/numfmt"
)

// statsPanel holds the headline numbers of the newest snapshot.
type statsPanel struct {
	loaded bool
	failed bool
	latest *int64
	stats  *client.ProfileStats
}

// statValues returns the formatted money, kills and deaths, or "..." while
// nothing has been loaded.
func (p statsPanel) statValues() (money, kills, deaths string) {
	if p.stats == nil {
		return "...", "...", "..."
	}
	return numfmt.Round(p.stats.TotalMoney()),
		numfmt.Round(p.stats.Kills),
		numfmt.Round(p.stats.DeathCount)
}

// renderStatsPanel draws three stat boxes across width.
func renderStatsPanel(m *Model, width int) string {
	money, kills, deaths := m.stats.statValues()

	boxWidth := width / 3
	last := width - 2*boxWidth
	return lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Total Money", statMoneyStyle.Render(money), boxWidth),
		statBox("Total Kills", statKillsStyle.Render(kills), boxWidth),
		statBox("Total Deaths", statDeathsStyle.Render(deaths), last),
	)
}

func statBox(label, value string, width int) string {
	body := statLabelStyle.Render(label) + "\n" + value
	return panelStyle.Width(width).Render(body)
}

// renderStatsLine is the single-line form used by the compact layout.
func renderStatsLine(m *Model, width int) string {
	money, kills, deaths := m.stats.statValues()
	parts := []string{
		statLabelStyle.Render("Money ") + statMoneyStyle.Render(money),
		statLabelStyle.Render("Kills ") + statKillsStyle.Render(kills),
		statLabelStyle.Render("Deaths ") + statDeathsStyle.Render(deaths),
	}
	line := strings.Join(parts, headerSepStyle.Render("  ·  "))
	return lipgloss.NewStyle().Padding(0, 1).MaxWidth(width).Render(line)
}
