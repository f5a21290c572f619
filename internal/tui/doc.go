// Package tui implements the skydash terminal dashboard.
//
// Built with Charmbracelet's BubbleTea, Lipgloss and Bubbles, with
// ntcharts drawing the history charts.
//
// Component architecture:
//
//	model.go      root model, message routing, Init/Update, layout
//	theme.go      centralized color + style definitions
//	keys.go       key bindings and help
//	header.go     top bar with snapshot info and collect button, footer
//	stats.go      latest money, kills and deaths
//	progress.go   per-range progress tables
//	chart.go      history charts with series chips and legend
//	helpers.go    range cycling, chip windowing, truncation, etc.
//
// Every fetch goes through a client.Tracker slot, so a response that was
// superseded by a newer request for the same panel is dropped.
package tui
