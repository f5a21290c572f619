package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextPanel key.Binding
	PrevPanel key.Binding
	NextRange key.Binding
	PrevRange key.Binding
	Left      key.Binding
	Right     key.Binding
	Toggle    key.Binding
	Up        key.Binding
	Down      key.Binding
	Collect   key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextPanel: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next panel")),
		PrevPanel: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev panel")),
		NextRange: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "next range")),
		PrevRange: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "prev range")),
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev series")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next series")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle series")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
		Collect:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "collect")),
		Refresh:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPanel, k.NextRange, k.Toggle, k.Collect, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextPanel, k.PrevPanel, k.NextRange, k.PrevRange},
		{k.Left, k.Right, k.Toggle},
		{k.Up, k.Down},
		{k.Collect, k.Refresh, k.Help, k.Quit},
	}
}
