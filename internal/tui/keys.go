package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Stop     key.Binding
	Delete   key.Binding
	Edit     key.Binding
	Export   key.Binding
	Latest1  key.Binding
	Latest5  key.Binding
	Latest10 key.Binding
	AllRows  key.Binding
	Help     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Up       key.Binding
	Down     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Stop: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "stop timer"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete last"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Export: key.NewBinding(
		key.WithKeys("ctrl+e"),
		key.WithHelp("ctrl+e", "export"),
	),
	Latest1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "latest"),
	),
	Latest5: key.NewBinding(
		key.WithKeys("5"),
		key.WithHelp("5", "latest 5"),
	),
	Latest10: key.NewBinding(
		key.WithKeys("0"),
		key.WithHelp("0", "latest 10"),
	),
	AllRows: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "all"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Back, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Back},
		{k.Stop, k.Delete, k.Edit, k.Export},
		{k.Latest1, k.Latest5, k.Latest10, k.AllRows},
		{k.Help, k.Quit},
	}
}
