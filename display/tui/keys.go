package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings for the dashboard.
// It implements the help.KeyMap interface for bubbles/help integration.
type keyMap struct {
	Quit     key.Binding
	Export   key.Binding
	Next     key.Binding
	Prev     key.Binding
	Maximize key.Binding
	Help     key.Binding
}

// ShortHelp returns the compact set of keybindings shown by default in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Export, k.Maximize, k.Quit}
}

// FullHelp returns the expanded keybinding groups shown when help is toggled.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Maximize},
		{k.Export, k.Help, k.Quit},
	}
}

// keys holds the default key bindings used by the application.
var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q/esc", "quit")),
	Export:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export now")),
	Next:     key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab", "next panel")),
	Prev:     key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab", "prev panel")),
	Maximize: key.NewBinding(key.WithKeys("enter", "z"), key.WithHelp("enter/click", "maximize")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}
