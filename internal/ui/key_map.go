package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the browser.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	lookup  key.Binding
	remove  key.Binding
	sweep   key.Binding
	refresh key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		lookup:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "lookup")),
		remove:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		sweep:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sweep")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.lookup, k.remove, k.sweep, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.lookup},
		{k.remove, k.sweep, k.refresh},
		{k.back, k.yes, k.no, k.quit},
	}
}
