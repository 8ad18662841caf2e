package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Popup actions
	Confirm key.Binding
	Dismiss key.Binding
	Report  key.Binding
	Edit    key.Binding

	// Title editing
	Save   key.Binding
	Cancel key.Binding

	// Application
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("c", "y", "enter"),
			key.WithHelp("c/enter", "confirm"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d", "n", "esc"),
			key.WithHelp("d/esc", "dismiss"),
		),
		Report: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "report misread"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "t"),
			key.WithHelp("e", "edit title"),
		),
		Save: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save and confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel edit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Dismiss, k.Edit, k.Help}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Confirm, k.Dismiss, k.Report, k.Edit},
		{k.Save, k.Cancel, k.Help, k.Quit},
	}
}

// editingKeys is the reduced map shown while the title is being edited.
type editingKeys struct{ KeyMap }

func (k editingKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Cancel}
}

func (k editingKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Save, k.Cancel}}
}
