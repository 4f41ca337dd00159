package roster

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the roster.
type KeyMap struct {
	// Table mode.
	Search    key.Binding
	Add       key.Binding
	Locate    key.Binding // Update the selected agent's location.
	Delete    key.Binding
	Increment key.Binding // Add one completed mission.
	Report    key.Binding
	Refresh   key.Binding
	Quit      key.Binding

	// Forms and dialogs.
	Next    key.Binding
	Prev    key.Binding
	Submit  key.Binding
	Cancel  key.Binding
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add"),
	),
	Locate: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "location"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d", "delete"),
		key.WithHelp("d", "delete"),
	),
	Increment: key.NewBinding(
		key.WithKeys("m", "+"),
		key.WithHelp("m", "+1 mission"),
	),
	Report: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "report"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("g", "f5"),
		key.WithHelp("g", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "yes"),
	),
	Deny: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
		key.WithHelp("n", "no"),
	),
}

// tableHelp lists the bindings shown in the footer of the table view.
func (k KeyMap) tableHelp() []key.Binding {
	return []key.Binding{k.Search, k.Add, k.Locate, k.Delete, k.Increment, k.Report, k.Refresh, k.Quit}
}

func (k KeyMap) formHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Submit, k.Cancel}
}
