package tui

import "github.com/charmbracelet/bubbles/key"

// SharedKeyMap defines keybindings available on all screens.
type SharedKeyMap struct {
	ForceQuit key.Binding
	Quit      key.Binding
}

// SharedKeys are available on all screens.
var SharedKeys = SharedKeyMap{
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "force quit"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
}

// TableKeyMap defines keybindings for the loads table.
type TableKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Edit      key.Binding
	Refresh   key.Binding
	Recompute key.Binding
	Columns   key.Binding
	FocusNext key.Binding
	FocusPrev key.Binding
}

// TableKeys are the keybindings for the table.
var TableKeys = TableKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Edit: key.NewBinding(
		key.WithKeys("enter", "e"),
		key.WithHelp("enter/e", "edit"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Recompute: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "recompute"),
	),
	Columns: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "columns"),
	),
	FocusNext: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "editor"),
	),
	FocusPrev: key.NewBinding(
		key.WithKeys("shift+tab"),
	),
}

// EditorKeyMap defines keybindings while a row is open for editing.
type EditorKeyMap struct {
	Toggle  key.Binding
	Save    key.Binding
	Cancel  key.Binding
	TabNext key.Binding
	TabPrev key.Binding
}

// EditorKeys are the keybindings for the editor pane.
var EditorKeys = EditorKeyMap{
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "toggle exception"),
	),
	Save: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "save"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	TabNext: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next"),
	),
	TabPrev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev"),
	),
}

// ConfirmKeyMap defines keybindings for confirmation dialogs.
type ConfirmKeyMap struct {
	Yes key.Binding
	No  key.Binding
}

// ConfirmKeys are the keybindings for confirmation dialogs.
var ConfirmKeys = ConfirmKeyMap{
	Yes: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "discard"),
	),
	No: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
		key.WithHelp("n/esc", "keep editing"),
	),
}

// ColumnsKeyMap defines keybindings for the columns panel.
type ColumnsKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Wider  key.Binding
	Narrow key.Binding
	Close  key.Binding
}

// ColumnsKeys are the keybindings for the columns panel.
var ColumnsKeys = ColumnsKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "enter"),
		key.WithHelp("space", "show/hide"),
	),
	Wider: key.NewBinding(
		key.WithKeys("+", "=", "right", "l"),
		key.WithHelp("+", "wider"),
	),
	Narrow: key.NewBinding(
		key.WithKeys("-", "left", "h"),
		key.WithHelp("-", "narrower"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc", "c"),
		key.WithHelp("esc", "close"),
	),
}
