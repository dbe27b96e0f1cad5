package tui

import (
	"charm.land/bubbles/v2/key"
)

type keyMap struct {
	Quit       key.Binding
	FocusNext  key.Binding
	FocusPrev  key.Binding
	Activate   key.Binding
	Cancel     key.Binding
	Up         key.Binding
	Down       key.Binding
	Refresh    key.Binding
	ToggleHelp key.Binding

	View1 key.Binding
	View2 key.Binding
	View3 key.Binding
	View4 key.Binding
	View5 key.Binding

	Submit key.Binding
	Toggle key.Binding

	StopSelected key.Binding
	EditStopID   key.Binding

	Dismiss key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		FocusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next focus"),
		),
		FocusPrev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev focus"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "activate"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "leave field"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "move down"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		View1: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "overview"),
		),
		View2: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "launch"),
		),
		View3: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "tasks"),
		),
		View4: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "history"),
		),
		View5: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "activity"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "start task"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("space", "left", "right"),
			key.WithHelp("space", "toggle option"),
		),
		StopSelected: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop selected"),
		),
		EditStopID: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "stop by id"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss alert"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.FocusNext,
		k.Activate,
		k.Up,
		k.Down,
		k.Refresh,
		k.ToggleHelp,
		k.Quit,
	}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.FocusNext, k.FocusPrev, k.Activate, k.Cancel, k.Refresh, k.ToggleHelp, k.Quit},
		{k.View1, k.View2, k.View3, k.View4, k.View5},
		{k.Submit, k.Toggle, k.StopSelected, k.EditStopID, k.Dismiss},
	}
}
