package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the control surface.
type keyMap struct {
	// Transport
	PlayPause key.Binding
	GoLive    key.Binding
	Redetect  key.Binding

	// Offset
	CatchUpBig   key.Binding
	DelayBig     key.Binding
	CatchUpSmall key.Binding
	DelaySmall   key.Binding

	// Global
	CycleTheme key.Binding
	ToggleLog  key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// defaultKeyMap returns the default key bindings.
func defaultKeyMap() keyMap {
	return keyMap{
		PlayPause: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "Hold / resume"),
		),
		GoLive: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "Go live"),
		),
		Redetect: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Re-detect player"),
		),
		CatchUpBig: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "Catch up 5s"),
		),
		DelayBig: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "Delay 5s more"),
		),
		CatchUpSmall: key.NewBinding(
			key.WithKeys("shift+left", "["),
			key.WithHelp("[", "Catch up 1s"),
		),
		DelaySmall: key.NewBinding(
			key.WithKeys("shift+right", "]"),
			key.WithHelp("]", "Delay 1s more"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		ToggleLog: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Toggle log panel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
	}
}

// actionBindings are the keys that talk to the page and respect the busy lock.
func (k keyMap) actionBindings() []key.Binding {
	return []key.Binding{k.PlayPause, k.GoLive, k.Redetect, k.CatchUpBig, k.DelayBig, k.CatchUpSmall, k.DelaySmall}
}
