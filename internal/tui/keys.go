package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings for every screen. Intake only reacts to the
// field and submit keys so that letters reach the path input.
type keyMap struct {
	ForceQuit   key.Binding
	Quit        key.Binding
	Cancel      key.Binding
	Submit      key.Binding
	Field       key.Binding
	FieldBack   key.Binding
	OptionPrev  key.Binding
	OptionNext  key.Binding
	Select      key.Binding
	Next        key.Binding
	Previous    key.Binding
	Flip        key.Binding
	Reset       key.Binding
	NewDocument key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ForceQuit:   key.NewBinding(key.WithKeys("ctrl+c")),
		Quit:        key.NewBinding(key.WithKeys("q")),
		Cancel:      key.NewBinding(key.WithKeys("esc")),
		Submit:      key.NewBinding(key.WithKeys("enter")),
		Field:       key.NewBinding(key.WithKeys("tab", "down")),
		FieldBack:   key.NewBinding(key.WithKeys("shift+tab", "up")),
		OptionPrev:  key.NewBinding(key.WithKeys("left")),
		OptionNext:  key.NewBinding(key.WithKeys("right")),
		Select:      key.NewBinding(key.WithKeys("a", "b", "c", "d", "A", "B", "C", "D")),
		Next:        key.NewBinding(key.WithKeys("enter", "right", "l")),
		Previous:    key.NewBinding(key.WithKeys("left", "h")),
		Flip:        key.NewBinding(key.WithKeys(" ", "space")),
		Reset:       key.NewBinding(key.WithKeys("r")),
		NewDocument: key.NewBinding(key.WithKeys("n")),
	}
}
