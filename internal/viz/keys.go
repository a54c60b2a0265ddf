package viz

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the player key bindings.
type KeyMap struct {
	Play      key.Binding
	Faster    key.Binding
	Slower    key.Binding
	Loop      key.Binding
	Mode      key.Binding
	Back      key.Binding
	Forward   key.Binding
	RangeDown key.Binding
	RangeUp   key.Binding
	Step      key.Binding
	Theme     key.Binding
	Grid      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Play:      key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		Faster:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		Slower:    key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
		Loop:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "toggle loop")),
		Mode:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "cumulative/window")),
		Back:      key.NewBinding(key.WithKeys("left", "["), key.WithHelp("←/[", "back one day")),
		Forward:   key.NewBinding(key.WithKeys("right", "]"), key.WithHelp("→/]", "forward one day")),
		RangeDown: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "range: fewer days")),
		RangeUp:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "range: more days")),
		Step:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "single step")),
		Theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "cycle theme")),
		Grid:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "toggle grid")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp is the one-line hint under the sidebar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Faster, k.Slower, k.Loop, k.Help, k.Quit}
}

// FullHelp lists every binding for the help overlay.
func (k KeyMap) FullHelp() []key.Binding {
	return []key.Binding{
		k.Play, k.Faster, k.Slower, k.Loop, k.Mode, k.Back, k.Forward,
		k.RangeDown, k.RangeUp, k.Step, k.Theme, k.Grid, k.Help, k.Quit,
	}
}
