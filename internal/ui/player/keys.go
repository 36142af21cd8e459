package player

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the display's own shortcuts. Space and the arrow keys belong
// to the transport and are not listed here.
type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Shuffle  key.Binding
	Repeat   key.Binding
	Mute     key.Binding
	Down     key.Binding
	Up       key.Binding
	PlayRow  key.Binding
	Download key.Binding
	Filter   key.Binding
	Reload   key.Binding
	Quit     key.Binding

	// Shown in help only
	Toggle key.Binding
	Seek   key.Binding
	Volume key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Prev:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev")),
		Shuffle:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		Repeat:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		Mute:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Down:     key.NewBinding(key.WithKeys("j", "pgdown"), key.WithHelp("j/k", "select")),
		Up:       key.NewBinding(key.WithKeys("k", "pgup")),
		PlayRow:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		Download: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Reload:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Seek:   key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "seek")),
		Volume: key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "volume")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Next, k.Prev, k.Seek, k.Volume, k.Shuffle, k.Repeat, k.Mute, k.Down, k.Download, k.Filter, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Next, k.Prev, k.Seek, k.Volume},
		{k.Shuffle, k.Repeat, k.Mute},
		{k.Down, k.PlayRow, k.Download, k.Filter, k.Reload, k.Quit},
	}
}
