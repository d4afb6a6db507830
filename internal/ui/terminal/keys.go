package terminal

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/Strangemortal/Holistiq/internal/timer"
)

type keyMap struct {
	Start key.Binding
	Pause key.Binding
	Stop  key.Binding
	Prev  key.Binding
	Next  key.Binding
	Quit  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Start: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Pause: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
		Stop:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Prev:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "activity")),
		Next:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("←/→", "activity")),
		Quit:  key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

// apply mirrors the timer's enabled controls onto the bindings, so disabled
// actions neither match nor show in help.
func (k *keyMap) apply(c timer.Controls) {
	k.Start.SetEnabled(c.Start)
	k.Pause.SetEnabled(c.Pause)
	k.Stop.SetEnabled(c.Stop)
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Stop, k.Next, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Pause, k.Stop},
		{k.Prev, k.Next, k.Quit},
	}
}
