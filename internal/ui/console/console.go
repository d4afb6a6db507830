// Package console implements a line-oriented timer UI for headless runs.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Strangemortal/Holistiq/internal/timer"
)

var _ timer.UI = (*UI)(nil)

// UI writes timer updates to an io.Writer, one line per event.
type UI struct {
	mu        sync.Mutex
	w         io.Writer
	prefix    string
	everyTick bool
	last      string
}

// Option configures a UI.
type Option func(*UI)

// WithEveryTick prints every display change instead of whole minutes only.
func WithEveryTick() Option {
	return func(u *UI) {
		u.everyTick = true
	}
}

// New constructs a UI labelled with surface.
func New(w io.Writer, surface string, opts ...Option) *UI {
	u := &UI{w: w, prefix: "[" + surface + "] "}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// SetDisplay implements timer.UI.
func (u *UI) SetDisplay(text string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if text == u.last {
		return
	}
	u.last = text
	if !u.everyTick && !strings.HasSuffix(text, ":00") {
		return
	}
	fmt.Fprintf(u.w, "%s%s\n", u.prefix, text)
}

// SetControlsEnabled implements timer.UI.
func (u *UI) SetControlsEnabled(c timer.Controls) {
	u.mu.Lock()
	defer u.mu.Unlock()

	var enabled []string
	if c.Start {
		enabled = append(enabled, "start")
	}
	if c.Pause {
		enabled = append(enabled, "pause")
	}
	if c.Stop {
		enabled = append(enabled, "stop")
	}
	fmt.Fprintf(u.w, "%scontrols: %s\n", u.prefix, strings.Join(enabled, ","))
}

// ShowNotification implements timer.UI.
func (u *UI) ShowNotification(n timer.Notification) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.w, "%s%s: %s\n", u.prefix, n.Level, n.Message)
}
