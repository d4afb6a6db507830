package terminal

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Strangemortal/Holistiq/internal/timer"
)

const bridgeBuffer = 64

// Sender is the part of *tea.Program the bridge needs.
type Sender interface {
	Send(tea.Msg)
}

var _ timer.UI = (*Bridge)(nil)

type displayMsg string

type controlsMsg timer.Controls

type notificationMsg timer.Notification

// Bridge implements timer.UI by forwarding every call to a Bubble Tea program.
// Calls made before Attach are dropped. A single pump goroutine preserves
// call order and keeps the timer from waiting on the program's event loop.
type Bridge struct {
	mu       sync.Mutex
	events   chan tea.Msg
	done     chan struct{}
	attached bool
	closed   bool
	wg       sync.WaitGroup
	fallback timer.UI
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithFallback routes notifications that arrive after Detach to ui, so
// commits resolving after the program exits are still reported.
func WithFallback(ui timer.UI) BridgeOption {
	return func(b *Bridge) {
		b.fallback = ui
	}
}

// NewBridge constructs an unattached Bridge.
func NewBridge(opts ...BridgeOption) *Bridge {
	b := &Bridge{
		events: make(chan tea.Msg, bridgeBuffer),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach starts forwarding to s. Subsequent calls are ignored.
func (b *Bridge) Attach(s Sender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attached || b.closed {
		return
	}
	b.attached = true
	b.wg.Add(1)
	go b.pump(s)
}

// Detach stops forwarding. Pending events are discarded.
func (b *Bridge) Detach() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()
	b.wg.Wait()
}

// SetDisplay implements timer.UI.
func (b *Bridge) SetDisplay(text string) { b.forward(displayMsg(text)) }

// SetControlsEnabled implements timer.UI.
func (b *Bridge) SetControlsEnabled(c timer.Controls) { b.forward(controlsMsg(c)) }

// ShowNotification implements timer.UI.
func (b *Bridge) ShowNotification(n timer.Notification) {
	b.mu.Lock()
	late := b.closed && b.fallback != nil
	b.mu.Unlock()
	if late {
		b.fallback.ShowNotification(n)
		return
	}
	b.forward(notificationMsg(n))
}

func (b *Bridge) forward(msg tea.Msg) {
	b.mu.Lock()
	live := b.attached && !b.closed
	b.mu.Unlock()
	if !live {
		return
	}
	select {
	case b.events <- msg:
	case <-b.done:
	}
}

func (b *Bridge) pump(s Sender) {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case msg := <-b.events:
			s.Send(msg)
		}
	}
}
