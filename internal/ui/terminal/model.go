// Package terminal renders a timer view in the terminal with Bubble Tea.
package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Strangemortal/Holistiq/internal/timer"
)

// Controller is the subset of *timer.SessionTimer the view drives.
type Controller interface {
	Start()
	Pause()
	Stop()
	SetActivityKind(string)
}

// Model is the Bubble Tea model of one timer view. Timer state reaches it
// only through the messages a Bridge forwards.
type Model struct {
	surface  timer.Surface
	ctrl     Controller
	kinds    []string
	kindIdx  int
	display  string
	controls timer.Controls
	note     *timer.Notification
	keys     keyMap
	help     help.Model
	width    int
}

// NewModel constructs a Model. kinds is the activity catalog for surface;
// the first entry is selected.
func NewModel(surface timer.Surface, ctrl Controller, kinds []string) Model {
	m := Model{
		surface:  surface,
		ctrl:     ctrl,
		kinds:    kinds,
		display:  timer.FormatElapsed(0),
		controls: timer.Controls{Start: true},
		keys:     defaultKeys(),
		help:     help.New(),
	}
	m.keys.apply(m.controls)
	return m
}

// Init selects the initial activity kind.
func (m Model) Init() tea.Cmd {
	return m.selectKind()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case displayMsg:
		m.display = string(msg)

	case controlsMsg:
		m.controls = timer.Controls(msg)
		m.keys.apply(m.controls)

	case notificationMsg:
		n := timer.Notification(msg)
		m.note = &n

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// Timer calls run as commands: they block on the timer goroutine, which in
// turn reports back through the program.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Start):
		m.note = nil
		return m, m.run(m.ctrl.Start)
	case key.Matches(msg, m.keys.Pause):
		return m, m.run(m.ctrl.Pause)
	case key.Matches(msg, m.keys.Stop):
		return m, m.run(m.ctrl.Stop)
	case key.Matches(msg, m.keys.Prev):
		return m.cycleKind(-1)
	case key.Matches(msg, m.keys.Next):
		return m.cycleKind(1)
	}
	return m, nil
}

func (m Model) cycleKind(step int) (tea.Model, tea.Cmd) {
	if len(m.kinds) == 0 {
		return m, nil
	}
	m.kindIdx = (m.kindIdx + step + len(m.kinds)) % len(m.kinds)
	return m, m.selectKind()
}

func (m Model) selectKind() tea.Cmd {
	kind := m.Kind()
	if kind == "" {
		return nil
	}
	return m.run(func() { m.ctrl.SetActivityKind(kind) })
}

func (m Model) run(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

// Kind returns the selected activity kind.
func (m Model) Kind() string {
	if len(m.kinds) == 0 {
		return ""
	}
	return m.kinds[m.kindIdx]
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(title(m.surface.Name) + " timer"))
	b.WriteString("\n")
	b.WriteString(clockStyle.Render(m.display))
	b.WriteString("\n")

	if len(m.kinds) > 0 {
		parts := make([]string, len(m.kinds))
		for i, k := range m.kinds {
			if i == m.kindIdx {
				parts[i] = activeKindStyle.Render(k)
			} else {
				parts[i] = kindStyle.Render(k)
			}
		}
		b.WriteString(strings.Join(parts, "  "))
		b.WriteString("\n\n")
	}

	if m.note != nil {
		style := successStyle
		if m.note.Level == timer.LevelWarning {
			style = warningStyle
		}
		b.WriteString(style.Render(m.note.Message))
		b.WriteString("\n\n")
	}

	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func title(name string) string {
	if name == "" {
		return "Session"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Run starts the view for t on the current terminal and blocks until the
// user quits. bridge must be the UI t was constructed with.
func Run(t Controller, bridge *Bridge, surface timer.Surface, kinds []string) error {
	program := tea.NewProgram(NewModel(surface, t, kinds))
	bridge.Attach(program)
	defer bridge.Detach()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}
