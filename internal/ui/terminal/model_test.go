package terminal

import (
	"bytes"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/Strangemortal/Holistiq/internal/timer"
	"github.com/Strangemortal/Holistiq/internal/ui/console"
)

type fakeController struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeController) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeController) Start()                   { f.record("start") }
func (f *fakeController) Pause()                   { f.record("pause") }
func (f *fakeController) Stop()                    { f.record("stop") }
func (f *fakeController) SetActivityKind(k string) { f.record("kind:" + k) }

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func press(m Model, r rune) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return next.(Model), cmd
}

func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestInitSelectsFirstKind(t *testing.T) {
	ctrl := &fakeController{}
	m := NewModel(timer.Workout, ctrl, []string{"cardio", "strength"})

	runCmd(m.Init())
	require.Equal(t, []string{"kind:cardio"}, ctrl.Calls())
	require.Equal(t, "cardio", m.Kind())
}

func TestKeysFollowEnabledControls(t *testing.T) {
	ctrl := &fakeController{}
	m := NewModel(timer.Workout, ctrl, nil)

	m, cmd := press(m, 'p')
	require.Nil(t, cmd, "pause is disabled while idle")

	m, cmd = press(m, 's')
	runCmd(cmd)
	require.Equal(t, []string{"start"}, ctrl.Calls())

	next, _ := m.Update(controlsMsg(timer.Controls{Pause: true, Stop: true}))
	m = next.(Model)

	_, cmd = press(m, 's')
	require.Nil(t, cmd, "start is disabled while running")

	m, cmd = press(m, 'p')
	runCmd(cmd)
	_, cmd = press(m, 'x')
	runCmd(cmd)
	require.Equal(t, []string{"start", "pause", "stop"}, ctrl.Calls())
}

func TestCycleKindWraps(t *testing.T) {
	ctrl := &fakeController{}
	m := NewModel(timer.Meditation, ctrl, []string{"mindfulness", "breathing", "sleep"})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(Model)
	runCmd(cmd)
	require.Equal(t, "sleep", m.Kind())

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(Model)
	runCmd(cmd)
	require.Equal(t, "mindfulness", m.Kind())
	require.Equal(t, []string{"kind:sleep", "kind:mindfulness"}, ctrl.Calls())
}

func TestViewRendersDisplayAndNotification(t *testing.T) {
	m := NewModel(timer.Workout, &fakeController{}, []string{"cardio"})

	next, _ := m.Update(displayMsg("02:05"))
	next, _ = next.Update(notificationMsg(timer.Notification{Level: timer.LevelSuccess, Message: "Great job! 2 minute cardio workout saved!"}))
	view := next.View()

	require.Contains(t, view, "Workout timer")
	require.Contains(t, view, "02:05")
	require.Contains(t, view, "Great job! 2 minute cardio workout saved!")

	m = next.(Model)
	m, _ = press(m, 's')
	require.NotContains(t, m.View(), "Great job!", "starting clears the previous notification")
}

func TestQuit(t *testing.T) {
	m := NewModel(timer.Workout, &fakeController{}, nil)
	_, cmd := press(m, 'q')
	require.IsType(t, tea.QuitMsg{}, runCmd(cmd))
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingSender) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func TestBridgeDropsBeforeAttachAndPreservesOrder(t *testing.T) {
	b := NewBridge()
	b.SetDisplay("00:01")

	sender := &recordingSender{}
	b.Attach(sender)
	b.SetDisplay("00:02")
	b.SetControlsEnabled(timer.Controls{Start: true})
	b.ShowNotification(timer.Notification{Level: timer.LevelWarning, Message: "Workout completed but not saved."})

	require.Eventually(t, func() bool { return sender.Len() == 3 }, time.Second, 5*time.Millisecond)
	b.Detach()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Equal(t, displayMsg("00:02"), sender.msgs[0])
	require.Equal(t, controlsMsg(timer.Controls{Start: true}), sender.msgs[1])
	require.Equal(t, notificationMsg(timer.Notification{Level: timer.LevelWarning, Message: "Workout completed but not saved."}), sender.msgs[2])
}

func TestBridgeIgnoresCallsAfterDetach(t *testing.T) {
	b := NewBridge()
	sender := &recordingSender{}
	b.Attach(sender)
	b.Detach()
	b.Detach()

	b.SetDisplay("00:03")
	require.Zero(t, sender.Len())
}

func TestBridgeReportsLateNotificationsToFallback(t *testing.T) {
	var out bytes.Buffer
	b := NewBridge(WithFallback(console.New(&out, "workout")))
	sender := &recordingSender{}
	b.Attach(sender)
	b.Detach()

	b.SetDisplay("00:00")
	b.SetControlsEnabled(timer.Controls{Start: true})
	b.ShowNotification(timer.Notification{Level: timer.LevelSuccess, Message: "Great job! 2 minute cardio workout saved!"})

	require.Equal(t, "[workout] success: Great job! 2 minute cardio workout saved!\n", out.String())
	require.Zero(t, sender.Len())
}

func TestBridgeWithoutFallbackDropsLateNotifications(t *testing.T) {
	b := NewBridge()
	b.Attach(&recordingSender{})
	b.Detach()

	require.NotPanics(t, func() {
		b.ShowNotification(timer.Notification{Level: timer.LevelWarning, Message: "Workout completed but not saved."})
	})
}
