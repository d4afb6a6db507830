// Package timer implements the pausable activity timer shared by the workout and
// meditation views, and the hand-off of completed sessions to the backend.
//
// A SessionTimer owns a single goroutine. Every operation, tick and commit
// outcome is a message to that goroutine, so no state is shared across
// goroutines and the UI is only ever called from one place.
package timer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultCommitTimeout = 10 * time.Second

type opcode int

const (
	opStart opcode = iota
	opPause
	opStop
	opSetKind
	opSnapshot
	opFlush
)

type command struct {
	op      opcode
	kind    string
	flushed chan struct{}
	reply   chan Snapshot
}

type outcome struct {
	record SessionRecord
	err    error
}

// Option configures optional behaviour for a SessionTimer.
type Option func(*SessionTimer)

// WithLogger overrides the logger used to report commit outcomes.
func WithLogger(logger *log.Logger) Option {
	return func(t *SessionTimer) {
		t.logger = logger
	}
}

// WithTicker replaces the scheduling primitive, mainly for tests.
func WithTicker(fn TickerFunc) Option {
	return func(t *SessionTimer) {
		t.newTicker = fn
	}
}

// WithClock replaces the time source used to account for part-second runs.
func WithClock(clock Clock) Option {
	return func(t *SessionTimer) {
		t.clock = clock
	}
}

// WithCommitTimeout bounds a single commit request.
func WithCommitTimeout(d time.Duration) Option {
	return func(t *SessionTimer) {
		if d > 0 {
			t.commitTimeout = d
		}
	}
}

// SessionTimer measures a pausable activity and commits it on stop.
type SessionTimer struct {
	surface       Surface
	committer     Committer
	ui            UI
	logger        *log.Logger
	newTicker     TickerFunc
	clock         Clock
	commitTimeout time.Duration

	commands  chan command
	outcomes  chan outcome
	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once

	// Fields below are owned by run.
	state   State
	elapsed int
	kind    string
	last    CommitResult
	pending int
	ticker  Ticker
	waiters []chan struct{}

	// mark is the instant the next whole second is counted from. carry holds
	// the part-second run left over from the last pause.
	mark   time.Time
	carry  time.Duration
	leadIn bool
}

// New constructs a SessionTimer for surface and starts its owner goroutine.
// A nil ui discards all rendering.
func New(surface Surface, committer Committer, ui UI, opts ...Option) *SessionTimer {
	if ui == nil {
		ui = nopUI{}
	}
	t := &SessionTimer{
		surface:       surface,
		committer:     committer,
		ui:            ui,
		logger:        log.New(log.Writer(), "[timer] ", log.LstdFlags|log.Lshortfile),
		newTicker:     NewTicker,
		clock:         systemClock{},
		commitTimeout: defaultCommitTimeout,
		commands:      make(chan command),
		outcomes:      make(chan outcome),
		done:          make(chan struct{}),
		loopDone:      make(chan struct{}),
		state:         StateIdle,
		last:          CommitResult{Status: CommitNone},
	}
	for _, opt := range opts {
		opt(t)
	}
	go t.run()
	return t
}

// Start begins or resumes counting. It is a no-op while running.
func (t *SessionTimer) Start() { t.send(command{op: opStart}) }

// Pause halts counting. It is a no-op unless running.
func (t *SessionTimer) Pause() { t.send(command{op: opPause}) }

// Stop ends the session, resets the timer and, when at least one whole minute
// was counted, commits the session in the background. Stop returns before the
// commit resolves.
func (t *SessionTimer) Stop() { t.send(command{op: opStop}) }

// SetActivityKind records the label attached to the next committed session.
func (t *SessionTimer) SetActivityKind(kind string) {
	t.send(command{op: opSetKind, kind: kind})
}

// Snapshot returns the current state. After Close it returns the zero Snapshot.
func (t *SessionTimer) Snapshot() Snapshot {
	snap, _ := t.send(command{op: opSnapshot})
	return snap
}

// Flush blocks until every commit issued so far has resolved and been reported.
func (t *SessionTimer) Flush(ctx context.Context) error {
	flushed := make(chan struct{})
	if _, ok := t.send(command{op: opFlush, flushed: flushed}); !ok {
		return nil
	}
	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears the timer down. Commits still in flight run to completion but
// their outcome is no longer reported to the UI.
func (t *SessionTimer) Close() {
	t.closeOnce.Do(func() { close(t.done) })
	<-t.loopDone
}

func (t *SessionTimer) send(cmd command) (Snapshot, bool) {
	cmd.reply = make(chan Snapshot, 1)
	select {
	case t.commands <- cmd:
	case <-t.done:
		return Snapshot{}, false
	}
	select {
	case snap := <-cmd.reply:
		return snap, true
	case <-t.loopDone:
		select {
		case snap := <-cmd.reply:
			return snap, true
		default:
			return Snapshot{}, false
		}
	}
}

func (t *SessionTimer) run() {
	defer close(t.loopDone)

	t.ui.SetDisplay(FormatElapsed(0))
	t.ui.SetControlsEnabled(idleControls)

	for {
		var tickC <-chan time.Time
		if t.ticker != nil {
			tickC = t.ticker.C()
		}

		select {
		case <-t.done:
			t.haltTicker()
			t.releaseWaiters()
			return
		case cmd := <-t.commands:
			t.handle(cmd)
		case <-tickC:
			t.tick()
		case out := <-t.outcomes:
			t.resolve(out)
		}
	}
}

func (t *SessionTimer) handle(cmd command) {
	switch cmd.op {
	case opStart:
		t.start()
	case opPause:
		t.pause()
	case opStop:
		t.stop()
	case opSetKind:
		t.kind = cmd.kind
	case opFlush:
		if t.pending == 0 {
			close(cmd.flushed)
		} else {
			t.waiters = append(t.waiters, cmd.flushed)
		}
	}
	cmd.reply <- t.snapshot()
}

func (t *SessionTimer) start() {
	if t.state == StateRunning {
		return
	}
	t.mark = t.clock.Now().Add(-t.carry)
	if t.carry > 0 {
		// The first tick completes the second begun before the pause.
		t.ticker = t.newTicker(time.Second - t.carry)
		t.leadIn = true
	} else {
		t.ticker = t.newTicker(time.Second)
	}
	t.carry = 0
	t.state = StateRunning
	t.ui.SetControlsEnabled(runningControls)
}

func (t *SessionTimer) pause() {
	if t.state != StateRunning {
		return
	}
	t.haltTicker()
	t.carry = t.settle()
	t.state = StatePaused
	t.ui.SetControlsEnabled(pausedControls)
}

func (t *SessionTimer) stop() {
	if t.state != StateRunning && t.state != StatePaused {
		return
	}
	if t.state == StateRunning {
		t.haltTicker()
		t.settle()
	}
	t.carry = 0
	t.leadIn = false

	minutes := t.elapsed / 60
	if minutes >= 1 {
		t.state = StateCommitting
		t.dispatch(SessionRecord{
			Token:           uuid.NewString(),
			Surface:         t.surface.Name,
			ActivityKind:    t.kind,
			DurationMinutes: minutes,
		})
	} else {
		discardedCounter.WithLabelValues(t.surface.Name).Inc()
	}

	t.elapsed = 0
	t.state = StateStopped
	t.ui.SetDisplay(FormatElapsed(0))
	t.ui.SetControlsEnabled(idleControls)
}

func (t *SessionTimer) tick() {
	if t.state != StateRunning {
		return
	}
	if t.leadIn {
		t.ticker.Stop()
		t.ticker = t.newTicker(time.Second)
		t.leadIn = false
	}
	t.mark = t.mark.Add(time.Second)
	t.elapsed++
	tickCounter.WithLabelValues(t.surface.Name).Inc()
	t.ui.SetDisplay(FormatElapsed(t.elapsed))
}

// settle credits whole seconds of the current run that no tick delivered and
// returns the part-second remainder.
func (t *SessionTimer) settle() time.Duration {
	run := t.clock.Now().Sub(t.mark)
	if run <= 0 {
		return 0
	}
	if whole := int(run / time.Second); whole > 0 {
		t.elapsed += whole
		t.mark = t.mark.Add(time.Duration(whole) * time.Second)
		tickCounter.WithLabelValues(t.surface.Name).Add(float64(whole))
		t.ui.SetDisplay(FormatElapsed(t.elapsed))
	}
	return run % time.Second
}

// dispatch runs the commit on its own goroutine and routes the outcome back to run.
func (t *SessionTimer) dispatch(record SessionRecord) {
	t.pending++
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.commitTimeout)
		err := t.committer.Commit(ctx, record)
		cancel()

		select {
		case t.outcomes <- outcome{record: record, err: err}:
		case <-t.loopDone:
			t.logger.Printf("%s session %s resolved after teardown (err=%v)", record.Surface, record.Token, err)
		}
	}()
}

func (t *SessionTimer) resolve(out outcome) {
	t.pending--

	if out.err != nil {
		reason := ReasonOf(out.err)
		t.last = CommitResult{Status: CommitFailed, Token: out.record.Token, Reason: reason}
		commitCounter.WithLabelValues(t.surface.Name, string(CommitFailed)).Inc()
		t.logger.Printf("%s session %s not saved (reason=%s, minutes=%d): %v",
			out.record.Surface, out.record.Token, reason, out.record.DurationMinutes, out.err)
		t.ui.ShowNotification(Notification{Level: LevelWarning, Message: t.surface.FailureMessage})
	} else {
		t.last = CommitResult{Status: CommitSucceeded, Token: out.record.Token}
		commitCounter.WithLabelValues(t.surface.Name, string(CommitSucceeded)).Inc()
		t.ui.ShowNotification(Notification{Level: LevelSuccess, Message: t.surface.successMessage(out.record)})
	}

	if t.pending == 0 {
		t.releaseWaiters()
	}
}

func (t *SessionTimer) haltTicker() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
	t.leadIn = false
}

func (t *SessionTimer) releaseWaiters() {
	for _, w := range t.waiters {
		close(w)
	}
	t.waiters = nil
}

func (t *SessionTimer) snapshot() Snapshot {
	return Snapshot{
		State:          t.state,
		ElapsedSeconds: t.elapsed,
		ActivityKind:   t.kind,
		LastCommit:     t.last,
		PendingCommits: t.pending,
	}
}
