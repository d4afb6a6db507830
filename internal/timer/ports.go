package timer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// NotificationLevel selects how a notification is presented.
type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelWarning NotificationLevel = "warning"
)

// Notification is a one-shot message shown when a commit resolves.
type Notification struct {
	Level   NotificationLevel
	Message string
}

// UI is the rendering surface a timer reports to. Methods are invoked from the
// timer's owner goroutine and must not block.
type UI interface {
	SetDisplay(text string)
	SetControlsEnabled(controls Controls)
	ShowNotification(n Notification)
}

// SessionRecord is the summary of a completed session handed to a Committer.
type SessionRecord struct {
	Token           string
	Surface         string
	ActivityKind    string
	DurationMinutes int
}

// Committer submits completed sessions to the backend.
type Committer interface {
	Commit(ctx context.Context, record SessionRecord) error
}

// CommitterFunc adapts a function to Committer.
type CommitterFunc func(ctx context.Context, record SessionRecord) error

// Commit calls f.
func (f CommitterFunc) Commit(ctx context.Context, record SessionRecord) error {
	return f(ctx, record)
}

// FailureReason classifies why a commit was lost.
type FailureReason string

const (
	ReasonTransport   FailureReason = "transport"
	ReasonApplication FailureReason = "application"
)

// CommitError is returned by committers when a session could not be saved.
type CommitError struct {
	Reason FailureReason
	Err    error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed (%s): %v", e.Reason, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// ReasonOf classifies err. Errors that are not a CommitError count as transport failures.
func ReasonOf(err error) FailureReason {
	var commitErr *CommitError
	if errors.As(err, &commitErr) && commitErr.Reason != "" {
		return commitErr.Reason
	}
	return ReasonTransport
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Ticker is the periodic scheduling primitive driving a running timer.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

// NewTicker wraps time.NewTicker.
func NewTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

type stdTicker struct {
	t *time.Ticker
}

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

type nopUI struct{}

func (nopUI) SetDisplay(string)             {}
func (nopUI) SetControlsEnabled(Controls)   {}
func (nopUI) ShowNotification(Notification) {}
