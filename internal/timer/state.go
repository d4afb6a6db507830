package timer

import "fmt"

// State is the lifecycle position of a SessionTimer.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	// StateCommitting is only held while a stop hands its record to the committer.
	StateCommitting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCommitting:
		return "committing"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CommitStatus summarises the most recent commit attempt.
type CommitStatus string

const (
	CommitNone      CommitStatus = "none"
	CommitSucceeded CommitStatus = "succeeded"
	CommitFailed    CommitStatus = "failed"
)

// CommitResult records the outcome of a resolved commit.
type CommitResult struct {
	Status CommitStatus
	Token  string
	Reason FailureReason
}

// Controls carries the enabled flag of every timer control.
type Controls struct {
	Start bool
	Pause bool
	Stop  bool
}

var (
	idleControls    = Controls{Start: true}
	runningControls = Controls{Pause: true, Stop: true}
	pausedControls  = Controls{Start: true, Stop: true}
)

// Snapshot is a copy of the timer state taken on the owner goroutine.
type Snapshot struct {
	State          State
	ElapsedSeconds int
	ActivityKind   string
	LastCommit     CommitResult
	PendingCommits int
}

// FormatElapsed renders whole seconds as MM:SS. Minutes are not capped at 99.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
