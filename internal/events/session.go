// Package events defines the payloads published when sessions are recorded.
package events

import "time"

const (
	// TypeSessionCommitted is the event_type header of SessionCommitted messages.
	TypeSessionCommitted = "session.committed"
	// DefaultTopic carries every session event.
	DefaultTopic = "session_events"
)

// SessionCommitted is emitted once a timer session has been persisted.
type SessionCommitted struct {
	SessionID    string    `json:"session_id"`
	Surface      string    `json:"surface"`
	ActivityKind string    `json:"activity_kind"`
	DurationMin  int       `json:"duration_min"`
	RecordedAt   time.Time `json:"recorded_at"`
}
