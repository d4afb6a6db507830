package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Strangemortal/Holistiq/internal/events"
)

const unlabelledKind = "unspecified"

// StatsHandler aggregates committed sessions into Prometheus counters.
type StatsHandler struct {
	logger *log.Logger
}

// NewStatsHandler constructs a StatsHandler. A nil logger uses the standard logger.
func NewStatsHandler(logger *log.Logger) *StatsHandler {
	if logger == nil {
		logger = log.New(log.Writer(), "[stats] ", log.LstdFlags)
	}
	return &StatsHandler{logger: logger}
}

// Handle implements Handler. Events other than session.committed are ignored.
func (h *StatsHandler) Handle(_ context.Context, msg Message) error {
	if msg.EventType != events.TypeSessionCommitted {
		return nil
	}

	var evt events.SessionCommitted
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("decode %s: %w", msg.EventType, err)
	}
	if evt.Surface == "" || evt.DurationMin < 1 {
		return fmt.Errorf("session %s: incomplete event (surface=%q, minutes=%d)", evt.SessionID, evt.Surface, evt.DurationMin)
	}

	kind := evt.ActivityKind
	if kind == "" {
		kind = unlabelledKind
	}
	sessionMinutes.WithLabelValues(evt.Surface, kind).Add(float64(evt.DurationMin))
	sessionCount.WithLabelValues(evt.Surface).Inc()
	h.logger.Printf("session %s: %d minute %s %s", evt.SessionID, evt.DurationMin, kind, evt.Surface)
	return nil
}
