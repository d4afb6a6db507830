package consumer

import (
	"context"
	"encoding/json"
	"log"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestStatsHandlerCountsMinutes(t *testing.T) {
	h := NewStatsHandler(log.New(testWriter{t}, "", 0))

	minutesBefore := testutil.ToFloat64(sessionMinutes.WithLabelValues("meditation", "breathing"))
	countBefore := testutil.ToFloat64(sessionCount.WithLabelValues("meditation"))

	msg := Message{
		EventType: "session.committed",
		Payload:   json.RawMessage(`{"session_id":"s1","surface":"meditation","activity_kind":"breathing","duration_min":7}`),
	}
	require.NoError(t, h.Handle(context.Background(), msg))
	require.NoError(t, h.Handle(context.Background(), msg))

	require.InDelta(t, minutesBefore+14, testutil.ToFloat64(sessionMinutes.WithLabelValues("meditation", "breathing")), 0.0001)
	require.InDelta(t, countBefore+2, testutil.ToFloat64(sessionCount.WithLabelValues("meditation")), 0.0001)
}

func TestStatsHandlerLabelsMissingKind(t *testing.T) {
	h := NewStatsHandler(log.New(testWriter{t}, "", 0))
	before := testutil.ToFloat64(sessionMinutes.WithLabelValues("workout", unlabelledKind))

	err := h.Handle(context.Background(), Message{
		EventType: "session.committed",
		Payload:   json.RawMessage(`{"session_id":"s2","surface":"workout","duration_min":2}`),
	})
	require.NoError(t, err)
	require.InDelta(t, before+2, testutil.ToFloat64(sessionMinutes.WithLabelValues("workout", unlabelledKind)), 0.0001)
}

func TestStatsHandlerIgnoresOtherEvents(t *testing.T) {
	h := NewStatsHandler(log.New(testWriter{t}, "", 0))
	require.NoError(t, h.Handle(context.Background(), Message{EventType: "session.deleted", Payload: json.RawMessage(`null`)}))
}

func TestStatsHandlerRejectsIncompleteEvents(t *testing.T) {
	h := NewStatsHandler(log.New(testWriter{t}, "", 0))

	err := h.Handle(context.Background(), Message{
		EventType: "session.committed",
		Payload:   json.RawMessage(`{"session_id":"s3","surface":"workout","duration_min":0}`),
	})
	require.ErrorContains(t, err, "incomplete event")

	err = h.Handle(context.Background(), Message{EventType: "session.committed", Payload: json.RawMessage(`[]`)})
	require.Error(t, err)
}
