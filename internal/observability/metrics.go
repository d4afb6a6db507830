// Package observability holds process-wide metrics shared by the API and its stores.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	sessionPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "holistiq",
		Subsystem: "persistence",
		Name:      "last_session_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent session record persisted.",
	})
	sessionsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "holistiq",
		Subsystem: "api",
		Name:      "sessions_recorded_total",
		Help:      "Number of sessions accepted by the API, labeled by surface.",
	}, []string{"surface"})
	sessionsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "holistiq",
		Subsystem: "api",
		Name:      "sessions_rejected_total",
		Help:      "Number of session commits rejected by the API, labeled by reason.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(sessionPersistGauge, sessionsRecorded, sessionsRejected)
}

// RecordSessionPersisted updates the persistence watermark gauge.
func RecordSessionPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	sessionPersistGauge.Set(float64(ts.Unix()))
}

// RecordSessionAccepted counts a session stored through the API.
func RecordSessionAccepted(surface string) {
	sessionsRecorded.WithLabelValues(surface).Inc()
}

// RecordSessionRejected counts a session the API refused.
func RecordSessionRejected(reason string) {
	sessionsRejected.WithLabelValues(reason).Inc()
}
