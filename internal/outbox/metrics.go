package outbox

import "github.com/prometheus/client_golang/prometheus"

var (
	publishedEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "holistiq",
		Subsystem: "outbox",
		Name:      "session_events_published_total",
		Help:      "Committed-session events written to the session topic and marked published.",
	})

	releasedEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "holistiq",
		Subsystem: "outbox",
		Name:      "session_events_released_total",
		Help:      "Committed-session events whose Kafka write failed; their claim is cleared so the next poll retries them.",
	})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "holistiq",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time from claiming a batch of session events to marking it published or released.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(publishedEvents, releasedEvents, batchDuration)
}
