package consumer

import "github.com/prometheus/client_golang/prometheus"

var (
	processedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "holistiq",
		Subsystem: "consumer",
		Name:      "messages_processed_total",
		Help:      "Session-topic messages handled and committed, by topic and event type.",
	}, []string{"topic", "event_type"})

	handlerErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "holistiq",
		Subsystem: "consumer",
		Name:      "handler_errors_total",
		Help:      "Session events left uncommitted because the handler failed, by topic and event type.",
	}, []string{"topic", "event_type"})

	decodeErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "holistiq",
		Subsystem: "consumer",
		Name:      "decode_errors_total",
		Help:      "Messages committed without handling because the event_type header or JSON payload was unusable.",
	}, []string{"topic"})

	lastMessageGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "holistiq",
		Subsystem: "consumer",
		Name:      "last_message_timestamp_seconds",
		Help:      "Kafka timestamp of the newest session event handled per topic, as Unix seconds.",
	}, []string{"topic"})

	sessionMinutes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "holistiq",
		Name:      "sessions_minutes_total",
		Help:      "Whole minutes of committed timer sessions by surface and activity kind.",
	}, []string{"surface", "activity_kind"})

	sessionCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "holistiq",
		Name:      "sessions_total",
		Help:      "Committed timer sessions by surface.",
	}, []string{"surface"})
)

func init() {
	prometheus.MustRegister(processedCounter, handlerErrorCounter, decodeErrorCounter, lastMessageGauge, sessionMinutes, sessionCount)
}

func recordProcessed(msg Message) {
	processedCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
	if !msg.Timestamp.IsZero() {
		lastMessageGauge.WithLabelValues(msg.Topic).Set(float64(msg.Timestamp.Unix()))
	}
}

func recordHandlerError(msg Message) {
	handlerErrorCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
}

func recordDecodeError(topic string) {
	decodeErrorCounter.WithLabelValues(topic).Inc()
}
