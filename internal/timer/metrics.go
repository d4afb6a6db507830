package timer

import "github.com/prometheus/client_golang/prometheus"

var (
	tickCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "holistiq",
		Subsystem: "timer",
		Name:      "ticks_total",
		Help:      "Number of one-second ticks counted while a timer was running.",
	}, []string{"surface"})

	commitCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "holistiq",
		Subsystem: "timer",
		Name:      "commits_total",
		Help:      "Number of resolved session commits grouped by outcome.",
	}, []string{"surface", "outcome"})

	discardedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "holistiq",
		Subsystem: "timer",
		Name:      "sessions_discarded_total",
		Help:      "Number of stopped sessions shorter than one minute that were not committed.",
	}, []string{"surface"})
)

func init() {
	prometheus.MustRegister(tickCounter, commitCounter, discardedCounter)
}
