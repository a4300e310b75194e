package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the audit-delivery gap and the consumer pipeline. A publish
// failure after a committed mutation never fails the request, so these
// counters are the only way the gap is visible.
var (
	ChangePublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_change_publish_failures_total",
		Help: "Total number of change events that could not be published after retries",
	})
	ChangeEventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_change_events_processed_total",
		Help: "Total number of change events persisted to the change log",
	})
	ChangeEventsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_change_events_deduplicated_total",
		Help: "Total number of redelivered change events dropped by the dedup key",
	})
	ChangeEventsDeadLettered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_change_events_dead_lettered_total",
		Help: "Total number of change events shipped to the dead-letter queue",
	})
)
