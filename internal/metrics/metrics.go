// Package metrics provides Prometheus metrics for videoview playback coordination.
//
// Labels are bounded enumerations (command names, event names, lifecycle
// signals); view IDs and URIs are never used as labels.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsTotal counts commands accepted by playback controllers, by command.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videoview_commands_total",
		Help: "Total number of playback commands received, by command.",
	}, []string{"command"})

	// EventsTotal counts events emitted to the host, by event.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videoview_events_total",
		Help: "Total number of playback events emitted to the host, by event.",
	}, []string{"event"})

	// StaleCallbacksTotal counts backend callbacks dropped because their
	// backend instance had been superseded or released.
	StaleCallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videoview_stale_callbacks_total",
		Help: "Total number of backend callbacks discarded as stale.",
	})

	// BackendsCreatedTotal counts backend instances constructed.
	BackendsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videoview_backends_created_total",
		Help: "Total number of media backend instances constructed.",
	})

	// LifecycleSignalsTotal counts host lifecycle signals seen by bridges.
	// handled is "true" when the signal was for the bridge's own instance.
	LifecycleSignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videoview_lifecycle_signals_total",
		Help: "Total number of host lifecycle signals, by signal and whether they were handled.",
	}, []string{"signal", "handled"})
)

// RecordCommand increments the command counter.
func RecordCommand(command string) {
	CommandsTotal.WithLabelValues(command).Inc()
}

// RecordEvent increments the event counter.
func RecordEvent(event string) {
	EventsTotal.WithLabelValues(event).Inc()
}

// RecordStaleCallback increments the stale-callback counter.
func RecordStaleCallback() {
	StaleCallbacksTotal.Inc()
}

// RecordBackendCreated increments the backend construction counter.
func RecordBackendCreated() {
	BackendsCreatedTotal.Inc()
}

// RecordLifecycleSignal increments the lifecycle signal counter.
func RecordLifecycleSignal(signal string, handled bool) {
	h := "false"
	if handled {
		h = "true"
	}
	LifecycleSignalsTotal.WithLabelValues(signal, h).Inc()
}
