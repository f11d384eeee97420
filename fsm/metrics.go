package fsm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric definitions with appropriate labels.
var (
	// triggersTotal counts trigger attempts by machine and outcome.
	triggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_triggers_total",
		Help: "Total number of transition triggers by machine and outcome",
	}, []string{"machine", "outcome"})

	// transitionsTotal counts completed state assignments.
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_transitions_total",
		Help: "Total number of state transitions by machine, from_state and to_state",
	}, []string{"machine", "from_state", "to_state"})

	// hookFailuresTotal counts enter/exit actions that returned an error.
	hookFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_hook_failures_total",
		Help: "Total number of failed enter or exit actions by machine, state and hook",
	}, []string{"machine", "state", "hook"})

	// handOffDuration tracks how long the transition lock is held.
	handOffDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fsm_handoff_duration_seconds",
		Help:    "Time spent holding the transition lock, by machine",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5},
	}, []string{"machine"})
)

func observeHandOff(machine string, elapsed time.Duration) {
	handOffDuration.WithLabelValues(sanitizeMachine(machine)).Observe(elapsed.Seconds())
}

func sanitizeMachine(machine string) string {
	if machine == "" {
		return "unknown"
	}

	return machine
}
