package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bvandewe/tools-provider-sub014/internal/circuitbreaker"
)

var (
	CircuitOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_open_total",
		Help: "The total number of times a circuit transitioned to open",
	}, []string{"circuit_id", "circuit_type"})

	CircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Current circuit state (0=closed, 1=open, 2=half-open)",
	}, []string{"circuit_id", "circuit_type"})

	CallsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_rejected_total",
		Help: "Calls rejected without attempting the operation while the circuit was open",
	}, []string{"circuit_id", "circuit_type"})

	TransitionsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circuit_breaker_transitions_dropped_total",
		Help: "Transition events dropped because the collector buffer was full",
	})
)

// ObserveRejection counts one fast-failed call for the given identity.
func ObserveRejection(id circuitbreaker.Identity) {
	CallsRejected.WithLabelValues(id.Key(), string(id.Type)).Inc()
}

// ObserveTransition updates the state gauge, and the open counter when a
// circuit trips.
func ObserveTransition(t circuitbreaker.Transition) {
	CircuitState.WithLabelValues(t.CircuitID, string(t.CircuitType)).Set(stateValue(t.To))
	if t.To == circuitbreaker.StateOpen {
		CircuitOpened.WithLabelValues(t.CircuitID, string(t.CircuitType)).Inc()
	}
}

func stateValue(s circuitbreaker.State) float64 {
	switch s {
	case circuitbreaker.StateOpen:
		return 1
	case circuitbreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
