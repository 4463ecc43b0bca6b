// Package metrics exports the Prometheus collectors for the circuit
// breaker subsystem: a per-identity counter of circuit-open events, a
// per-identity gauge of the current state, and a counter of transition
// events dropped by the collector under backpressure.
package metrics
