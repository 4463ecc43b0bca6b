package circuitbreaker

import "time"

// Reason explains why a breaker changed state.
type Reason string

const (
	ReasonFailureThresholdReached Reason = "failure_threshold_reached"
	ReasonRecoveryTimeoutElapsed  Reason = "recovery_timeout_elapsed"
	ReasonTestCallFailed          Reason = "test_call_failed"
	ReasonTestCallSucceeded       Reason = "test_call_succeeded"
	ReasonManualReset             Reason = "manual_reset"
)

// Transition describes one state change of a breaker, in the shape
// consumed by the audit event bus and the metrics exporter.
type Transition struct {
	CircuitID        string      `json:"circuit_id"`
	CircuitType      CircuitType `json:"circuit_type"`
	SourceID         string      `json:"source_id,omitempty"`
	From             State       `json:"from"`
	To               State       `json:"to"`
	FailureCount     int         `json:"failure_count"`
	FailureThreshold int         `json:"failure_threshold"`
	LastFailureTime  string      `json:"last_failure_time,omitempty"` // RFC 3339, UTC
	Reason           Reason      `json:"reason"`
	WasManual        bool        `json:"was_manual,omitempty"`
	ClosedBy         string      `json:"closed_by,omitempty"`
	Timestamp        time.Time   `json:"timestamp"`
}

// Sink receives transitions. Implementations must not block and must not
// surface errors: a sink that cannot keep up drops the event rather than
// stalling or failing the protected call path.
type Sink interface {
	Emit(t Transition)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(Transition)

func (f SinkFunc) Emit(t Transition) { f(t) }

// RejectionSink is optionally implemented by sinks that also want to
// observe fast-failed calls. Rejections are not state transitions: they
// carry no payload beyond the identity, and the same non-blocking
// contract applies.
type RejectionSink interface {
	EmitRejection(id Identity)
}
