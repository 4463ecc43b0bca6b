package circuitbreaker

import "errors"

var (
	// ErrCircuitOpen is returned when a call is rejected without attempting
	// the operation: the circuit is open, or half-open with every probe
	// slot taken. It is never returned for failures of the operation
	// itself, which always propagate verbatim.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrUnknownIdentity is returned by the registry when a reset targets
	// an identity that was never created.
	ErrUnknownIdentity = errors.New("unknown circuit breaker identity")
)
