package circuitbreaker

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // normal operation
	StateOpen                  // rejecting calls
	StateHalfOpen              // probing for recovery
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Config carries the construction-time tuning of one breaker. It is only
// honored when the breaker is created; an existing breaker is never
// reconfigured.
type Config struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	HalfOpenMaxCalls int
}

const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 30 * time.Second
	DefaultHalfOpenMaxCalls = 1
)

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = DefaultHalfOpenMaxCalls
	}
	return c
}

// Operation is the protected asynchronous action. The breaker imposes no
// timeout of its own; cancellation belongs to the caller's context and a
// cancelled operation counts as a failure like any other error.
type Operation func(ctx context.Context) (any, error)

// Snapshot is a point-in-time view of a breaker for reporting.
type Snapshot struct {
	State           State      `json:"state"`
	FailureCount    int        `json:"failure_count"`
	LastFailureTime *time.Time `json:"last_failure_time"`
}

// CircuitBreaker wraps one protected operation target with the three-state
// machine. All bookkeeping happens in short critical sections; the wrapped
// operation itself always runs outside the lock.
type CircuitBreaker struct {
	identity Identity
	config   Config
	sink     Sink

	mutex   sync.Mutex
	state   State
	counter FailureCounter
	probes  int // half-open probes currently in flight
}

// New creates a breaker in the Closed state. sink may be nil, in which
// case transitions are not reported anywhere.
func New(identity Identity, cfg Config, sink Sink) *CircuitBreaker {
	return &CircuitBreaker{
		identity: identity,
		config:   cfg.withDefaults(),
		sink:     sink,
		state:    StateClosed,
	}
}

func (cb *CircuitBreaker) Identity() Identity { return cb.identity }

// Call runs op behind the breaker.
//
// Closed: op runs; failures increment the counter and the threshold-th
// consecutive failure opens the circuit. Open: rejected with
// ErrCircuitOpen until the recovery timeout has elapsed, then the breaker
// moves to half-open and this call becomes a probe. Half-open: at most
// HalfOpenMaxCalls probes run; a successful probe closes the circuit, a
// failing one reopens it and restarts the recovery timer.
//
// Errors from op are returned verbatim; ErrCircuitOpen is returned only
// when op was never invoked.
func (cb *CircuitBreaker) Call(ctx context.Context, op Operation) (any, error) {
	probe, err := cb.admit()
	if err != nil {
		cb.rejected()
		return nil, err
	}

	result, opErr := op(ctx)
	if opErr != nil {
		cb.onFailure(probe)
		return nil, opErr
	}
	cb.onSuccess(probe)
	return result, nil
}

// admit is the single atomic decision point per invocation: it reads and
// possibly transitions the state and claims a probe slot, all under the
// mutex, so two concurrent callers can never both take the last slot.
func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.counter.lastFailure) < cb.config.RecoveryTimeout {
			return false, ErrCircuitOpen
		}
		cb.transitionLocked(StateHalfOpen, ReasonRecoveryTimeoutElapsed, "")
	}

	switch cb.state {
	case StateClosed:
		return false, nil
	case StateHalfOpen:
		if cb.probes >= cb.config.HalfOpenMaxCalls {
			return false, ErrCircuitOpen
		}
		cb.probes++
		return true, nil
	default:
		return false, ErrCircuitOpen
	}
}

// rejected reports a fast-failed call to sinks that track them.
func (cb *CircuitBreaker) rejected() {
	if rs, ok := cb.sink.(RejectionSink); ok {
		rs.EmitRejection(cb.identity)
	}
}

func (cb *CircuitBreaker) onSuccess(probe bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if probe && cb.probes > 0 {
		cb.probes--
	}
	// A success that resolves after the circuit already reopened must not
	// clear the failure timestamp the recovery timer is based on.
	if cb.state == StateOpen {
		return
	}
	cb.counter.RecordSuccess()
	if probe && cb.state == StateHalfOpen {
		cb.transitionLocked(StateClosed, ReasonTestCallSucceeded, "")
	}
}

func (cb *CircuitBreaker) onFailure(probe bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if probe && cb.probes > 0 {
		cb.probes--
	}
	cb.counter.RecordFailure(time.Now())

	switch {
	case probe && cb.state == StateHalfOpen:
		// Recovery timer restarts from this failure's timestamp.
		cb.transitionLocked(StateOpen, ReasonTestCallFailed, "")
	case cb.state == StateClosed && cb.counter.failures >= cb.config.FailureThreshold:
		cb.transitionLocked(StateOpen, ReasonFailureThresholdReached, "")
	}
}

// GetState returns a snapshot of the breaker. Pure read, no side effects.
func (cb *CircuitBreaker) GetState() Snapshot {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cs := cb.counter.Snapshot()
	return Snapshot{
		State:           cb.state,
		FailureCount:    cs.FailureCount,
		LastFailureTime: cs.LastFailureTime,
	}
}

// Reset forces the breaker to Closed and clears the counter, regardless of
// prior state. closedBy names the acting identity for the audit event; an
// empty value is reported as-is.
func (cb *CircuitBreaker) Reset(closedBy string) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.counter.RecordSuccess()
	cb.probes = 0
	cb.transitionLocked(StateClosed, ReasonManualReset, closedBy)
}

// transitionLocked changes the state and reports it through the sink.
// Callers must hold cb.mutex. Sinks are non-blocking by contract, so
// emitting inside the critical section keeps transitions totally ordered
// per breaker without stalling other callers.
func (cb *CircuitBreaker) transitionLocked(to State, reason Reason, closedBy string) {
	from := cb.state
	cb.state = to
	if to != StateHalfOpen {
		cb.probes = 0
	}

	if cb.sink == nil {
		return
	}

	cs := cb.counter.Snapshot()
	t := Transition{
		CircuitID:        cb.identity.Key(),
		CircuitType:      cb.identity.Type,
		SourceID:         cb.identity.SourceID,
		From:             from,
		To:               to,
		FailureCount:     cs.FailureCount,
		FailureThreshold: cb.config.FailureThreshold,
		Reason:           reason,
		WasManual:        reason == ReasonManualReset,
		ClosedBy:         closedBy,
		Timestamp:        time.Now(),
	}
	if cs.LastFailureTime != nil {
		t.LastFailureTime = cs.LastFailureTime.UTC().Format(time.RFC3339)
	}
	cb.sink.Emit(t)
}
