package circuitbreaker

import "time"

// FailureCounter tracks consecutive failures for exactly one breaker.
// It is not safe for concurrent use on its own; the owning CircuitBreaker
// mutates it under its mutex.
type FailureCounter struct {
	failures    int
	lastFailure time.Time // zero if never failed or after reset
}

func (c *FailureCounter) RecordFailure(now time.Time) {
	c.failures++
	c.lastFailure = now
}

func (c *FailureCounter) RecordSuccess() {
	c.failures = 0
	c.lastFailure = time.Time{}
}

// CounterSnapshot is an immutable view of the counter for reporting.
type CounterSnapshot struct {
	FailureCount    int        `json:"failure_count"`
	LastFailureTime *time.Time `json:"last_failure_time"`
}

func (c *FailureCounter) Snapshot() CounterSnapshot {
	snap := CounterSnapshot{FailureCount: c.failures}
	if !c.lastFailure.IsZero() {
		t := c.lastFailure
		snap.LastFailureTime = &t
	}
	return snap
}
