// Package events delivers circuit breaker transition notifications to the
// observability surfaces (structured log, Prometheus) through a buffered
// channel pipeline, so the breaker's call path never blocks on reporting.
//
// The collector runs in a dedicated goroutine and drains outstanding
// events on shutdown. Sends are non-blocking: under backpressure events
// are dropped and counted, never propagated as errors to callers.
package events
