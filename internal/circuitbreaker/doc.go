// Package circuitbreaker implements the circuit breaker pattern protecting
// outbound calls to the Keycloak token exchange and to upstream
// tool-provider APIs.
//
// Each protected target gets its own breaker with three states:
//
//   - closed: normal operation, calls pass through
//   - open: target failing, calls rejected immediately with ErrCircuitOpen
//   - half_open: recovery probing, a bounded number of test calls allowed
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(cfg, sink)
//	cb := registry.Get(circuitbreaker.ToolExecution("github"))
//	result, err := cb.Call(ctx, func(ctx context.Context) (any, error) {
//	    return client.Invoke(ctx, req)
//	})
//	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
//	    // Target temporarily unavailable; the breaker will probe again
//	    // after the recovery timeout.
//	}
//
// The breaker never retries and never wraps the operation's own errors;
// it only decides whether to attempt the call at all. Every state change
// is reported to the configured Sink for auditing and metrics.
package circuitbreaker
