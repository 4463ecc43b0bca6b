// Package admin implements the HTTP surface for inspecting and resetting
// circuit breakers: a state listing of every breaker, a health summary for
// the token-exchange circuit, and manual reset commands. Manual resets are
// attributed to the caller's bearer-token subject (or X-Admin-User header)
// in the emitted audit event.
package admin
