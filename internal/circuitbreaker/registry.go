package circuitbreaker

import (
	"fmt"
	"sort"
	"sync"
)

// Registry owns one breaker per logical target identity for the lifetime
// of the process. Breakers are created lazily on first use.
type Registry struct {
	mutex    sync.RWMutex
	breakers map[string]*CircuitBreaker
	defaults Config
	sink     Sink
}

// NewRegistry creates an empty registry. defaults is applied by Get;
// sink is attached to every breaker the registry creates.
func NewRegistry(defaults Config, sink Sink) *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
		defaults: defaults.withDefaults(),
		sink:     sink,
	}
}

// GetOrCreate returns the breaker for identity, creating it with cfg on
// first use. cfg is only honored at creation: a later call with a
// different config returns the existing breaker unchanged.
func (r *Registry) GetOrCreate(identity Identity, cfg Config) *CircuitBreaker {
	key := identity.Key()

	r.mutex.RLock()
	cb, exists := r.breakers[key]
	r.mutex.RUnlock()
	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it.
	if cb, exists = r.breakers[key]; exists {
		return cb
	}

	cb = New(identity, cfg, r.sink)
	r.breakers[key] = cb
	return cb
}

// Get returns the breaker for identity, creating it with the registry's
// default config on first use.
func (r *Registry) Get(identity Identity) *CircuitBreaker {
	return r.GetOrCreate(identity, r.defaults)
}

// Entry pairs a breaker's identity with its state snapshot.
type Entry struct {
	Identity Identity
	Snapshot Snapshot
}

// ListAll snapshots every breaker, sorted by key so that admin output is
// deterministic. Each snapshot is internally consistent; there is no
// cross-breaker atomicity.
func (r *Registry) ListAll() []Entry {
	r.mutex.RLock()
	breakers := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, cb := range r.breakers {
		breakers = append(breakers, cb)
	}
	r.mutex.RUnlock()

	sort.Slice(breakers, func(i, j int) bool {
		return breakers[i].Identity().Key() < breakers[j].Identity().Key()
	})

	entries := make([]Entry, 0, len(breakers))
	for _, cb := range breakers {
		entries = append(entries, Entry{Identity: cb.Identity(), Snapshot: cb.GetState()})
	}
	return entries
}

// Reset resets the breaker with the given key. Returns ErrUnknownIdentity
// if no breaker was ever created for it.
func (r *Registry) Reset(key, closedBy string) error {
	r.mutex.RLock()
	cb, exists := r.breakers[key]
	r.mutex.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownIdentity, key)
	}
	cb.Reset(closedBy)
	return nil
}

// ResetAll resets every breaker in the registry and returns how many were
// reset.
func (r *Registry) ResetAll(closedBy string) int {
	r.mutex.RLock()
	breakers := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, cb := range r.breakers {
		breakers = append(breakers, cb)
	}
	r.mutex.RUnlock()

	for _, cb := range breakers {
		cb.Reset(closedBy)
	}
	return len(breakers)
}

// ResetType resets every breaker of the given circuit type and returns
// the keys of the breakers that were reset, sorted.
func (r *Registry) ResetType(ctype CircuitType, closedBy string) []string {
	r.mutex.RLock()
	breakers := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, cb := range r.breakers {
		if cb.Identity().Type == ctype {
			breakers = append(breakers, cb)
		}
	}
	r.mutex.RUnlock()

	sort.Slice(breakers, func(i, j int) bool {
		return breakers[i].Identity().Key() < breakers[j].Identity().Key()
	})

	keys := make([]string, 0, len(breakers))
	for _, cb := range breakers {
		cb.Reset(closedBy)
		keys = append(keys, cb.Identity().Key())
	}
	return keys
}
