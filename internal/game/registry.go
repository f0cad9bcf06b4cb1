package game

import (
	"sync"
	"time"
)

// Registry is the authoritative store of active sessions, keyed by game
// code. Every mutation goes through Update, which holds a per-code lock
// for the duration of the mutator, so concurrent triggers for the same
// session can never interleave partial writes. Sessions are fully
// independent; there is no cross-code locking.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	mu   sync.Mutex
	sess *Session
	gone bool
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Put registers a session under its code, replacing any stale entry.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[s.Code] = &registryEntry{sess: s}
}

// Has reports whether a session is resident under the given code.
func (r *Registry) Has(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[code]
	return ok
}

// Update applies fn to the session under its per-code lock. Returns
// false when no session exists for the code; a missing session is the
// caller's cue for the silent no-op path.
func (r *Registry) Update(code string, fn func(*Session)) bool {
	r.mu.Lock()
	e, ok := r.entries[code]
	r.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return false
	}
	fn(e.sess)
	return true
}

// View is Update for readers. It takes the same lock; the name only
// documents intent.
func (r *Registry) View(code string, fn func(*Session)) bool {
	return r.Update(code, fn)
}

// Delete removes a session. The entry is tombstoned under its own lock
// first, so an Update racing the delete either completes before it or
// observes the session as absent.
func (r *Registry) Delete(code string) {
	r.mu.Lock()
	e, ok := r.entries[code]
	if ok {
		delete(r.entries, code)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	e.gone = true
	e.sess.clearTimers()
	e.mu.Unlock()
}

// FindByGameID scans resident sessions for one backed by the given
// durable game row. Used by the reconnection fallback when the client
// only remembers the game id.
func (r *Registry) FindByGameID(id uint) (string, bool) {
	r.mu.Lock()
	codes := make([]string, 0, len(r.entries))
	for code := range r.entries {
		codes = append(codes, code)
	}
	r.mu.Unlock()

	for _, code := range codes {
		found := false
		r.View(code, func(s *Session) {
			found = s.GameID == id
		})
		if found {
			return code, true
		}
	}
	return "", false
}

// Len returns the number of resident sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// evictIf tombstones and removes a session only when cond holds under
// the entry lock. Once the tombstone is set, Update observes the
// session as absent, so a reconnect can never land after the check.
func (r *Registry) evictIf(code string, cond func(*Session) bool) bool {
	r.mu.Lock()
	e, ok := r.entries[code]
	r.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	if e.gone || !cond(e.sess) {
		e.mu.Unlock()
		return false
	}
	e.gone = true
	e.sess.clearTimers()
	e.mu.Unlock()

	r.mu.Lock()
	if cur, ok := r.entries[code]; ok && cur == e {
		delete(r.entries, code)
	}
	r.mu.Unlock()
	return true
}

// Sweep evicts sessions idle for longer than maxIdle. The staleness
// check and the eviction happen under one entry lock, so a reconnect
// touching the session either lands before the check (and keeps the
// session alive) or observes it as already gone. Sessions mid-finalize
// are skipped. Returns the number of evicted sessions.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	codes := make([]string, 0, len(r.entries))
	for code := range r.entries {
		codes = append(codes, code)
	}
	r.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	evicted := 0
	for _, code := range codes {
		if r.evictIf(code, func(s *Session) bool {
			return s.transition != transitionEnding && s.LastActivity.Before(cutoff)
		}) {
			evicted++
		}
	}
	return evicted
}
