package combat

import (
	"sync"
	"time"
)

// GlobalCooldownID is the reserved tracker id that spaces single-skill
// actions out regardless of which keybind fired. The "::" prefix cannot
// collide with keybind strings or combo names.
const GlobalCooldownID = "::gcd::"

// Tracker stores the last-fired timestamp per cooldown id (keybind string or
// combo name). It is pure bookkeeping: readiness decisions against a clock
// belong to the Evaluator. The mutex exists because the dashboard reads the
// table while the execution driver writes it.
type Tracker struct {
	mu      sync.RWMutex
	lastUse map[string]time.Time
}

func NewTracker() *Tracker {
	return &Tracker{lastUse: make(map[string]time.Time)}
}

// RecordUse stores t as the last-use time for id, overwriting any earlier
// value. Callers record only after the corresponding action was actually
// dispatched, so an aborted dispatch never consumes a cooldown.
func (t *Tracker) RecordUse(id string, ts time.Time) {
	t.mu.Lock()
	t.lastUse[id] = ts
	t.mu.Unlock()
}

// RecordUseAll stamps every id with the same timestamp under one lock, so a
// combo commit is atomic from any reader's perspective.
func (t *Tracker) RecordUseAll(ids []string, ts time.Time) {
	t.mu.Lock()
	for _, id := range ids {
		t.lastUse[id] = ts
	}
	t.mu.Unlock()
}

// LastUse returns the last-use time for id. ok is false when the id never
// fired, which readiness checks treat as ready.
func (t *Tracker) LastUse(id string) (time.Time, bool) {
	t.mu.RLock()
	ts, ok := t.lastUse[id]
	t.mu.RUnlock()
	return ts, ok
}

// Clear wipes all cooldown state.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.lastUse = make(map[string]time.Time)
	t.mu.Unlock()
}

// Snapshot returns a copy of the full table for the dashboard.
func (t *Tracker) Snapshot() map[string]time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]time.Time, len(t.lastUse))
	for id, ts := range t.lastUse {
		out[id] = ts
	}
	return out
}
