package detect

import "sync"

// Feed is the single-slot handoff between the detection producer and the
// execution driver. Latest value wins: a new snapshot replaces any unread
// one, and stale snapshots are dropped rather than queued. Detection runs at
// roughly one frame per second, so the newest frame always supersedes prior
// state.
type Feed struct {
	mu     sync.Mutex
	latest Snapshot
	valid  bool
}

func NewFeed() *Feed {
	return &Feed{}
}

// Publish replaces the current snapshot.
func (f *Feed) Publish(s Snapshot) {
	f.mu.Lock()
	f.latest = s
	f.valid = true
	f.mu.Unlock()
}

// Latest returns the most recent snapshot, if any has been published yet.
func (f *Feed) Latest() (Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.valid
}

// Source produces detection snapshots for a game window. Implementations
// wrap the capture pipeline and the object-detection model; the engine only
// consumes their typed output.
type Source interface {
	Detect() (Snapshot, error)
}
