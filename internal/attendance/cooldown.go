package attendance

import (
	"sync"
	"time"
)

// CooldownTracker suppresses duplicate attendance logs for a name within a
// time window. State lives for the process lifetime only; after a restart
// the first recognition always logs.
type CooldownTracker struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

// NewCooldownTracker creates a tracker with the given window.
func NewCooldownTracker(window time.Duration) *CooldownTracker {
	return &CooldownTracker{
		window: window,
		last:   map[string]time.Time{},
	}
}

// ShouldLog reports whether a new event for name may be logged at now: true
// when the name was never logged, or when at least the window has elapsed.
func (t *CooldownTracker) ShouldLog(name string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.last[name]
	if !ok {
		return true
	}
	return now.Sub(last) >= t.window
}

// MarkLogged records now as the name's last logged timestamp. Callers must
// invoke this only after the ledger write succeeded, so a failed write does
// not silently swallow the event until the window expires.
func (t *CooldownTracker) MarkLogged(name string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[name] = now
}
