// Package runlock provides the single-slot run-in-progress guard. At most
// one sync run may be active process-wide; the portal's session and 2FA
// model cannot support a second concurrent browser session.
package runlock

import (
	"sync"
	"time"
)

// Lock is a single-slot lock. The zero value is ready to use.
type Lock struct {
	mu    sync.Mutex
	held  bool
	since time.Time
}

// TryAcquire takes the slot if free. It never blocks; a busy slot means a
// run is already in progress and the trigger must be rejected.
func (l *Lock) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false
	}
	l.held = true
	l.since = time.Now()
	return true
}

// Release frees the slot. Safe to call on a free lock.
func (l *Lock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.since = time.Time{}
}

// Busy reports whether a run is in progress and since when.
func (l *Lock) Busy() (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held, l.since
}
