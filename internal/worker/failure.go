package worker

import (
	"errors"
	"sync"
)

// ErrHalted is returned when a cycle is requested while the circuit
// breaker is open. Only an explicit external reset resumes cycles.
var ErrHalted = errors.New("sync halted after repeated failures")

// FailureTracker is the consecutive-failure circuit breaker. It counts
// failed cycles; when the streak reaches the threshold the breaker
// opens and stays open until Reset.
type FailureTracker struct {
	mu        sync.Mutex
	threshold int
	count     int
	halted    bool
}

// NewFailureTracker creates a tracker that halts after threshold
// consecutive failures.
func NewFailureTracker(threshold int) *FailureTracker {
	if threshold <= 0 {
		threshold = 5
	}
	return &FailureTracker{threshold: threshold}
}

// RecordFailure increments the streak and reports whether the breaker
// just opened (or already was open).
func (t *FailureTracker) RecordFailure() (count int, halted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
	if t.count >= t.threshold {
		t.halted = true
	}
	return t.count, t.halted
}

// RecordSuccess clears the streak. The counter measures consecutive
// failures, not cumulative ones. A success never closes an open
// breaker; that requires Reset.
func (t *FailureTracker) RecordSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.halted {
		t.count = 0
	}
}

// Reset closes the breaker and clears the streak. This is the external
// reset operation.
func (t *FailureTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count = 0
	t.halted = false
}

// Sync overwrites the streak from persisted state, closing or opening
// the breaker accordingly. The orchestrator calls this at cycle start
// so a reset performed by the control-plane process takes effect.
func (t *FailureTracker) Sync(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count = count
	t.halted = count >= t.threshold
}

// Halted reports whether the breaker is open.
func (t *FailureTracker) Halted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.halted
}

// Count returns the current failure streak.
func (t *FailureTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}
