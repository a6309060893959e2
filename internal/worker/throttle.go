package worker

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum spacing between the starts of successive
// dispatch calls, shared across all workers. It keeps a single "next
// allowed start" cursor: a waiter reserves the earliest free slot,
// advances the cursor, then sleeps until its slot. Dispatch starts are
// serialized at the configured spacing while dispatch bodies overlap
// freely up to the pool size.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewThrottle creates a throttle with the given minimum spacing.
// A non-positive interval disables throttling.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait blocks until the caller may start its dispatch, or until ctx is
// cancelled. The slot is reserved before sleeping, so concurrent
// waiters each get a distinct start time spaced by the interval.
func (t *Throttle) Wait(ctx context.Context) error {
	if t.interval <= 0 {
		return ctx.Err()
	}

	t.mu.Lock()
	now := time.Now()
	start := t.next
	if start.Before(now) {
		start = now
	}
	t.next = start.Add(t.interval)
	t.mu.Unlock()

	delay := time.Until(start)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
