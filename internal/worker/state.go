// Package worker implements the synchronization-and-indexing engine:
// change-driven cycles, a prioritized bounded-concurrency dispatch
// queue, a global dispatch throttle and a consecutive-failure circuit
// breaker.
package worker

import (
	"sync"
	"time"

	"github.com/raphaelgruber/vaultsync/internal/store"
)

// Status is the worker's process-wide state.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusSyncing  Status = "syncing"
	StatusIndexing Status = "indexing"
	StatusHalted   Status = "halted"
)

// SyncState is the mutable status record owned by the orchestrator and
// read by the control plane through Snapshot. All mutations happen
// under the single-active-cycle invariant, but reads may come from any
// goroutine, so access is mutex-guarded.
type SyncState struct {
	mu                   sync.RWMutex
	status               Status
	processed            int
	total                int
	consecutiveFailures  int
	lastError            string
	lastCycleCompletedAt *time.Time
}

// StateSnapshot is a point-in-time copy of the worker status.
type StateSnapshot struct {
	Status               Status
	ProgressPercent      int
	ConsecutiveFailures  int
	LastError            string
	LastCycleCompletedAt *time.Time
}

// NewSyncState creates the initial worker state: idle, zero failures.
func NewSyncState() *SyncState {
	return &SyncState{status: StatusIdle}
}

// SetStatus transitions the worker status. Leaving indexing resets the
// progress counters so progress_percent reads 0 while idle.
func (s *SyncState) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	if status != StatusIndexing {
		s.processed, s.total = 0, 0
	}
}

// BeginBatch records the size of the current dispatch batch.
func (s *SyncState) BeginBatch(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusIndexing
	s.processed, s.total = 0, total
}

// FileProcessed advances progress by one completed task.
func (s *SyncState) FileProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processed < s.total {
		s.processed++
	}
}

// RecordFailure stores the failure streak and its latest error.
func (s *SyncState) RecordFailure(count int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveFailures = count
	if err != nil {
		s.lastError = err.Error()
	}
}

// RecordSuccess clears the failure streak and stamps cycle completion.
func (s *SyncState) RecordSuccess(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveFailures = 0
	s.lastError = ""
	s.lastCycleCompletedAt = &at
}

// Snapshot returns a consistent copy of the state.
func (s *SyncState) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	progress := 0
	if s.total > 0 {
		progress = s.processed * 100 / s.total
	}
	return StateSnapshot{
		Status:               s.status,
		ProgressPercent:      progress,
		ConsecutiveFailures:  s.consecutiveFailures,
		LastError:            s.lastError,
		LastCycleCompletedAt: s.lastCycleCompletedAt,
	}
}

// Persistent converts the snapshot into its durable mirror form.
func (s *SyncState) Persistent() store.SyncState {
	snap := s.Snapshot()
	return store.SyncState{
		Status:               string(snap.Status),
		ProgressPercent:      snap.ProgressPercent,
		ConsecutiveFailures:  snap.ConsecutiveFailures,
		LastError:            snap.LastError,
		LastCycleCompletedAt: snap.LastCycleCompletedAt,
	}
}
