package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SyncState is the persisted mirror of the worker's status record. The
// worker flushes it on every status transition; the control plane reads
// it for status queries and writes it to perform an external reset.
type SyncState struct {
	Status               string     `json:"status"`
	ProgressPercent      int        `json:"progress_percent"`
	ConsecutiveFailures  int        `json:"consecutive_failures"`
	LastError            string     `json:"last_error,omitempty"`
	LastCycleCompletedAt *time.Time `json:"last_cycle_completed_at,omitempty"`
}

// StatePath returns the location of the sync state mirror.
func (s *Store) StatePath() string {
	return filepath.Join(s.dir, StateFile)
}

// LoadState reads the persisted sync state. A missing file yields the
// initial state: idle with zero failures.
func (s *Store) LoadState() (SyncState, error) {
	data, err := os.ReadFile(s.StatePath())
	if os.IsNotExist(err) {
		return SyncState{Status: "idle"}, nil
	}
	if err != nil {
		return SyncState{}, fmt.Errorf("read sync state: %w", err)
	}

	var st SyncState
	if err := json.Unmarshal(data, &st); err != nil {
		return SyncState{}, fmt.Errorf("parse sync state: %w", err)
	}
	if st.Status == "" {
		st.Status = "idle"
	}
	return st, nil
}

// SaveState atomically replaces the persisted sync state.
func (s *Store) SaveState(st SyncState) error {
	return s.writeJSON(s.StatePath(), st)
}

// ResetFailures zeroes the consecutive failure counter and, when the
// worker was halted, returns it to idle. This is the only way out of
// the halted state.
func (s *Store) ResetFailures() (SyncState, error) {
	st, err := s.LoadState()
	if err != nil {
		return SyncState{}, err
	}

	st.ConsecutiveFailures = 0
	st.LastError = ""
	if st.Status == "halted" {
		st.Status = "idle"
	}

	if err := s.SaveState(st); err != nil {
		return SyncState{}, err
	}
	return st, nil
}
