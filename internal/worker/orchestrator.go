package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/vaultsync/internal/config"
	"github.com/raphaelgruber/vaultsync/internal/metrics"
	"github.com/raphaelgruber/vaultsync/internal/store"
	"github.com/raphaelgruber/vaultsync/internal/vault"
)

// ErrPull wraps repository pull failures. A pull failure aborts the
// cycle before change detection and counts as a cycle failure.
var ErrPull = errors.New("repository pull failed")

// VaultRepo is the Git transport collaborator. Implemented by git.Repo;
// faked in tests.
type VaultRepo interface {
	Ensure(ctx context.Context) error
	Pull(ctx context.Context) error
	IsDirty(ctx context.Context) (bool, error)
	CommitAll(ctx context.Context, message string) error
	Push(ctx context.Context) error
}

// Orchestrator drives the repeating sync cycle:
// pull → detect changes → prioritize/cap → dispatch → persist → status.
// Only one cycle runs at a time; this is the serialization point
// protecting the hash store.
type Orchestrator struct {
	cfg     config.Config
	store   *store.Store
	repo    VaultRepo
	backend Backend
	state   *SyncState
	tracker *FailureTracker
	metrics *metrics.Collector
	logger  *slog.Logger
}

// New creates an orchestrator. The metrics collector may be nil.
func New(cfg config.Config, st *store.Store, repo VaultRepo, backend Backend, collector *metrics.Collector, logger *slog.Logger) *Orchestrator {
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Orchestrator{
		cfg:     cfg,
		store:   st,
		repo:    repo,
		backend: backend,
		state:   NewSyncState(),
		tracker: NewFailureTracker(cfg.MaxConsecutiveFailures),
		metrics: collector,
		logger:  logger,
	}
}

// State returns the shared status handle for the control plane.
func (o *Orchestrator) State() *SyncState {
	return o.state
}

// Run executes cycles until ctx is cancelled, spacing them by the
// configured sync interval. Cancellation between cycles stops
// scheduling immediately; cancellation mid-cycle lets in-flight
// dispatch calls finish within their timeout.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("worker started",
		"vault", o.cfg.VaultDir(),
		"interval", o.cfg.SyncInterval,
		"max_files_per_cycle", o.cfg.MaxFilesPerCycle,
		"concurrency", o.cfg.MaxConcurrentIndexing)

	ticker := time.NewTicker(o.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		if err := o.RunCycle(ctx); err != nil && !errors.Is(err, ErrHalted) && !errors.Is(err, context.Canceled) {
			o.logger.Error("cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			o.logStats()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Metrics returns the orchestrator's runtime statistics collector.
func (o *Orchestrator) Metrics() *metrics.Collector {
	return o.metrics
}

// logStats writes a run summary on shutdown.
func (o *Orchestrator) logStats() {
	snap := o.metrics.Snapshot()
	attrs := []any{"uptime_s", int64(snap.UptimeSeconds)}
	if snap.Cycle != nil {
		attrs = append(attrs, "cycles", snap.Cycle.Count, "cycle_errors", snap.Cycle.Errors)
	}
	if snap.Dispatch != nil {
		attrs = append(attrs, "dispatches", snap.Dispatch.Count, "dispatch_errors", snap.Dispatch.Errors)
	}
	if snap.Pull != nil {
		attrs = append(attrs, "pulls", snap.Pull.Count, "pull_errors", snap.Pull.Errors)
	}
	o.logger.Info("worker stopping", attrs...)
}

// RunCycle performs one pull-detect-dispatch-persist pass. Returns
// ErrHalted without doing any work while the circuit breaker is open.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	cycleID := uuid.New().String()[:8]
	log := o.logger.With("cycle", cycleID)
	start := time.Now()

	// Pick up external resets (and externally recorded failures)
	// before deciding whether to run.
	if persisted, err := o.store.LoadState(); err == nil {
		o.tracker.Sync(persisted.ConsecutiveFailures)
	}

	if o.tracker.Halted() {
		o.state.SetStatus(StatusHalted)
		o.flushState()
		log.Warn("cycle skipped: sync halted", "consecutive_failures", o.tracker.Count())
		return ErrHalted
	}

	vaultCfg, err := o.store.LoadConfig()
	if err != nil {
		if errors.Is(err, store.ErrNotConfigured) {
			log.Debug("no vault configured, skipping cycle")
			return nil
		}
		return err
	}

	o.state.SetStatus(StatusSyncing)
	o.flushState()

	pullStart := time.Now()
	err = o.pull(ctx)
	o.metrics.Record(metrics.OpPull, time.Since(pullStart), err)
	if err != nil {
		return o.failCycle(log, fmt.Errorf("%w: %v", ErrPull, err))
	}

	hashes, err := o.store.LoadHashes()
	if err != nil {
		return o.failCycle(log, err)
	}

	scanStart := time.Now()
	changes, err := vault.DetectChanges(o.cfg.VaultDir(), hashes, log)
	o.metrics.Record(metrics.OpScan, time.Since(scanStart), err)
	if err != nil {
		return o.failCycle(log, err)
	}

	if changes.Empty() {
		o.finishCycle(log, start, 0, 0)
		return nil
	}

	tasks := o.buildTasks(changes, log)
	log.Info("changes detected",
		"added", len(changes.Added),
		"modified", len(changes.Modified),
		"deleted", len(changes.Deleted),
		"dispatching", len(tasks))

	o.state.BeginBatch(len(tasks))
	o.flushState()

	dispatcher := NewDispatcher(o.backend, NewThrottle(o.cfg.IndexDelay), o.cfg.MaxConcurrentIndexing, o.cfg.NetworkTimeout, log)

	successes, failures := 0, 0
	var lastErr error
	for result := range dispatcher.Run(ctx, tasks) {
		o.state.FileProcessed()
		// Mirror progress per result so the control-plane process sees
		// it move during the batch, not just at status transitions.
		o.flushState()
		o.metrics.Record(metrics.OpDispatch, 0, result.Err)

		if !result.Ok() {
			failures++
			lastErr = result.Err
			continue
		}
		successes++

		// Persist per task so partial progress survives a crash:
		// unindexed files stay pending, never silently dropped. Each
		// write applies only this task's delta on top of the file's
		// current content, never the cycle-start snapshot: a
		// force-reindex deleting the store mid-cycle must not see the
		// snapshot written back.
		var persistErr error
		switch result.Task.Op {
		case OpDelete:
			persistErr = o.store.RemoveHash(result.Task.Path)
		default:
			persistErr = o.store.UpdateHash(result.Task.Path, result.Task.Hash)
		}
		if persistErr != nil {
			log.Warn("hash store update failed", "path", result.Task.Path, "error", persistErr)
		}
	}

	if err := o.pushIfEnabled(ctx, vaultCfg, log); err != nil {
		return o.failCycle(log, err)
	}

	// A cycle counts as failed only when the batch made no progress at
	// all; any success resets the streak.
	if successes == 0 && failures > 0 {
		return o.failCycle(log, fmt.Errorf("indexing batch failed: %d files, last error: %v", failures, lastErr))
	}

	o.finishCycle(log, start, successes, failures)
	return nil
}

// pull ensures the checkout exists and fast-forwards it.
func (o *Orchestrator) pull(ctx context.Context) error {
	if err := o.repo.Ensure(ctx); err != nil {
		return err
	}
	return o.repo.Pull(ctx)
}

// buildTasks orders the changed set by recency, caps it, snapshots file
// content, and appends delete tasks for removed files. Deletions are
// not capped: representing an absence costs one backend call and no
// re-embedding.
func (o *Orchestrator) buildTasks(changes vault.ChangeSet, log *slog.Logger) []IndexTask {
	changed := changes.Changed()
	if len(changed) > o.cfg.MaxFilesPerCycle {
		log.Info("cycle cap applied", "changed", len(changed), "cap", o.cfg.MaxFilesPerCycle)
		changed = changed[:o.cfg.MaxFilesPerCycle]
	}

	tasks := make([]IndexTask, 0, len(changed)+len(changes.Deleted))
	for _, f := range changed {
		content, err := os.ReadFile(f.AbsPath)
		if err != nil {
			log.Warn("skipping unreadable file at enqueue", "path", f.Path, "error", err)
			continue
		}
		tasks = append(tasks, IndexTask{
			Op:      OpIndex,
			Path:    f.Path,
			Content: content,
			Hash:    vault.HashBytes(content),
			ModTime: f.ModTime,
		})
	}
	for _, path := range changes.Deleted {
		tasks = append(tasks, IndexTask{Op: OpDelete, Path: path})
	}
	return tasks
}

// pushIfEnabled commits and pushes local changes when the vault config
// opts in. Push failures fail the cycle like pull failures.
func (o *Orchestrator) pushIfEnabled(ctx context.Context, vaultCfg store.VaultConfig, log *slog.Logger) error {
	if !vaultCfg.PushEnabled {
		return nil
	}

	dirty, err := o.repo.IsDirty(ctx)
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}

	message := fmt.Sprintf("vaultsync: %s", time.Now().UTC().Format(time.RFC3339))
	if err := o.repo.CommitAll(ctx, message); err != nil {
		return err
	}
	if err := o.repo.Push(ctx); err != nil {
		return err
	}
	log.Info("pushed local changes")
	return nil
}

// failCycle records a failed cycle with the tracker and state, halting
// when the failure streak reaches the threshold.
func (o *Orchestrator) failCycle(log *slog.Logger, err error) error {
	count, halted := o.tracker.RecordFailure()
	o.state.RecordFailure(count, err)
	if halted {
		o.state.SetStatus(StatusHalted)
		log.Error("sync halted", "consecutive_failures", count, "error", err)
	} else {
		o.state.SetStatus(StatusIdle)
		log.Warn("cycle failed", "consecutive_failures", count, "error", err)
	}
	o.flushState()
	return err
}

// finishCycle records a successful cycle.
func (o *Orchestrator) finishCycle(log *slog.Logger, start time.Time, successes, failures int) {
	o.tracker.RecordSuccess()
	now := time.Now().UTC()
	o.state.RecordSuccess(now)
	o.state.SetStatus(StatusIdle)
	o.flushState()
	o.metrics.Record(metrics.OpCycle, time.Since(start), nil)
	log.Info("cycle complete",
		"indexed", successes,
		"failed", failures,
		"duration_ms", time.Since(start).Milliseconds())
}

// flushState mirrors the in-memory state to disk for the control plane.
// Best effort: a failed flush never fails a cycle.
func (o *Orchestrator) flushState() {
	if err := o.store.SaveState(o.state.Persistent()); err != nil {
		o.logger.Warn("failed to persist sync state", "error", err)
	}
}
