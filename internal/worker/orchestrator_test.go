package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/vaultsync/internal/config"
	"github.com/raphaelgruber/vaultsync/internal/store"
)

// fakeRepo satisfies VaultRepo without touching git.
type fakeRepo struct {
	mu      sync.Mutex
	pullErr error
	dirty   bool
	pulls   int
	commits int
	pushes  int
	lastMsg string
}

func (r *fakeRepo) Ensure(ctx context.Context) error { return nil }

func (r *fakeRepo) Pull(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pulls++
	return r.pullErr
}

func (r *fakeRepo) IsDirty(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty, nil
}

func (r *fakeRepo) CommitAll(ctx context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits++
	r.lastMsg = message
	return nil
}

func (r *fakeRepo) Push(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes++
	return nil
}

func testConfig(root string) config.Config {
	return config.Config{
		StorageRoot:            root,
		UserID:                 "u1",
		SyncInterval:           time.Minute,
		MaxFilesPerCycle:       10,
		IndexDelay:             0,
		MaxConcurrentIndexing:  2,
		NetworkTimeout:         time.Second,
		CleanupTimeout:         time.Second,
		MaxConsecutiveFailures: 5,
	}
}

type orchFixture struct {
	cfg     config.Config
	store   *store.Store
	repo    *fakeRepo
	backend *fakeBackend
	orch    *Orchestrator
}

func newOrchFixture(t *testing.T, mutate func(*config.Config)) *orchFixture {
	t.Helper()
	cfg := testConfig(t.TempDir())
	if mutate != nil {
		mutate(&cfg)
	}

	st := store.New(cfg.UserDir())
	require.NoError(t, st.SaveConfig(store.NewVaultConfig("https://example.com/vault.git", "main")))

	repo := &fakeRepo{}
	backend := newFakeBackend()
	return &orchFixture{
		cfg:     cfg,
		store:   st,
		repo:    repo,
		backend: backend,
		orch:    New(cfg, st, repo, backend, nil, testLogger()),
	}
}

func (f *orchFixture) writeVaultFile(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.cfg.VaultDir(), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunCycleUnconfigured(t *testing.T) {
	cfg := testConfig(t.TempDir())
	st := store.New(cfg.UserDir())
	repo := &fakeRepo{}
	backend := newFakeBackend()
	orch := New(cfg, st, repo, backend, nil, testLogger())

	require.NoError(t, orch.RunCycle(context.Background()))
	assert.Zero(t, repo.pulls, "unconfigured worker never pulls")
	assert.Empty(t, backend.indexedPaths())
}

func TestRunCycleIndexesAndPersists(t *testing.T) {
	f := newOrchFixture(t, nil)
	f.writeVaultFile(t, "a.md", "alpha")
	f.writeVaultFile(t, "notes/b.md", "beta")

	require.NoError(t, f.orch.RunCycle(context.Background()))

	assert.Equal(t, 1, f.repo.pulls)
	assert.ElementsMatch(t, []string{"a.md", "notes/b.md"}, f.backend.indexedPaths())

	hashes, err := f.store.LoadHashes()
	require.NoError(t, err)
	assert.Len(t, hashes, 2)

	st, err := f.store.LoadState()
	require.NoError(t, err)
	assert.Equal(t, "idle", st.Status)
	assert.NotNil(t, st.LastCycleCompletedAt)
}

func TestRunCycleIdempotent(t *testing.T) {
	f := newOrchFixture(t, nil)
	f.writeVaultFile(t, "a.md", "alpha")

	require.NoError(t, f.orch.RunCycle(context.Background()))
	require.NoError(t, f.orch.RunCycle(context.Background()))

	assert.Len(t, f.backend.indexedPaths(), 1, "unchanged files are not re-dispatched")
}

func TestRunCycleCapAndOrdering(t *testing.T) {
	f := newOrchFixture(t, func(c *config.Config) { c.MaxFilesPerCycle = 2 })

	now := time.Now()
	for i, name := range []string{"oldest.md", "middle.md", "newest.md"} {
		f.writeVaultFile(t, name, name)
		path := filepath.Join(f.cfg.VaultDir(), name)
		mt := now.Add(time.Duration(i-3) * time.Hour)
		require.NoError(t, os.Chtimes(path, mt, mt))
	}

	require.NoError(t, f.orch.RunCycle(context.Background()))
	assert.ElementsMatch(t, []string{"newest.md", "middle.md"}, f.backend.indexedPaths(),
		"the cap keeps the most recently modified files")

	hashes, err := f.store.LoadHashes()
	require.NoError(t, err)
	assert.Len(t, hashes, 2)

	// The remainder drains on the next cycle.
	require.NoError(t, f.orch.RunCycle(context.Background()))
	assert.ElementsMatch(t, []string{"newest.md", "middle.md", "oldest.md"}, f.backend.indexedPaths())
}

func TestRunCycleDeletions(t *testing.T) {
	f := newOrchFixture(t, func(c *config.Config) { c.MaxFilesPerCycle = 1 })
	f.writeVaultFile(t, "a.md", "alpha")

	require.NoError(t, f.orch.RunCycle(context.Background()))

	require.NoError(t, os.Remove(filepath.Join(f.cfg.VaultDir(), "a.md")))
	f.writeVaultFile(t, "b.md", "beta")

	require.NoError(t, f.orch.RunCycle(context.Background()))

	assert.Equal(t, []string{"a.md"}, f.backend.deletedPaths(),
		"deletions dispatch alongside the capped index batch")

	hashes, err := f.store.LoadHashes()
	require.NoError(t, err)
	assert.NotContains(t, hashes, "a.md")
	assert.Contains(t, hashes, "b.md")
}

func TestRunCycleReindexDuringBatchIsNotResurrected(t *testing.T) {
	f := newOrchFixture(t, func(c *config.Config) { c.MaxConcurrentIndexing = 1 })

	now := time.Now()
	for i, name := range []string{"a.md", "b.md", "c.md"} {
		f.writeVaultFile(t, name, name)
		path := filepath.Join(f.cfg.VaultDir(), name)
		mt := now.Add(time.Duration(-i) * time.Hour)
		require.NoError(t, os.Chtimes(path, mt, mt))
	}

	// A force-reindex lands mid-batch: once a.md is persisted, the
	// hash store is deleted while b.md is still being dispatched.
	f.backend.onIndex = func(path string) {
		if path != "b.md" {
			return
		}
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			hashes, err := f.store.LoadHashes()
			if err == nil {
				if _, ok := hashes["a.md"]; ok {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
		}
		// assert, not require: this runs on a dispatcher goroutine.
		assert.NoError(t, f.store.DeleteHashes())
	}

	require.NoError(t, f.orch.RunCycle(context.Background()))

	hashes, err := f.store.LoadHashes()
	require.NoError(t, err)
	assert.NotContains(t, hashes, "a.md",
		"entries persisted before the deletion must stay gone")
	assert.Contains(t, hashes, "b.md")
	assert.Contains(t, hashes, "c.md")
}

func TestRunCycleProgressVisibleInStateMirror(t *testing.T) {
	f := newOrchFixture(t, func(c *config.Config) { c.MaxConcurrentIndexing = 1 })

	now := time.Now()
	for i, name := range []string{"a.md", "b.md", "c.md"} {
		f.writeVaultFile(t, name, name)
		path := filepath.Join(f.cfg.VaultDir(), name)
		mt := now.Add(time.Duration(-i) * time.Hour)
		require.NoError(t, os.Chtimes(path, mt, mt))
	}

	// While the last file is being dispatched, the on-disk mirror must
	// already show the first two as processed.
	var observed int
	f.backend.onIndex = func(path string) {
		if path != "c.md" {
			return
		}
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			st, err := f.store.LoadState()
			if err == nil && st.ProgressPercent > observed {
				observed = st.ProgressPercent
			}
			if observed >= 66 {
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
	}

	require.NoError(t, f.orch.RunCycle(context.Background()))
	assert.GreaterOrEqual(t, observed, 66,
		"mid-batch progress must reach the cross-process mirror")
}

func TestRunCyclePullFailure(t *testing.T) {
	f := newOrchFixture(t, nil)
	f.repo.pullErr = errors.New("remote unreachable")

	err := f.orch.RunCycle(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPull)

	st, err := f.store.LoadState()
	require.NoError(t, err)
	assert.Equal(t, 1, st.ConsecutiveFailures)
	assert.Contains(t, st.LastError, "remote unreachable")
	assert.Empty(t, f.backend.indexedPaths(), "no dispatch on a failed pull")
}

func TestRunCycleHaltsAfterRepeatedFailures(t *testing.T) {
	f := newOrchFixture(t, func(c *config.Config) { c.MaxConsecutiveFailures = 2 })
	f.repo.pullErr = errors.New("remote unreachable")

	require.Error(t, f.orch.RunCycle(context.Background()))
	require.Error(t, f.orch.RunCycle(context.Background()))

	st, err := f.store.LoadState()
	require.NoError(t, err)
	assert.Equal(t, "halted", st.Status)
	assert.Equal(t, 2, st.ConsecutiveFailures)

	// Halted cycles do no work at all.
	pulls := f.repo.pulls
	err = f.orch.RunCycle(context.Background())
	assert.ErrorIs(t, err, ErrHalted)
	assert.Equal(t, pulls, f.repo.pulls)
}

func TestRunCycleResumesAfterExternalReset(t *testing.T) {
	f := newOrchFixture(t, func(c *config.Config) { c.MaxConsecutiveFailures = 2 })
	f.repo.pullErr = errors.New("remote unreachable")

	require.Error(t, f.orch.RunCycle(context.Background()))
	require.Error(t, f.orch.RunCycle(context.Background()))
	require.ErrorIs(t, f.orch.RunCycle(context.Background()), ErrHalted)

	// The control-plane process resets through the shared state file.
	_, err := f.store.ResetFailures()
	require.NoError(t, err)

	f.repo.pullErr = nil
	f.writeVaultFile(t, "a.md", "alpha")

	require.NoError(t, f.orch.RunCycle(context.Background()))
	assert.Equal(t, []string{"a.md"}, f.backend.indexedPaths())

	st, err := f.store.LoadState()
	require.NoError(t, err)
	assert.Equal(t, "idle", st.Status)
	assert.Zero(t, st.ConsecutiveFailures)
}

func TestRunCyclePartialSuccessIsNotAFailure(t *testing.T) {
	f := newOrchFixture(t, nil)
	f.writeVaultFile(t, "good.md", "fine")
	f.writeVaultFile(t, "bad.md", "rejected")
	f.backend.fail["bad.md"] = errors.New("backend 500")

	require.NoError(t, f.orch.RunCycle(context.Background()),
		"any successful dispatch keeps the cycle out of the failure streak")

	st, err := f.store.LoadState()
	require.NoError(t, err)
	assert.Zero(t, st.ConsecutiveFailures)

	hashes, err := f.store.LoadHashes()
	require.NoError(t, err)
	assert.Contains(t, hashes, "good.md")
	assert.NotContains(t, hashes, "bad.md", "failed files stay pending for retry")
}

func TestRunCycleAllFailedBatchCountsAsFailure(t *testing.T) {
	f := newOrchFixture(t, nil)
	f.writeVaultFile(t, "a.md", "alpha")
	f.backend.fail["a.md"] = errors.New("backend down")

	require.Error(t, f.orch.RunCycle(context.Background()))

	st, err := f.store.LoadState()
	require.NoError(t, err)
	assert.Equal(t, 1, st.ConsecutiveFailures)
}

func TestRunCyclePushWhenEnabled(t *testing.T) {
	f := newOrchFixture(t, nil)

	vaultCfg, err := f.store.LoadConfig()
	require.NoError(t, err)
	vaultCfg.PushEnabled = true
	require.NoError(t, f.store.SaveConfig(vaultCfg))

	f.repo.dirty = true
	f.writeVaultFile(t, "a.md", "alpha")

	require.NoError(t, f.orch.RunCycle(context.Background()))
	assert.Equal(t, 1, f.repo.commits)
	assert.Equal(t, 1, f.repo.pushes)
	assert.Contains(t, f.repo.lastMsg, "vaultsync:")
}

func TestRunCycleNoPushWhenClean(t *testing.T) {
	f := newOrchFixture(t, nil)

	vaultCfg, err := f.store.LoadConfig()
	require.NoError(t, err)
	vaultCfg.PushEnabled = true
	require.NoError(t, f.store.SaveConfig(vaultCfg))

	require.NoError(t, f.orch.RunCycle(context.Background()))
	assert.Zero(t, f.repo.commits)
	assert.Zero(t, f.repo.pushes)
}
