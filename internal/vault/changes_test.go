package vault

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDetectChangesInitialScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "alpha")
	writeFile(t, root, "notes/b.md", "beta")

	cs, err := DetectChanges(root, map[string]string{}, testLogger())
	require.NoError(t, err)

	assert.Len(t, cs.Added, 2)
	assert.Empty(t, cs.Modified)
	assert.Empty(t, cs.Deleted)
	for _, f := range cs.Added {
		assert.NotEmpty(t, f.Hash)
	}
}

func TestDetectChangesIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "alpha")
	writeFile(t, root, "b.md", "beta")

	cs, err := DetectChanges(root, map[string]string{}, testLogger())
	require.NoError(t, err)

	stored := map[string]string{}
	for _, f := range cs.Added {
		stored[f.Path] = f.Hash
	}

	again, err := DetectChanges(root, stored, testLogger())
	require.NoError(t, err)
	assert.True(t, again.Empty(), "unchanged vault must produce no changes")
}

func TestDetectChangesContentBased(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.md", "alpha")

	hash, err := HashFile(path)
	require.NoError(t, err)
	stored := map[string]string{"a.md": hash}

	// An mtime touch without a content change is not a modification.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	cs, err := DetectChanges(root, stored, testLogger())
	require.NoError(t, err)
	assert.True(t, cs.Empty(), "mtime-only change must not re-index")

	// A content change is.
	require.NoError(t, os.WriteFile(path, []byte("alpha v2"), 0o644))
	cs, err = DetectChanges(root, stored, testLogger())
	require.NoError(t, err)
	require.Len(t, cs.Modified, 1)
	assert.Equal(t, "a.md", cs.Modified[0].Path)
}

func TestDetectChangesDeleted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.md", "stays")

	keepHash, err := HashFile(filepath.Join(root, "keep.md"))
	require.NoError(t, err)

	stored := map[string]string{
		"keep.md":       keepHash,
		"gone.md":       "deadbeef",
		"notes/gone.md": "deadbeef",
	}

	cs, err := DetectChanges(root, stored, testLogger())
	require.NoError(t, err)
	assert.Empty(t, cs.Added)
	assert.Empty(t, cs.Modified)
	assert.Equal(t, []string{"gone.md", "notes/gone.md"}, cs.Deleted)
}

func TestDetectChangesHiddenExcluded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".obsidian/workspace.md", "editor state")
	writeFile(t, root, "visible.md", "note")

	cs, err := DetectChanges(root, map[string]string{}, testLogger())
	require.NoError(t, err)
	require.Len(t, cs.Added, 1)
	assert.Equal(t, "visible.md", cs.Added[0].Path)
}

func TestChangedOrderedByRecency(t *testing.T) {
	now := time.Now()
	cs := ChangeSet{
		Added: []File{
			{Path: "old.md", ModTime: now.Add(-2 * time.Hour)},
			{Path: "newest.md", ModTime: now},
		},
		Modified: []File{
			{Path: "middle.md", ModTime: now.Add(-1 * time.Hour)},
		},
	}

	changed := cs.Changed()
	require.Len(t, changed, 3)
	assert.Equal(t, "newest.md", changed[0].Path)
	assert.Equal(t, "middle.md", changed[1].Path)
	assert.Equal(t, "old.md", changed[2].Path)
}

func TestChangedTieBreakDeterministic(t *testing.T) {
	ts := time.Now()
	cs := ChangeSet{
		Added: []File{
			{Path: "b.md", ModTime: ts},
			{Path: "a.md", ModTime: ts},
			{Path: "c.md", ModTime: ts},
		},
	}

	first := cs.Changed()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, cs.Changed())
	}
	assert.Equal(t, "a.md", first[0].Path)
	assert.Equal(t, "b.md", first[1].Path)
	assert.Equal(t, "c.md", first[2].Path)
}
