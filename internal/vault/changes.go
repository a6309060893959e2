package vault

import (
	"log/slog"
	"sort"
)

// ChangeSet is the result of diffing the live vault tree against the
// hash store. Added, Modified and Deleted are disjoint.
type ChangeSet struct {
	Added    []File
	Modified []File

	// Deleted holds vault-relative paths present in the hash store but
	// absent on disk.
	Deleted []string
}

// Empty reports whether no changes were detected.
func (c ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

// Changed returns the added and modified files ordered by modification
// time descending, with path ascending as a deterministic tie-break.
// Most recently touched files dispatch first.
func (c ChangeSet) Changed() []File {
	changed := make([]File, 0, len(c.Added)+len(c.Modified))
	changed = append(changed, c.Added...)
	changed = append(changed, c.Modified...)
	sort.Slice(changed, func(i, j int) bool {
		if !changed[i].ModTime.Equal(changed[j].ModTime) {
			return changed[i].ModTime.After(changed[j].ModTime)
		}
		return changed[i].Path < changed[j].Path
	})
	return changed
}

// DetectChanges walks the vault rooted at root and diffs it against the
// stored path→hash mapping. Hashes are content-based: touching a file's
// mtime without changing bytes does not mark it modified. Unreadable
// files are logged and skipped, and are not reported as deleted.
func DetectChanges(root string, stored map[string]string, logger *slog.Logger) (ChangeSet, error) {
	files, err := Scan(root)
	if err != nil {
		return ChangeSet{}, err
	}

	var cs ChangeSet
	seen := make(map[string]bool, len(files))

	for _, f := range files {
		seen[f.Path] = true

		hash, err := HashFile(f.AbsPath)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", f.Path, "error", err)
			continue
		}
		f.Hash = hash

		prev, ok := stored[f.Path]
		switch {
		case !ok:
			cs.Added = append(cs.Added, f)
		case prev != hash:
			cs.Modified = append(cs.Modified, f)
		}
	}

	for path := range stored {
		if !seen[path] {
			cs.Deleted = append(cs.Deleted, path)
		}
	}
	sort.Strings(cs.Deleted)

	return cs, nil
}
