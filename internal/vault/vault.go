// Package vault provides scanning and change detection for the local
// checkout of a Git-backed document vault.
//
// Paths handed out by this package are vault-relative and use forward
// slashes regardless of platform, so they are stable keys for the hash
// store and for backend file IDs.
package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File is a single document in the vault.
type File struct {
	// Path is the normalized vault-relative path (forward slashes).
	Path string

	// AbsPath is the file's location on disk.
	AbsPath string

	// ModTime is the file's last modification time, used only for
	// dispatch ordering, never for change detection.
	ModTime time.Time

	// Hash is the SHA-256 content hash, set by change detection.
	Hash string
}

// NormalizePath converts a path relative to the vault root into the
// canonical forward-slash form used as a hash store key.
func NormalizePath(rel string) string {
	return filepath.ToSlash(filepath.Clean(rel))
}

// IsHidden reports whether any component of the vault-relative path
// starts with a dot. Hidden directories hold version-control and editor
// metadata and are never indexed.
func IsHidden(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// indexable reports whether a file name is eligible for indexing.
func indexable(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".markdown"
}

// Scan walks the vault tree and returns all indexable files, skipping
// hidden directories entirely. A missing vault directory yields an empty
// result, not an error: the first cycle clones it.
func Scan(root string) ([]File, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var files []File
	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !indexable(d.Name()) || IsHidden(rel) {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil // Raced deletion, next cycle picks it up.
		}
		files = append(files, File{
			Path:    NormalizePath(rel),
			AbsPath: path,
			ModTime: info.ModTime(),
		})
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, err
	}
	return files, nil
}

// HashFile computes the SHA-256 hex digest of a file's content.
// Zero-byte files hash normally.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes computes the SHA-256 hex digest of in-memory content. It is
// the same function as HashFile so snapshots taken at enqueue time
// produce identical hash store entries.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
