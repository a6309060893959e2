// Package store persists vaultsync's durable state under the per-user
// storage directory: the hash store, the vault configuration and the
// sync state mirror. Every write goes through an atomic
// write-to-temp-then-rename so a crash mid-write never leaves a
// partially-written file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File names under the user directory. Deleting HashesFile is the
// documented mechanism for forcing a full re-index.
const (
	ConfigFile = "git_config.json"
	HashesFile = "sync_hashes.json"
	StateFile  = "sync_state.json"
)

// ErrNotConfigured indicates no vault configuration exists yet.
var ErrNotConfigured = errors.New("vault sync not configured")

// Store manages the durable files for one user.
type Store struct {
	dir string
}

// New creates a store rooted at the given per-user directory.
func New(userDir string) *Store {
	return &Store{dir: userDir}
}

// Dir returns the per-user storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// HashesPath returns the location of the hash store file.
func (s *Store) HashesPath() string {
	return filepath.Join(s.dir, HashesFile)
}

// LoadHashes reads the path→hash mapping. A missing or deleted file
// yields an empty map: the next cycle simply re-indexes everything.
func (s *Store) LoadHashes() (map[string]string, error) {
	data, err := os.ReadFile(s.HashesPath())
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read hash store: %w", err)
	}

	hashes := map[string]string{}
	if err := json.Unmarshal(data, &hashes); err != nil {
		return nil, fmt.Errorf("parse hash store: %w", err)
	}
	return hashes, nil
}

// SaveHashes atomically replaces the hash store with the given mapping.
func (s *Store) SaveHashes(hashes map[string]string) error {
	return s.writeJSON(s.HashesPath(), hashes)
}

// UpdateHash records one path→hash entry with a read-modify-write of
// the current file, so a concurrent force-reindex deletion of the store
// loses nothing but this one entry: everything persisted before the
// deletion stays gone.
func (s *Store) UpdateHash(path, hash string) error {
	hashes, err := s.LoadHashes()
	if err != nil {
		return err
	}
	hashes[path] = hash
	return s.SaveHashes(hashes)
}

// RemoveHash drops one entry from the hash store, reading the current
// file first like UpdateHash.
func (s *Store) RemoveHash(path string) error {
	hashes, err := s.LoadHashes()
	if err != nil {
		return err
	}
	if _, ok := hashes[path]; !ok {
		return nil
	}
	delete(hashes, path)
	return s.SaveHashes(hashes)
}

// DeleteHashes removes the hash store file, scheduling a full re-index
// on the next cycle. Safe to call while a cycle is running and safe to
// call when the file does not exist.
func (s *Store) DeleteHashes() error {
	err := os.Remove(s.HashesPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete hash store: %w", err)
	}
	return nil
}

// writeJSON marshals v and atomically replaces path with it.
func (s *Store) writeJSON(path string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
