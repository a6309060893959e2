package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// configVersion tags the configuration schema.
const configVersion = "1.1"

// VaultConfig is the per-user sync configuration written by the control
// plane and read by the worker as an immutable snapshot at cycle start.
// The Git token itself is never stored here; it lives in the Git
// credential store next to the checkout.
type VaultConfig struct {
	RepoURL        string    `json:"repo_url"`
	Branch         string    `json:"branch"`
	PushEnabled    bool      `json:"push_enabled,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
	AutoConfigured bool      `json:"auto_configured,omitempty"`
	Version        string    `json:"version"`
}

// NewVaultConfig builds a config snapshot for the given repository,
// defaulting the branch to main.
func NewVaultConfig(repoURL, branch string) VaultConfig {
	if branch == "" {
		branch = "main"
	}
	return VaultConfig{
		RepoURL:   repoURL,
		Branch:    branch,
		UpdatedAt: time.Now().UTC(),
		Version:   configVersion,
	}
}

// ConfigPath returns the location of the vault configuration file.
func (s *Store) ConfigPath() string {
	return filepath.Join(s.dir, ConfigFile)
}

// LoadConfig reads the vault configuration. Returns ErrNotConfigured
// when no configuration has been written yet.
func (s *Store) LoadConfig() (VaultConfig, error) {
	data, err := os.ReadFile(s.ConfigPath())
	if os.IsNotExist(err) {
		return VaultConfig{}, ErrNotConfigured
	}
	if err != nil {
		return VaultConfig{}, fmt.Errorf("read vault config: %w", err)
	}

	var cfg VaultConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return VaultConfig{}, fmt.Errorf("parse vault config: %w", err)
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	return cfg, nil
}

// SaveConfig atomically replaces the vault configuration.
func (s *Store) SaveConfig(cfg VaultConfig) error {
	return s.writeJSON(s.ConfigPath(), cfg)
}
