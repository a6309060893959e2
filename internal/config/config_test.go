package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any ambient overrides; empty values fall back to defaults.
	for _, key := range []string{
		"STORAGE_ROOT", "SYNC_USER_ID", "SYNC_INTERVAL", "MAX_FILES_PER_CYCLE",
		"INDEX_DELAY", "MAX_CONCURRENT_INDEXING", "NETWORK_TIMEOUT",
		"MAX_CONSECUTIVE_FAILURES", "VAULTSYNC_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "/storage", cfg.StorageRoot)
	assert.Equal(t, "default", cfg.UserID)
	assert.Equal(t, 60*time.Second, cfg.SyncInterval)
	assert.Equal(t, 10, cfg.MaxFilesPerCycle)
	assert.Equal(t, 500*time.Millisecond, cfg.IndexDelay)
	assert.Equal(t, 4, cfg.MaxConcurrentIndexing)
	assert.Equal(t, 30*time.Second, cfg.NetworkTimeout)
	assert.Equal(t, 5, cfg.MaxConsecutiveFailures)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_ROOT", "/data")
	t.Setenv("SYNC_USER_ID", "alice")
	t.Setenv("SYNC_INTERVAL", "2m")
	t.Setenv("MAX_FILES_PER_CYCLE", "25")
	t.Setenv("VAULTSYNC_LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, "/data", cfg.StorageRoot)
	assert.Equal(t, "alice", cfg.UserID)
	assert.Equal(t, 2*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 25, cfg.MaxFilesPerCycle)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestJWTSecretFallback(t *testing.T) {
	t.Setenv("RAG_API_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "shared-secret")

	cfg := Load()
	assert.Equal(t, "shared-secret", cfg.RAGJWTSecret)

	t.Setenv("RAG_API_JWT_SECRET", "dedicated")
	cfg = Load()
	assert.Equal(t, "dedicated", cfg.RAGJWTSecret)
}

func TestDirLayout(t *testing.T) {
	cfg := Config{StorageRoot: "/storage", UserID: "alice"}
	assert.Equal(t, filepath.Join("/storage", "alice"), cfg.UserDir())
	assert.Equal(t, filepath.Join("/storage", "alice", "obsidian_vault"), cfg.VaultDir())
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go duration", "500ms", 500 * time.Millisecond},
		{"bare seconds", "60", 60 * time.Second},
		{"fractional seconds", "0.5", 500 * time.Millisecond},
		{"invalid falls back", "soon", 9 * time.Second},
		{"empty falls back", "", 9 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, getEnvDuration("TEST_DURATION", 9*time.Second))
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), "input %q", tt.in)
	}
}
