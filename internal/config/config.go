// Package config provides environment-driven configuration for the
// vaultsync worker and control-plane processes.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values shared by the worker, the MCP
// service and the CLI.
type Config struct {
	// Storage layout
	StorageRoot string
	UserID      string

	// RAG backend
	RAGAPIURL    string
	RAGJWTSecret string

	// Sync timing and limits
	SyncInterval          time.Duration
	MaxFilesPerCycle      int
	IndexDelay            time.Duration
	MaxConcurrentIndexing int
	NetworkTimeout        time.Duration
	CleanupTimeout        time.Duration

	// Circuit breaker
	MaxConsecutiveFailures int

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables with defaults
// matching the deployed worker.
func Load() Config {
	return Config{
		StorageRoot: getEnv("STORAGE_ROOT", "/storage"),
		UserID:      getEnv("SYNC_USER_ID", "default"),

		RAGAPIURL:    getEnv("RAG_API_URL", "http://librechat-rag-api:8000"),
		RAGJWTSecret: getEnv("RAG_API_JWT_SECRET", os.Getenv("JWT_SECRET")),

		SyncInterval:          getEnvDuration("SYNC_INTERVAL", 60*time.Second),
		MaxFilesPerCycle:      getEnvInt("MAX_FILES_PER_CYCLE", 10),
		IndexDelay:            getEnvDuration("INDEX_DELAY", 500*time.Millisecond),
		MaxConcurrentIndexing: getEnvInt("MAX_CONCURRENT_INDEXING", 4),
		NetworkTimeout:        getEnvDuration("NETWORK_TIMEOUT", 30*time.Second),
		CleanupTimeout:        getEnvDuration("CLEANUP_TIMEOUT", 10*time.Second),

		MaxConsecutiveFailures: getEnvInt("MAX_CONSECUTIVE_FAILURES", 5),

		LogFile:  getEnv("VAULTSYNC_LOG_FILE", "/tmp/vaultsync.log"),
		LogLevel: parseLogLevel(getEnv("VAULTSYNC_LOG_LEVEL", "INFO")),
	}
}

// UserDir returns the per-user storage directory.
func (c Config) UserDir() string {
	return filepath.Join(c.StorageRoot, c.UserID)
}

// VaultDir returns the local checkout path of the user's vault.
func (c Config) VaultDir() string {
	return filepath.Join(c.UserDir(), "obsidian_vault")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvDuration accepts Go duration strings ("500ms", "1m") and, for
// compatibility with the legacy worker, bare numbers interpreted as
// seconds ("60", "0.5").
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(val, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
