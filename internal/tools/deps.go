// Package tools provides the MCP control-plane tool handlers and their
// registration.
package tools

import (
	"log/slog"

	"github.com/raphaelgruber/vaultsync/internal/config"
	"github.com/raphaelgruber/vaultsync/internal/store"
)

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Store  *store.Store
	Config config.Config
	Logger *slog.Logger
}
