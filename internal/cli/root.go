// Package cli provides the command-line interface for vaultsync
// administration.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/vaultsync/internal/config"
	"github.com/raphaelgruber/vaultsync/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global config and store, initialized before every command.
	cfg config.Config
	st  *store.Store
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vaultsync",
	Short: "Administer Git vault synchronization and indexing",
	Long: `vaultsync keeps a Git-backed document vault continuously indexed in a
semantic-search backend. This CLI inspects and administers the sync
state that the worker and the MCP control plane share on disk.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		st = store.New(cfg.UserDir())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
