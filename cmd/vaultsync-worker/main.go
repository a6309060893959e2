// The vaultsync-worker binary runs the continuous sync loop: it pulls
// the configured vault repository, detects changed documents and keeps
// the semantic-search backend's index current.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/raphaelgruber/vaultsync/internal/config"
	"github.com/raphaelgruber/vaultsync/internal/git"
	"github.com/raphaelgruber/vaultsync/internal/indexer"
	"github.com/raphaelgruber/vaultsync/internal/store"
	"github.com/raphaelgruber/vaultsync/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "vaultsync-worker:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.New(cfg.UserDir())
	backend := indexer.NewClient(cfg)

	credFile := filepath.Join(st.Dir(), ".git-credentials")
	repo := git.OpenLazy(cfg.VaultDir(), credFile, func() (string, string, error) {
		vaultCfg, err := st.LoadConfig()
		if err != nil {
			return "", "", err
		}
		return vaultCfg.RepoURL, vaultCfg.Branch, nil
	})

	// One-time sweep: drop embeddings for files that migrated into
	// hidden directories since they were indexed.
	backend.CleanupHidden(ctx, cfg.VaultDir(), logger)

	orchestrator := worker.New(cfg, st, repo, backend, nil, logger)

	err := orchestrator.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
