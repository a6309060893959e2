package cli

import (
	"context"
	"errors"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/vaultsync/internal/config"
	"github.com/raphaelgruber/vaultsync/internal/git"
	"github.com/raphaelgruber/vaultsync/internal/indexer"
	"github.com/raphaelgruber/vaultsync/internal/worker"
)

var runOnce bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync worker",
	Long:  "Run the sync worker loop, or a single cycle with --once.",
	RunE:  runWorker,
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run one sync cycle and exit")
	rootCmd.AddCommand(runCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := indexer.NewClient(cfg)
	orchestrator := worker.New(cfg, st, openRepo(), backend, nil, logger)

	if runOnce {
		err := orchestrator.RunCycle(ctx)
		if errors.Is(err, worker.ErrHalted) {
			logger.Warn("sync is halted; run `vaultsync reset` to resume")
		}
		return err
	}

	if err := orchestrator.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openRepo builds a git handle that resolves the remote from the
// stored vault configuration on every cycle, so configuring the vault
// while the worker runs needs no restart.
func openRepo() *git.LazyRepo {
	credFile := filepath.Join(st.Dir(), ".git-credentials")
	return git.OpenLazy(cfg.VaultDir(), credFile, func() (string, string, error) {
		vaultCfg, err := st.LoadConfig()
		if err != nil {
			return "", "", err
		}
		return vaultCfg.RepoURL, vaultCfg.Branch, nil
	})
}
