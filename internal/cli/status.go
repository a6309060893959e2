package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/vaultsync/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current sync state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	vaultCfg, err := st.LoadConfig()
	if errors.Is(err, store.ErrNotConfigured) {
		fmt.Println("Not configured. Run: vaultsync configure --repo <url> --token <token>")
		return nil
	}
	if err != nil {
		return err
	}

	state, err := st.LoadState()
	if err != nil {
		return err
	}

	fmt.Printf("Repository:            %s (branch %s)\n", vaultCfg.RepoURL, vaultCfg.Branch)
	fmt.Printf("Status:                %s\n", state.Status)
	fmt.Printf("Progress:              %d%%\n", state.ProgressPercent)
	fmt.Printf("Consecutive failures:  %d\n", state.ConsecutiveFailures)
	if state.LastError != "" {
		fmt.Printf("Last error:            %s\n", state.LastError)
	}
	if state.LastCycleCompletedAt != nil {
		fmt.Printf("Last cycle completed:  %s\n", state.LastCycleCompletedAt.Format(time.RFC3339))
	}
	return nil
}
