package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/vaultsync/internal/git"
	"github.com/raphaelgruber/vaultsync/internal/store"
)

var (
	configureRepo   string
	configureToken  string
	configureBranch string
	configurePush   bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure the vault repository and credentials",
	RunE:  runConfigure,
}

func init() {
	configureCmd.Flags().StringVar(&configureRepo, "repo", "", "HTTPS URL of the vault repository")
	configureCmd.Flags().StringVar(&configureToken, "token", "", "access token for the repository")
	configureCmd.Flags().StringVar(&configureBranch, "branch", "main", "branch to sync")
	configureCmd.Flags().BoolVar(&configurePush, "push", false, "push local changes back after each cycle")
	configureCmd.MarkFlagRequired("repo")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	if configureToken != "" {
		credFile := filepath.Join(st.Dir(), ".git-credentials")
		if err := git.StoreCredentials(cmd.Context(), credFile, configureRepo, configureToken); err != nil {
			return fmt.Errorf("store credentials: %w", err)
		}
	}

	vaultCfg := store.NewVaultConfig(git.CleanRemoteURL(configureRepo), configureBranch)
	vaultCfg.PushEnabled = configurePush
	if err := st.SaveConfig(vaultCfg); err != nil {
		return err
	}

	fmt.Printf("Configured vault sync for %s (branch %s)\n", vaultCfg.RepoURL, vaultCfg.Branch)
	return nil
}
