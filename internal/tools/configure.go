package tools

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/vaultsync/internal/git"
	"github.com/raphaelgruber/vaultsync/internal/store"
)

// ConfigureInput defines the input schema for the configure_sync tool.
type ConfigureInput struct {
	RepoURL string `json:"repo_url,omitempty" jsonschema:"HTTPS URL of the vault repository"`
	Token   string `json:"token,omitempty" jsonschema:"Access token for the repository"`
	Branch  string `json:"branch,omitempty" jsonschema:"Branch to sync, defaults to main"`
}

// isUnreplacedPlaceholder detects template values the chat frontend
// failed to substitute, e.g. "{{OBSIDIAN_REPO_URL}}".
func isUnreplacedPlaceholder(value string) bool {
	return strings.HasPrefix(value, "{{") && strings.HasSuffix(value, "}}")
}

// validateConfigValues rejects unreplaced placeholders before anything
// is persisted.
func validateConfigValues(values ...string) error {
	for _, v := range values {
		if isUnreplacedPlaceholder(v) {
			return errors.New("configuration contains unreplaced placeholder values; check frontend variable settings")
		}
	}
	return nil
}

// NewConfigureHandler creates the configure_sync tool handler. With a
// repository URL and token it writes a fresh config snapshot and stores
// the token in the Git credential store; with no arguments it reports
// the current configuration.
func NewConfigureHandler(deps *Dependencies) mcp.ToolHandlerFor[ConfigureInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ConfigureInput) (*mcp.CallToolResult, any, error) {
		if input.RepoURL == "" || input.Token == "" {
			cfg, err := deps.Store.LoadConfig()
			if errors.Is(err, store.ErrNotConfigured) {
				return TextResult("No sync configuration found. Provide repo_url and token to configure."), nil, nil
			}
			if err != nil {
				return ErrorResult(err.Error(), ""), nil, nil
			}
			st, _ := deps.Store.LoadState()
			return TextResult(fmt.Sprintf("Current sync status: %s. Repository: %s (branch %s)",
				st.Status, cfg.RepoURL, cfg.Branch)), nil, nil
		}

		if err := validateConfigValues(input.RepoURL, input.Token, input.Branch); err != nil {
			return ErrorResult(err.Error(), "Set the repository URL and token to their real values"), nil, nil
		}

		credFile := filepath.Join(deps.Store.Dir(), ".git-credentials")
		if err := git.StoreCredentials(ctx, credFile, input.RepoURL, input.Token); err != nil {
			deps.Logger.Warn("failed to store credentials", "error", err)
		}

		cfg := store.NewVaultConfig(git.CleanRemoteURL(input.RepoURL), input.Branch)
		if err := deps.Store.SaveConfig(cfg); err != nil {
			return ErrorResult("Failed to save sync configuration: "+err.Error(), ""), nil, nil
		}

		deps.Logger.Info("sync configured", "repo", cfg.RepoURL, "branch", cfg.Branch)
		return TextResult("Successfully configured vault sync for: " + cfg.RepoURL), nil, nil
	}
}
