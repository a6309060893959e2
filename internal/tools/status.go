package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/vaultsync/internal/store"
	"github.com/raphaelgruber/vaultsync/internal/vault"
)

// StatusInput defines the (empty) input schema for the sync_status tool.
type StatusInput struct{}

// NewStatusHandler creates the sync_status tool handler. It reports the
// persisted worker state plus vault statistics and a completion
// estimate derived from the cycle cap and interval.
func NewStatusHandler(deps *Dependencies) mcp.ToolHandlerFor[StatusInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (*mcp.CallToolResult, any, error) {
		cfg, err := deps.Store.LoadConfig()
		if errors.Is(err, store.ErrNotConfigured) {
			return TextResult("No sync configuration found. Use configure_sync to set up vault synchronization."), nil, nil
		}
		if err != nil {
			return ErrorResult(err.Error(), ""), nil, nil
		}

		st, err := deps.Store.LoadState()
		if err != nil {
			return ErrorResult(err.Error(), ""), nil, nil
		}

		total, synced := vaultStats(deps)

		lines := []string{
			"=== Vault Sync Status ===",
			"Repository: " + cfg.RepoURL,
			"Branch: " + cfg.Branch,
			"Status: " + st.Status,
			"",
		}

		if total > 0 {
			pct := float64(synced) / float64(total) * 100
			lines = append(lines, fmt.Sprintf("Progress: %d/%d files (%.1f%%)", synced, total, pct))
			if eta := estimateCompletion(total-synced, deps.Config.MaxFilesPerCycle, deps.Config.SyncInterval); eta != "" {
				lines = append(lines, "Estimated completion: "+eta)
			}
			lines = append(lines, "")
		}

		switch {
		case st.Status == "halted":
			lines = append(lines, fmt.Sprintf("HALTED after %d consecutive failures.", st.ConsecutiveFailures))
			if st.LastError != "" {
				lines = append(lines, "Last error: "+st.LastError)
			}
			lines = append(lines, "Use reset_sync_failures to resume.")
		case st.ConsecutiveFailures > 0:
			lines = append(lines, fmt.Sprintf("WARNING: %d recent consecutive failures.", st.ConsecutiveFailures))
			if st.LastError != "" {
				lines = append(lines, "Last error: "+st.LastError)
			}
		default:
			lines = append(lines, "ACTIVE")
		}

		if st.LastCycleCompletedAt != nil {
			lines = append(lines, "Last successful cycle: "+st.LastCycleCompletedAt.Format(time.RFC3339))
		}

		return TextResult(strings.Join(lines, "\n")), nil, nil
	}
}

// vaultStats counts indexable files in the checkout and how many of
// them the hash store already covers.
func vaultStats(deps *Dependencies) (total, synced int) {
	files, err := vault.Scan(deps.Config.VaultDir())
	if err != nil {
		deps.Logger.Warn("vault scan failed for status", "error", err)
		return 0, 0
	}
	total = len(files)

	hashes, err := deps.Store.LoadHashes()
	if err != nil {
		return total, 0
	}
	for _, f := range files {
		if _, ok := hashes[f.Path]; ok {
			synced++
		}
	}
	return total, synced
}

// estimateCompletion converts the backlog into human-readable wall
// time, given the per-cycle cap and cycle interval.
func estimateCompletion(remaining, filesPerCycle int, interval time.Duration) string {
	if remaining <= 0 || filesPerCycle <= 0 {
		return ""
	}

	cycles := (remaining + filesPerCycle - 1) / filesPerCycle
	totalMinutes := int(time.Duration(cycles) * interval / time.Minute)
	if totalMinutes <= 0 {
		return "less than 1 minute"
	}

	days := totalMinutes / (24 * 60)
	hours := (totalMinutes % (24 * 60)) / 60
	minutes := totalMinutes % 60

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}

	switch len(parts) {
	case 0:
		return "less than 1 minute"
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
