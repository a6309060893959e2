package tools

import (
	"context"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResetInput defines the (empty) input schema for reset_sync_failures.
type ResetInput struct{}

// NewResetHandler creates the reset_sync_failures tool handler. This is
// the only way out of the halted state: it zeroes the consecutive
// failure counter and returns a halted worker to idle. The worker
// observes the reset at its next cycle start.
func NewResetHandler(deps *Dependencies) mcp.ToolHandlerFor[ResetInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ResetInput) (*mcp.CallToolResult, any, error) {
		st, err := deps.Store.ResetFailures()
		if err != nil {
			return ErrorResult("Failed to reset failures: "+err.Error(), ""), nil, nil
		}

		deps.Logger.Info("sync failures reset", "status", st.Status)
		return TextResult("Successfully reset sync failure count. Sync will resume on the next cycle."), nil, nil
	}
}

// ReindexInput defines the (empty) input schema for force_full_reindex.
type ReindexInput struct{}

// NewReindexHandler creates the force_full_reindex tool handler. It
// deletes the hash store file; with no stored hashes, every vault file
// appears added on the next cycle. Safe while a cycle is running: the
// worker's in-flight snapshot is unaffected and the next cycle simply
// observes an empty store.
func NewReindexHandler(deps *Dependencies) mcp.ToolHandlerFor[ReindexInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ReindexInput) (*mcp.CallToolResult, any, error) {
		existed := true
		if _, err := os.Stat(deps.Store.HashesPath()); os.IsNotExist(err) {
			existed = false
		}

		if err := deps.Store.DeleteHashes(); err != nil {
			return ErrorResult("Failed to schedule reindex: "+err.Error(), ""), nil, nil
		}

		deps.Logger.Info("full reindex scheduled", "hash_store_existed", existed)
		if existed {
			return TextResult("Full reindex scheduled. All files will be refreshed on the next sync cycle."), nil, nil
		}
		return TextResult("Full reindex scheduled. No existing index was found."), nil, nil
	}
}
