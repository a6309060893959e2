package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all control-plane tools with the MCP server.
// Called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Test tool - responds with pong or echoes input",
	}, NewPingHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "configure_sync",
		Description: "Configure or inspect Git synchronization for the document vault",
	}, NewConfigureHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_status",
		Description: "Report vault synchronization status, progress and failure state",
	}, NewStatusHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_sync_failures",
		Description: "Clear the consecutive-failure count to resume a halted sync",
	}, NewResetHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "force_full_reindex",
		Description: "Delete the hash store to force re-indexing of every vault file",
	}, NewReindexHandler(deps))
}
