// The vaultsync-mcp binary serves the MCP control plane over stdio:
// configuring the vault, reporting sync status and recovering from
// halted sync, all through tools an assistant can call.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/vaultsync/internal/config"
	"github.com/raphaelgruber/vaultsync/internal/server"
	"github.com/raphaelgruber/vaultsync/internal/store"
	"github.com/raphaelgruber/vaultsync/internal/tools"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "vaultsync-mcp:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	// Stdout carries the MCP protocol, so logs go to stderr and the
	// rotating file only.
	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := &tools.Dependencies{
		Store:  store.New(cfg.UserDir()),
		Config: cfg,
		Logger: logger,
	}

	srv := server.New(version, logger)
	srv.Setup()
	tools.RegisterAll(srv.MCPServer(), deps)

	return srv.Run(ctx)
}
