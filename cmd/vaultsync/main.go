// The vaultsync binary is the admin CLI: configure the vault, inspect
// sync status, reset failures, force a re-index or run the worker in
// the foreground.
package main

import (
	"os"

	"github.com/raphaelgruber/vaultsync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
