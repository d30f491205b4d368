// Command labtriage extracts and triages Chilean clinical lab reports.
package main

import (
	"os"

	"github.com/custodia-labs/labtriage/internal/adapters/driving/cli"
)

// version is stamped with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
