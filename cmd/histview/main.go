package main

import (
	"os"

	"github.com/runnerr0/histview/internal/cli"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	// The parser prints its own errors.
	if err := cli.Run(Version); err != nil {
		os.Exit(1)
	}
}
