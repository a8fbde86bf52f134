package main

import (
	"os"

	"github.com/garyjia/timecard-reconciler/internal/commands"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := commands.NewRootCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}
