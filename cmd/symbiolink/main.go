// Command symbiolink is the command line client: offline analysis of entity
// files and the serve subcommand.
package main

import (
	"context"
	"os"

	"github.com/turtacn/SymbioLink/internal/app"
	"github.com/turtacn/SymbioLink/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	app.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
