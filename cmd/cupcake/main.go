// Package main is the entry point for the Cupcake CLI.
package main

import (
	"os"

	"github.com/cupcakedapp/cupcake/internal/cli"
)

// Set by -ldflags at build time.
//
//nolint:gochecknoglobals // Build metadata injected by the linker
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	cli.SetVersionInfo(cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
