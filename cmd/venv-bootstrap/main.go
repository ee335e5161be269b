// Package main is the entry point for the venv-bootstrap CLI.
//
// All functionality lives in internal/cli. Build-time variables (version,
// commit, date) are injected via ldflags during the release build and
// default to "dev", "none" and "unknown".
package main

import (
	"github.com/shinji-kodama/venv-bootstrap/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
