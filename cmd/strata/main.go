// Package main provides the strata CLI entrypoint.
//
// Only `index` writes (cache files, the table of contents store and
// notifications); every other command is read-only.
//
// Usage:
//
//	strata <command> [subcommand] [options]
//
// Exit codes:
//   - 0: success (partial scans included)
//   - 1: usage or configuration error
//   - 2: scan failed or canceled
//   - 3: store write or notification failed
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/strata/cli/cmd"
	"github.com/justapithecus/strata/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "strata",
		Usage:          "Index and read LIS-79 well log files",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.IndexCommand(),
			cmd.InspectCommand(),
			cmd.PassesCommand(),
			cmd.PlanCommand(),
			cmd.DumpCommand(),
			cmd.StatsCommand(),
			cmd.StoredCommand(),
			cmd.ListCommand(),
			cmd.DebugCommand(),
			cmd.VersionCommand("", commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	code, msg := exitStatus(err)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

// exitStatus returns the exit code for err and the message to print, if any.
func exitStatus(err error) (int, string) {
	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N", so skip those
		if msg == fmt.Sprintf("exit status %d", code) {
			msg = ""
		}
		return code, msg
	}

	// Unexpected error
	return 1, fmt.Sprintf("Error: %v", err)
}
