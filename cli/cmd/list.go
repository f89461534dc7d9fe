package cmd

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/strata/cli/reader"
	"github.com/justapithecus/strata/cli/render"
)

// listWarningThreshold is the number of items above which we warn about using --limit.
const listWarningThreshold = 100

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// ListCommand returns the list command with subcommands.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List reference tables (record-types)",
		Subcommands: []*cli.Command{
			listRecordTypesCommand(),
		},
	}
}

func listRecordTypesCommand() *cli.Command {
	return &cli.Command{
		Name:   "record-types",
		Usage:  "List the logical record types and their classes",
		Flags:  ReadOnlyFlags(),
		Action: listRecordTypesAction,
	}
}

func listRecordTypesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	// TUI not supported for list commands
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", exitUsage)
	}

	return r.Render(reader.RecordTypes())
}
