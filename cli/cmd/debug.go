package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/strata/cli/reader"
	"github.com/justapithecus/strata/cli/render"
	"github.com/justapithecus/strata/iox"
)

// DebugCommand returns the debug command with subcommands.
// Debug commands are diagnostic tools that bypass indexing.
func DebugCommand() *cli.Command {
	return &cli.Command{
		Name:  "debug",
		Usage: "Diagnostic tools (records)",
		Subcommands: []*cli.Command{
			debugRecordsCommand(),
		},
	}
}

func debugRecordsCommand() *cli.Command {
	return &cli.Command{
		Name:      "records",
		Usage:     "List logical record headers as the framing layer sees them",
		ArgsUsage: "<file>",
		Flags: append(append(ReadOnlyFlags(), ScanFlags()...),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of records to list (0 = no limit)",
			},
		),
		Action: debugRecordsAction,
	}
}

func debugRecordsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one file required", exitUsage)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for debug commands", exitUsage)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid config: %v", err), exitUsage)
	}

	path := c.Args().First()
	f, err := os.Open(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("open %s: %v", path, err), exitScanFailed)
	}
	defer iox.DiscardClose(f)

	items, err := reader.RecordHeaders(f, indexOptions(cfg).Framing, c.Int("limit"))
	if err != nil {
		// Report what was read before the framing error.
		if rerr := r.Render(items); rerr != nil {
			return rerr
		}
		return cli.Exit(fmt.Sprintf("framing error: %v", err), exitScanFailed)
	}

	if len(items) > listWarningThreshold && c.Int("limit") == 0 && isStderrTTY() {
		fmt.Fprintf(os.Stderr, "Warning: returning %d records. Consider using --limit to reduce output.\n\n", len(items))
	}
	return r.Render(items)
}
