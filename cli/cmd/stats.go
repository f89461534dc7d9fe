package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/strata/cli/reader"
	"github.com/justapithecus/strata/cli/render"
	"github.com/justapithecus/strata/iox"
	"github.com/justapithecus/strata/store"
)

// StatsCommand returns the stats command.
// Stats rescans the file, bypassing the cache, and reports the scan counters.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Scan a file and show its record statistics",
		ArgsUsage: "<file>",
		Flags:     append(TUIReadOnlyFlags(), ScanFlags()...),
		Action:    statsAction,
	}
}

func statsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	out, err := scanOne(c, false)
	if err != nil {
		return err
	}

	stats := reader.Stats(out.Metrics)
	if c.Bool("tui") {
		return r.RenderTUI("stats_scan", stats)
	}
	return r.Render(stats)
}

// StoredCommand returns the stored command.
// Stored reads the latest scan of a file back from the table of contents
// store without touching the file itself.
func StoredCommand() *cli.Command {
	return &cli.Command{
		Name:      "stored",
		Usage:     "Show the latest stored table of contents of a file",
		ArgsUsage: "<file>",
		Flags: append(append(ReadOnlyFlags(), StorageFlags()...),
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: ./strata.yaml when present)",
			},
		),
		Action: storedAction,
	}
}

func storedAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one file required", exitUsage)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for stored command", exitUsage)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid config: %v", err), exitUsage)
	}

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	s, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return cli.Exit(fmt.Sprintf("storage: %v", err), exitUsage)
	}
	if s == nil {
		return cli.Exit("no storage configured (set --storage-backend and --storage-path)", exitUsage)
	}
	defer iox.DiscardClose(s)

	path := c.Args().First()
	scan, err := store.LatestScan(ctx, s.Dataset(), store.FileKey(path))
	if errors.Is(err, store.ErrNoScan) {
		return cli.Exit(fmt.Sprintf("no stored scan for %s", path), exitScanFailed)
	}
	if err != nil {
		return fmt.Errorf("failed to read scan from store: %w", err)
	}

	parsed, err := reader.ParseScanRecord(scan)
	if err != nil {
		return fmt.Errorf("failed to parse scan record: %w", err)
	}
	return r.Render(parsed)
}
