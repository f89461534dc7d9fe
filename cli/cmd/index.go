package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/strata/cli/config"
	"github.com/justapithecus/strata/cli/reader"
	"github.com/justapithecus/strata/cli/render"
	"github.com/justapithecus/strata/iox"
	"github.com/justapithecus/strata/types"
)

// Exit codes.
const (
	exitSuccess         = 0
	exitUsage           = 1
	exitScanFailed      = 2
	exitDeliveryFailure = 3
)

// IndexCommand returns the index command.
// This is the only command that writes: cache files, the table of contents
// store and scan-completed notifications.
func IndexCommand() *cli.Command {
	flags := append(ReadOnlyFlags(), ScanFlags()...)
	flags = append(flags, StorageFlags()...)
	flags = append(flags, AdapterFlags()...)
	flags = append(flags,
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Files scanned concurrently (0 = number of CPUs)",
		},
		&cli.BoolFlag{
			Name:  "toc",
			Usage: "Print tables of contents instead of scan results",
		},
	)
	return &cli.Command{
		Name:      "index",
		Usage:     "Scan files, build their indexes and publish the results",
		ArgsUsage: "<file>...",
		Flags:     flags,
		Action:    indexAction,
	}
}

func indexAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("at least one file required", exitUsage)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for index command", exitUsage)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid config: %v", err), exitUsage)
	}

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	s, err := newScanner(ctx, c, cfg, true)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	defer iox.DiscardClose(s)

	outs := s.scanAll(ctx, c.Args().Slice(), cfg.Scan.Workers)

	if c.Bool("toc") {
		tocs := make([]*reader.FileTOC, 0, len(outs))
		for _, out := range outs {
			if out.Index != nil {
				tocs = append(tocs, reader.TOC(out.Index))
			}
		}
		err = r.Render(tocs)
	} else {
		results := make([]reader.ScanResult, 0, len(outs))
		for _, out := range outs {
			results = append(results, out.Result)
		}
		err = r.Render(results)
	}
	if err != nil {
		return err
	}

	if code := exitCode(outs); code != exitSuccess {
		return cli.Exit("", code)
	}
	return nil
}

// exitCode maps scan outputs to the process exit code. A failed or
// canceled scan outranks a delivery failure.
func exitCode(outs []*scanOutput) int {
	code := exitSuccess
	for _, out := range outs {
		switch {
		case out.Outcome == types.OutcomeFailed, out.Outcome == types.OutcomeCanceled:
			return exitScanFailed
		case out.DeliveryErr != nil:
			code = exitDeliveryFailure
		}
	}
	return code
}

// newScanner builds a scanner from cfg. With deliver set, the store and the
// notification adapter are opened as configured.
func newScanner(ctx context.Context, c *cli.Context, cfg *config.Config, deliver bool) (*scanner, error) {
	level, err := logLevel(c)
	if err != nil {
		return nil, err
	}
	s := &scanner{
		opts:    indexOptions(cfg),
		policy:  policyName(cfg),
		cache:   cacheDir(c, cfg),
		backend: storageBackend(cfg.Storage),
		logOut:  errWriter(c),
		level:   level,
	}
	if !deliver {
		return s, nil
	}

	if s.store, err = openStore(ctx, cfg.Storage); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if s.notifier, err = openAdapter(cfg.Adapter); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("adapter: %w", err)
	}
	return s, nil
}

// scanOne scans the single file argument of c without storing or
// announcing it. With useCache unset the file is always rescanned, so that
// the returned metrics are complete.
func scanOne(c *cli.Context, useCache bool) (*scanOutput, error) {
	if c.NArg() != 1 {
		return nil, cli.Exit("exactly one file required", exitUsage)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid config: %v", err), exitUsage)
	}
	s, err := newScanner(c.Context, c, cfg, false)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitUsage)
	}
	if !useCache {
		s.cache = nil
	}

	out := s.scan(c.Context, c.Args().First())
	if out.Err != nil {
		return nil, cli.Exit(fmt.Sprintf("scan failed: %v", out.Err), exitScanFailed)
	}
	return out, nil
}
