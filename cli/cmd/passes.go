package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/strata/cli/reader"
	"github.com/justapithecus/strata/cli/render"
	"github.com/justapithecus/strata/frames"
	"github.com/justapithecus/strata/frameset"
	"github.com/justapithecus/strata/iox"
	"github.com/justapithecus/strata/log"
)

// PassesCommand returns the passes command.
func PassesCommand() *cli.Command {
	return &cli.Command{
		Name:      "passes",
		Usage:     "List the log passes of a file",
		ArgsUsage: "<file>",
		Flags:     append(ReadOnlyFlags(), ScanFlags()...),
		Action:    passesAction,
	}
}

func passesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for passes command", exitUsage)
	}
	out, err := scanOne(c, true)
	if err != nil {
		return err
	}
	return r.Render(reader.Passes(out.Index))
}

// frameFlags select a log pass, frames and channels.
func frameFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "pass",
			Usage: "Log pass (0-based)",
		},
		&cli.StringFlag{
			Name:  "frames",
			Usage: "Frame slice as start:stop:step (default: all frames)",
		},
		&cli.IntSliceFlag{
			Name:  "channels",
			Usage: "Channel indexes in output order (default: all channels)",
		},
	}
}

// PlanCommand returns the plan command.
// Plan shows the read, skip and extrapolate events for one data record
// without decoding anything.
func PlanCommand() *cli.Command {
	flags := append(ReadOnlyFlags(), ScanFlags()...)
	flags = append(flags, frameFlags()...)
	flags = append(flags, &cli.IntFlag{
		Name:  "record",
		Usage: "Data record within the pass (0-based)",
	})
	return &cli.Command{
		Name:      "plan",
		Usage:     "Show the addressing plan for one data record",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action:    planAction,
	}
}

func planAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for plan command", exitUsage)
	}
	out, err := scanOne(c, true)
	if err != nil {
		return err
	}

	resp, err := reader.Plan(out.Index, c.Int("pass"), c.Int("record"), c.String("frames"), c.IntSlice("channels"))
	if err != nil {
		return selectionError(err)
	}
	return r.Render(resp)
}

// DumpCommand returns the dump command.
func DumpCommand() *cli.Command {
	flags := append(ReadOnlyFlags(), ScanFlags()...)
	flags = append(flags, frameFlags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:  "mask-absent",
		Usage: "Replace absent values with NaN",
	})
	return &cli.Command{
		Name:      "dump",
		Usage:     "Decode curve values of a log pass",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action:    dumpAction,
	}
}

func dumpAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for dump command", exitUsage)
	}
	out, err := scanOne(c, true)
	if err != nil {
		return err
	}

	f, err := os.Open(out.Meta.File)
	if err != nil {
		return fmt.Errorf("open %s: %w", out.Meta.File, err)
	}
	defer iox.DiscardClose(f)

	level, err := logLevel(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	logger := log.NewLoggerWithLevel(out.Meta, errWriter(c), level)
	defer iox.DiscardErr(logger.Sync)

	fr, err := frames.NewReader(out.Index, f, logger)
	if err != nil {
		return err
	}
	resp, err := reader.Dump(c.Context, out.Index, fr, c.Int("pass"), c.String("frames"), c.IntSlice("channels"), c.Bool("mask-absent"))
	if err != nil {
		return selectionError(err)
	}
	return r.Render(resp)
}

// selectionError turns an out-of-range selection into a usage error.
func selectionError(err error) error {
	var (
		overrun  *frameset.OverrunError
		negative *frameset.NegativeLengthError
	)
	switch {
	case errors.Is(err, reader.ErrNoPass), errors.Is(err, reader.ErrNoRecord),
		errors.Is(err, frameset.ErrInvalidSlice), errors.Is(err, frameset.ErrNoChannels),
		errors.As(err, &overrun), errors.As(err, &negative):
		return cli.Exit(err.Error(), exitUsage)
	default:
		return err
	}
}
