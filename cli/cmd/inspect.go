package cmd

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/strata/cli/reader"
	"github.com/justapithecus/strata/cli/render"
)

// InspectCommand returns the inspect command.
// Without --pass it shows the file's table of contents, with --pass the
// channel layout of one log pass.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Inspect a file or one of its log passes",
		ArgsUsage: "<file>",
		Flags: append(append(TUIReadOnlyFlags(), ScanFlags()...),
			&cli.IntFlag{
				Name:  "pass",
				Usage: "Log pass to inspect (0-based)",
				Value: -1,
			},
		),
		Action: inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	out, err := scanOne(c, true)
	if err != nil {
		return err
	}

	if c.Int("pass") < 0 {
		toc := reader.TOC(out.Index)
		if c.Bool("tui") {
			return r.RenderTUI("inspect_file", toc)
		}
		return r.Render(toc)
	}

	detail, err := reader.Pass(out.Index, c.Int("pass"))
	if errors.Is(err, reader.ErrNoPass) {
		return cli.Exit(err.Error(), exitUsage)
	}
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return r.RenderTUI("inspect_pass", detail)
	}
	return r.Render(detail)
}
