// Package cmd provides CLI commands for the strata binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for select read-only commands (inspect, stats).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect, stats only)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// TUIReadOnlyFlags returns flags for commands that support TUI mode.
// This is an alias for ReadOnlyFlags, kept for documentation clarity.
func TUIReadOnlyFlags() []cli.Flag {
	return ReadOnlyFlags()
}

// ScanFlags configure how a file is framed and indexed. They override the
// scan and cache sections of the config file.
func ScanFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file (default: ./strata.yaml when present)",
		},
		&cli.BoolFlag{
			Name:  "tif",
			Usage: "Expect TIF markers before every physical record",
		},
		&cli.IntFlag{
			Name:  "pad-alignment",
			Usage: "Tolerate padding before TIF markers up to this alignment (0 = exact)",
		},
		&cli.BoolFlag{
			Name:  "best-effort",
			Usage: "Keep a truncated final record and ignore trailing garbage",
		},
		&cli.BoolFlag{
			Name:  "keep-going",
			Usage: "Skip records with arithmetic errors instead of failing the scan",
		},
		&cli.IntFlag{
			Name:  "x-axis-channel",
			Usage: "Channel holding the X axis (-1 = indirect X if present, else channel 0)",
			Value: -1,
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "Index cache directory (empty disables the cache)",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Ignore the index cache",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Scan log level on stderr: debug, info, warn, error",
			Value: "warn",
		},
	}
}

// StorageFlags select the table of contents store. They override the
// storage section of the config file.
func StorageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "dataset",
			Usage: "Dataset ID (default: strata)",
		},
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Storage backend: fs, s3 or memory",
		},
		&cli.StringFlag{
			Name:  "storage-path",
			Usage: "Storage path (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "storage-region",
			Usage: "AWS region for S3 backend (optional, uses default chain)",
		},
		&cli.StringFlag{
			Name:  "storage-endpoint",
			Usage: "Custom S3 endpoint URL for S3-compatible providers",
		},
		&cli.BoolFlag{
			Name:  "storage-s3-path-style",
			Usage: "Use path-style S3 addressing",
		},
	}
}

// AdapterFlags select the scan-completed notification. They override the
// adapter section of the config file.
func AdapterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Notification adapter: webhook or redis",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Webhook endpoint or Redis URL",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis pub/sub channel",
		},
		&cli.StringSliceFlag{
			Name:  "adapter-header",
			Usage: "Webhook header as Key=Value (repeatable)",
		},
		&cli.DurationFlag{
			Name:  "adapter-timeout",
			Usage: "Per-attempt notification timeout",
		},
		&cli.IntFlag{
			Name:  "adapter-retries",
			Usage: "Notification retry attempts",
		},
	}
}
