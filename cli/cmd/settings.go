package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/justapithecus/lode/lode"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/justapithecus/strata/adapter"
	"github.com/justapithecus/strata/adapter/redis"
	"github.com/justapithecus/strata/adapter/webhook"
	"github.com/justapithecus/strata/cache"
	"github.com/justapithecus/strata/cli/config"
	"github.com/justapithecus/strata/framing"
	"github.com/justapithecus/strata/index"
	"github.com/justapithecus/strata/policy"
	"github.com/justapithecus/strata/store"
)

// loadConfig reads the config file and applies every flag the user set.
// Flags always win over config values.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadOptional(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("tif") {
		cfg.Scan.TIF = c.Bool("tif")
	}
	if c.IsSet("pad-alignment") {
		cfg.Scan.PadAlignment = c.Int("pad-alignment")
	}
	if c.IsSet("best-effort") {
		cfg.Scan.BestEffort = c.Bool("best-effort")
	}
	if c.IsSet("keep-going") {
		cfg.Scan.KeepGoing = c.Bool("keep-going")
	}
	if c.IsSet("x-axis-channel") {
		x := c.Int("x-axis-channel")
		cfg.Scan.XAxisChannel = &x
	}
	if c.IsSet("workers") {
		cfg.Scan.Workers = c.Int("workers")
	}
	if c.IsSet("cache-dir") {
		cfg.Cache.Dir = c.String("cache-dir")
	}

	if c.IsSet("dataset") {
		cfg.Storage.Dataset = c.String("dataset")
	}
	if c.IsSet("storage-backend") {
		cfg.Storage.Backend = c.String("storage-backend")
	}
	if c.IsSet("storage-path") {
		cfg.Storage.Path = c.String("storage-path")
	}
	if c.IsSet("storage-region") {
		cfg.Storage.Region = c.String("storage-region")
	}
	if c.IsSet("storage-endpoint") {
		cfg.Storage.Endpoint = c.String("storage-endpoint")
	}
	if c.IsSet("storage-s3-path-style") {
		cfg.Storage.S3PathStyle = c.Bool("storage-s3-path-style")
	}

	if c.IsSet("adapter") {
		cfg.Adapter.Type = c.String("adapter")
	}
	if c.IsSet("adapter-url") {
		cfg.Adapter.URL = c.String("adapter-url")
	}
	if c.IsSet("adapter-channel") {
		cfg.Adapter.Channel = c.String("adapter-channel")
	}
	if c.IsSet("adapter-header") {
		headers, err := parseHeaders(c.StringSlice("adapter-header"))
		if err != nil {
			return nil, err
		}
		cfg.Adapter.Headers = headers
	}
	if c.IsSet("adapter-timeout") {
		cfg.Adapter.Timeout.Duration = c.Duration("adapter-timeout")
	}
	if c.IsSet("adapter-retries") {
		r := c.Int("adapter-retries")
		cfg.Adapter.Retries = &r
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, v := range values {
		k, val, ok := strings.Cut(v, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q (want Key=Value)", v)
		}
		headers[k] = val
	}
	return headers, nil
}

// indexOptions derives index options from the scan config. Policy and
// metrics are per scan and left unset.
func indexOptions(cfg *config.Config) index.Options {
	opts := index.DefaultOptions()
	opts.Framing = framing.Options{
		TIF:          cfg.Scan.TIF,
		PadAlignment: cfg.Scan.PadAlignment,
		BestEffort:   cfg.Scan.BestEffort,
	}
	if x := cfg.Scan.XAxisChannel; x != nil {
		opts.XAxisChannel = *x
	}
	return opts
}

func policyName(cfg *config.Config) string {
	if cfg.Scan.KeepGoing {
		return policy.KeepGoingName
	}
	return policy.StrictName
}

// cacheDir returns the configured cache, or nil when caching is off.
func cacheDir(c *cli.Context, cfg *config.Config) *cache.Dir {
	if c.Bool("no-cache") || cfg.Cache.Dir == "" {
		return nil
	}
	return cache.NewDir(cfg.Cache.Dir)
}

// errWriter is where scan logs go.
func errWriter(c *cli.Context) io.Writer {
	if c.App != nil && c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

func logLevel(c *cli.Context) (zapcore.Level, error) {
	s := c.String("log-level")
	if s == "" {
		return zapcore.WarnLevel, nil
	}
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return level, fmt.Errorf("invalid --log-level: %w", err)
	}
	return level, nil
}

// storageBackend names the backend a config selects, "" for none.
func storageBackend(cfg config.StorageConfig) string {
	if cfg.Backend == "" && cfg.Path != "" {
		return "fs"
	}
	return cfg.Backend
}

// openStore builds the table of contents store. It returns nil when no
// storage is configured.
func openStore(ctx context.Context, cfg config.StorageConfig) (*store.Store, error) {
	switch storageBackend(cfg) {
	case "":
		return nil, nil
	case "fs":
		if cfg.Path == "" {
			return nil, fmt.Errorf("storage backend fs requires a path")
		}
		return store.NewFS(cfg.Dataset, cfg.Path)
	case "memory":
		return store.New(cfg.Dataset, lode.NewMemoryFactory())
	case "s3":
		bucket, prefix := store.ParseS3Path(cfg.Path)
		return store.NewS3(ctx, cfg.Dataset, store.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (must be fs, s3 or memory)", cfg.Backend)
	}
}

// openAdapter builds the notification adapter. It returns nil when no
// adapter is configured.
func openAdapter(cfg config.AdapterConfig) (adapter.Adapter, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "webhook":
		retries := webhook.DefaultRetries
		if cfg.Retries != nil {
			retries = *cfg.Retries
		}
		a, err := webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case "redis":
		retries := redis.DefaultRetries
		if cfg.Retries != nil {
			retries = *cfg.Retries
		}
		a, err := redis.New(redis.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown adapter: %s (must be webhook or redis)", cfg.Type)
	}
}
