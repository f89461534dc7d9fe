package config

import (
	"errors"
	"fmt"
	"time"
)

// Config represents a strata.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	Scan    ScanConfig    `yaml:"scan"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Adapter AdapterConfig `yaml:"adapter"`
}

// ScanConfig holds framing and indexing defaults.
type ScanConfig struct {
	TIF          bool `yaml:"tif"`
	PadAlignment int  `yaml:"pad_alignment"`
	BestEffort   bool `yaml:"best_effort"`
	KeepGoing    bool `yaml:"keep_going"`
	// XAxisChannel is nil when unset; -1 selects the default X axis.
	XAxisChannel *int `yaml:"x_axis_channel,omitempty"`
	Workers      int  `yaml:"workers"`
}

// StorageConfig holds table of contents storage defaults.
type StorageConfig struct {
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// CacheConfig holds index cache defaults.
type CacheConfig struct {
	// Dir is the cache directory. Empty disables the cache.
	Dir string `yaml:"dir"`
}

// AdapterConfig holds notification adapter defaults.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Scan.PadAlignment < 0 {
		errs = append(errs, fmt.Errorf("scan.pad_alignment must be >= 0, got %d", c.Scan.PadAlignment))
	}
	if c.Scan.Workers < 0 {
		errs = append(errs, fmt.Errorf("scan.workers must be >= 0, got %d", c.Scan.Workers))
	}
	if x := c.Scan.XAxisChannel; x != nil && *x < -1 {
		errs = append(errs, fmt.Errorf("scan.x_axis_channel must be >= -1, got %d", *x))
	}
	switch c.Storage.Backend {
	case "", "fs", "s3", "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be fs, s3 or memory, got %q", c.Storage.Backend))
	}
	switch c.Adapter.Type {
	case "", "webhook", "redis":
	default:
		errs = append(errs, fmt.Errorf("adapter.type must be webhook or redis, got %q", c.Adapter.Type))
	}
	if r := c.Adapter.Retries; r != nil && *r < 0 {
		errs = append(errs, fmt.Errorf("adapter.retries must be >= 0, got %d", *r))
	}
	return errors.Join(errs...)
}
