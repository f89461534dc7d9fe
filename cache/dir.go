package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/justapithecus/strata/index"
	"github.com/justapithecus/strata/iox"
	"github.com/justapithecus/strata/log"
)

// Dir is a directory of cache files, one per indexed file.
type Dir struct {
	root string
}

// NewDir returns a cache rooted at root. The directory is created on first save.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the cache directory.
func (d *Dir) Root() string { return d.root }

// Path returns the cache file for key.
func (d *Dir) Path(key Key) string {
	name := strconv.FormatUint(xxhash.Sum64String(key.Path), 16) + ".idx"
	return filepath.Join(d.root, name)
}

// Load returns the cached index for key. A missing, corrupt or stale cache
// file is reported as an *Error.
func (d *Dir) Load(key Key) (*index.Index, error) {
	data, err := os.ReadFile(d.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &Error{Kind: ErrorStale, Msg: "no cache for " + key.Path}
	}
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return Decode(bytes.NewReader(data), key)
}

// Save writes idx under key, replacing any previous cache file atomically.
func (d *Dir) Save(idx *index.Index, key Key) error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("cache: create directory: %w", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, idx, key); err != nil {
		return err
	}
	path := d.Path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("cache: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("cache: write: %w", err)
	}
	return nil
}

// LoadOrBuild returns the cached index of the file at path, or scans it and
// saves the result. The second result reports a cache hit. A nil Dir always
// scans.
func (d *Dir) LoadOrBuild(ctx context.Context, path string, opts index.Options, logger *log.Logger) (*index.Index, bool, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer iox.DiscardClose(f)

	info, err := f.Stat()
	if err != nil {
		return nil, false, err
	}
	key := NewKey(path, info.Size(), info.ModTime(), opts)

	if d != nil {
		idx, err := d.Load(key)
		if err == nil {
			opts.Metrics.IncCacheHit()
			logger.Debug("index cache hit", map[string]any{"cache": d.Path(key)})
			return idx, true, nil
		}
		if !IsMiss(err) {
			return nil, false, err
		}
		opts.Metrics.IncCacheMiss()
		logger.Debug("index cache miss", map[string]any{"reason": err.Error()})
	}

	idx, err := index.Build(ctx, f, path, opts, logger)
	if err != nil {
		return nil, false, err
	}
	if d != nil {
		if err := d.Save(idx, key); err != nil {
			logger.Warn("index cache not written", map[string]any{"error": err.Error()})
		}
	}
	return idx, false, nil
}
