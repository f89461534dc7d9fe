package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	goruntime "runtime"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/justapithecus/strata/adapter"
	"github.com/justapithecus/strata/cache"
	"github.com/justapithecus/strata/cli/reader"
	"github.com/justapithecus/strata/index"
	"github.com/justapithecus/strata/iox"
	"github.com/justapithecus/strata/log"
	"github.com/justapithecus/strata/metrics"
	"github.com/justapithecus/strata/policy"
	"github.com/justapithecus/strata/store"
	"github.com/justapithecus/strata/types"
)

// scanner indexes files with shared, immutable settings. Every scan gets
// its own policy, collector, logger and file handle.
type scanner struct {
	opts     index.Options
	policy   string
	cache    *cache.Dir
	store    *store.Store
	notifier adapter.Adapter
	backend  string
	logOut   io.Writer
	level    zapcore.Level
}

// scanOutput is everything one scan produced.
type scanOutput struct {
	Meta    types.ScanMeta
	Index   *index.Index
	Outcome types.Outcome
	Result  reader.ScanResult
	Metrics metrics.Snapshot
	// Err is the scan error, nil for success and partial outcomes.
	Err error
	// DeliveryErr is a store or notification failure after the scan.
	DeliveryErr error
}

// Close releases the store and the notification adapter.
func (s *scanner) Close() error {
	var closers []io.Closer
	if s.store != nil {
		closers = append(closers, s.store)
	}
	if s.notifier != nil {
		closers = append(closers, s.notifier)
	}
	return iox.CloseAll(closers...)
}

// scanAll scans paths with at most workers concurrent scans. Results keep
// the order of paths. Files not started before ctx is done are reported as
// canceled.
func (s *scanner) scanAll(ctx context.Context, paths []string, workers int) []*scanOutput {
	if workers <= 0 {
		workers = goruntime.GOMAXPROCS(0)
	}
	workers = max(min(workers, len(paths)), 1)

	out := make([]*scanOutput, len(paths))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, path := range paths {
		// Acquire semaphore (bounded concurrency).
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			out[i] = canceledOutput(path, ctx.Err())
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = s.scan(ctx, path)
		}()
	}
	wg.Wait()
	return out
}

func canceledOutput(path string, err error) *scanOutput {
	meta := types.NewScanMeta(path)
	return &scanOutput{
		Meta:    meta,
		Outcome: types.OutcomeCanceled,
		Err:     err,
		Result: reader.ScanResult{
			File:    path,
			ScanID:  meta.ScanID,
			Outcome: string(types.OutcomeCanceled),
			Error:   err.Error(),
		},
	}
}

// scan indexes one file, then stores and announces the result. Canceled
// scans are neither stored nor announced.
func (s *scanner) scan(ctx context.Context, path string) *scanOutput {
	start := time.Now()
	meta := types.NewScanMeta(path)
	logger := log.NewLoggerWithLevel(meta, s.logOut, s.level)
	defer iox.DiscardErr(logger.Sync)

	pol, err := policy.New(s.policy)
	if err != nil {
		out := &scanOutput{Meta: meta, Outcome: types.OutcomeFailed, Err: err}
		out.Result = scanResult(out, false, time.Since(start))
		return out
	}
	coll := metrics.NewCollector(pol.Name(), s.backend, meta.ScanID, path)
	opts := s.opts
	opts.Policy = pol
	opts.Metrics = coll

	idx, cached, err := s.cache.LoadOrBuild(ctx, path, opts, logger)
	out := &scanOutput{Meta: meta, Index: idx, Err: err}
	out.Outcome = scanOutcome(err, coll.Snapshot())
	if err != nil {
		logger.Error("scan failed", map[string]any{"error": err.Error(), "outcome": string(out.Outcome)})
	}

	if out.Outcome != types.OutcomeCanceled {
		out.DeliveryErr = s.deliver(ctx, out, coll, cached, time.Since(start), logger)
	}

	out.Metrics = coll.Snapshot()
	out.Result = scanResult(out, cached, time.Since(start))
	return out
}

// deliver writes the scan to the store and publishes the completion event.
// Both are attempted; their errors are joined.
func (s *scanner) deliver(ctx context.Context, out *scanOutput, coll *metrics.Collector, cached bool, elapsed time.Duration, logger *log.Logger) error {
	var errs []error

	if s.store != nil {
		if err := s.store.WithMetrics(coll).WriteScan(ctx, out.Meta, out.Index, out.Outcome, coll.Snapshot()); err != nil {
			logger.Error("store write failed", map[string]any{"error": err.Error()})
			errs = append(errs, err)
		}
	}

	if s.notifier != nil {
		event := s.completedEvent(out, coll.Snapshot(), elapsed)
		if err := s.notifier.Publish(ctx, event); err != nil {
			coll.IncNotifyFailure()
			logger.Error("notification failed", map[string]any{"error": err.Error()})
			errs = append(errs, err)
		} else {
			coll.IncNotifySuccess()
			logger.Debug("notification sent", map[string]any{"cached": cached})
		}
	}
	return errors.Join(errs...)
}

func (s *scanner) completedEvent(out *scanOutput, snap metrics.Snapshot, elapsed time.Duration) *adapter.ScanCompletedEvent {
	c := countIndex(out.Index)
	event := &adapter.ScanCompletedEvent{
		Version:        types.Version,
		EventType:      adapter.EventTypeScanCompleted,
		ScanID:         out.Meta.ScanID,
		File:           out.Meta.File,
		Outcome:        string(out.Outcome),
		Cache:          s.cachePath(out.Meta.File),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Records:        int64(c.entries + c.dataRecords),
		LogPasses:      int64(c.passes),
		Frames:         c.frames,
		RecordsSkipped: snap.RecordsSkipped,
		FatalErrors:    snap.FatalErrors,
		DurationMs:     elapsed.Milliseconds(),
	}
	if out.Err != nil {
		event.Error = out.Err.Error()
	}
	return event
}

// cachePath returns the cache file of path, "" without a cache.
func (s *scanner) cachePath(path string) string {
	if s.cache == nil {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return s.cache.Path(cache.NewKey(path, info.Size(), info.ModTime(), s.opts))
}

// scanOutcome classifies a finished scan.
func scanOutcome(err error, snap metrics.Snapshot) types.Outcome {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return types.OutcomeCanceled
	case err != nil:
		return types.OutcomeFailed
	case snap.RecordsSkipped > 0:
		return types.OutcomePartial
	default:
		return types.OutcomeSuccess
	}
}

type indexCounts struct {
	entries     int
	passes      int
	dataRecords int
	frames      int64
}

func countIndex(idx *index.Index) indexCounts {
	var c indexCounts
	if idx == nil {
		return c
	}
	c.entries = idx.Len()
	for _, p := range idx.LogPasses() {
		c.passes++
		c.dataRecords += p.NumRecords()
		c.frames += p.NumFrames()
	}
	return c
}

func scanResult(out *scanOutput, cached bool, elapsed time.Duration) reader.ScanResult {
	c := countIndex(out.Index)
	res := reader.ScanResult{
		File:           out.Meta.File,
		ScanID:         out.Meta.ScanID,
		Outcome:        string(out.Outcome),
		Cached:         cached,
		Entries:        c.entries,
		LogPasses:      c.passes,
		Frames:         c.frames,
		RecordsSkipped: out.Metrics.RecordsSkipped,
		FatalErrors:    out.Metrics.FatalErrors,
		Summary:        out.Metrics.Summary(),
		DurationMs:     elapsed.Milliseconds(),
	}
	if out.Err != nil {
		res.Error = out.Err.Error()
	}
	return res
}
