// Package metrics provides per-scan metrics collection.
//
// The Collector accumulates counters during a single scan. It is a leaf package
// with no internal dependencies. Policy decisions are absorbed from
// policy.Stats at scan completion rather than recorded live, avoiding
// double-counting.
package metrics

import (
	"fmt"
	"sync"
)

// Snapshot is an immutable point-in-time view of all scan metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Scan lifecycle
	ScansStarted   int64
	ScansCompleted int64
	ScansFailed    int64
	ScansCanceled  int64

	// Records
	RecordsScanned  int64
	RecordsByClass  map[string]int64
	FramingWarnings int64
	LogPasses       int64
	DataRecords     int64
	FramesIndexed   int64

	// Policy (absorbed from policy.Stats at scan completion)
	RecordsSkipped int64
	SkippedByClass map[string]int64
	FatalErrors    int64

	// Cache / Lode / notifications
	CacheHits        int64
	CacheMisses      int64
	LodeWriteSuccess int64
	LodeWriteFailure int64
	NotifySuccess    int64
	NotifyFailure    int64

	// Dimensions (informational, set at construction)
	Policy         string
	StorageBackend string
	ScanID         string
	File           string
}

// Summary renders the per-file line "N records skipped, M fatal errors".
func (s Snapshot) Summary() string {
	return fmt.Sprintf("%d records skipped, %d fatal errors", s.RecordsSkipped, s.FatalErrors)
}

// Collector accumulates metrics during a single scan.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	scansStarted   int64
	scansCompleted int64
	scansFailed    int64
	scansCanceled  int64

	recordsScanned  int64
	recordsByClass  map[string]int64
	framingWarnings int64
	logPasses       int64
	dataRecords     int64
	framesIndexed   int64

	recordsSkipped int64
	skippedByClass map[string]int64
	fatalErrors    int64

	cacheHits        int64
	cacheMisses      int64
	lodeWriteSuccess int64
	lodeWriteFailure int64
	notifySuccess    int64
	notifyFailure    int64

	policy         string
	storageBackend string
	scanID         string
	file           string
}

// NewCollector creates a Collector with dimension labels.
// storageBackend is empty when the scan persists nothing.
func NewCollector(policy, storageBackend, scanID, file string) *Collector {
	return &Collector{
		recordsByClass: make(map[string]int64),
		skippedByClass: make(map[string]int64),
		policy:         policy,
		storageBackend: storageBackend,
		scanID:         scanID,
		file:           file,
	}
}

// inc adds n to field. Callers check for a nil receiver first, since
// taking the field address would dereference it.
func (c *Collector) inc(field *int64, n int64) {
	c.mu.Lock()
	*field += n
	c.mu.Unlock()
}

// --- Scan lifecycle ---

// IncScanStarted records a scan start.
func (c *Collector) IncScanStarted() {
	if c == nil {
		return
	}
	c.inc(&c.scansStarted, 1)
}

// IncScanCompleted records a scan that reached end of file.
func (c *Collector) IncScanCompleted() {
	if c == nil {
		return
	}
	c.inc(&c.scansCompleted, 1)
}

// IncScanFailed records a scan stopped by a fatal error.
func (c *Collector) IncScanFailed() {
	if c == nil {
		return
	}
	c.inc(&c.scansFailed, 1)
}

// IncScanCanceled records a scan stopped by context cancellation.
func (c *Collector) IncScanCanceled() {
	if c == nil {
		return
	}
	c.inc(&c.scansCanceled, 1)
}

// --- Records ---

// IncRecord records one logical record of the given class.
func (c *Collector) IncRecord(class string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.recordsScanned++
	c.recordsByClass[class]++
	c.mu.Unlock()
}

// AddFramingWarnings records absorbed framing irregularities.
func (c *Collector) AddFramingWarnings(n int) {
	if c == nil {
		return
	}
	c.inc(&c.framingWarnings, int64(n))
}

// IncLogPass records a new log pass.
func (c *Collector) IncLogPass() {
	if c == nil {
		return
	}
	c.inc(&c.logPasses, 1)
}

// AddFrames records one data record attributed to a log pass holding n frames.
func (c *Collector) AddFrames(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.dataRecords++
	c.framesIndexed += int64(n)
	c.mu.Unlock()
}

// --- Cache / Lode / notifications ---
// Lode counters are per-call: one WriteScan call counts once.

// IncCacheHit records an index served from the cache.
func (c *Collector) IncCacheHit() {
	if c == nil {
		return
	}
	c.inc(&c.cacheHits, 1)
}

// IncCacheMiss records an index that had to be built.
func (c *Collector) IncCacheMiss() {
	if c == nil {
		return
	}
	c.inc(&c.cacheMisses, 1)
}

// IncLodeWriteSuccess records a successful Lode write operation (per-call).
func (c *Collector) IncLodeWriteSuccess() {
	if c == nil {
		return
	}
	c.inc(&c.lodeWriteSuccess, 1)
}

// IncLodeWriteFailure records a failed Lode write operation (per-call).
func (c *Collector) IncLodeWriteFailure() {
	if c == nil {
		return
	}
	c.inc(&c.lodeWriteFailure, 1)
}

// IncNotifySuccess records a delivered scan-completed notification.
func (c *Collector) IncNotifySuccess() {
	if c == nil {
		return
	}
	c.inc(&c.notifySuccess, 1)
}

// IncNotifyFailure records a notification that could not be delivered.
func (c *Collector) IncNotifyFailure() {
	if c == nil {
		return
	}
	c.inc(&c.notifyFailure, 1)
}

// --- Policy (absorbed from policy.Stats) ---

// AbsorbPolicyStats copies decision counters from policy.Stats into the
// collector. Called once after scan completion with the final snapshot.
// Class keys are strings to keep this package free of the policy package.
func (c *Collector) AbsorbPolicyStats(skipped, fatal int64, skippedByClass map[string]int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.recordsSkipped = skipped
	c.fatalErrors = fatal
	c.skippedByClass = make(map[string]int64, len(skippedByClass))
	for k, v := range skippedByClass {
		c.skippedByClass[k] = v
	}
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		ScansStarted:   c.scansStarted,
		ScansCompleted: c.scansCompleted,
		ScansFailed:    c.scansFailed,
		ScansCanceled:  c.scansCanceled,

		RecordsScanned:  c.recordsScanned,
		RecordsByClass:  copyCounts(c.recordsByClass),
		FramingWarnings: c.framingWarnings,
		LogPasses:       c.logPasses,
		DataRecords:     c.dataRecords,
		FramesIndexed:   c.framesIndexed,

		RecordsSkipped: c.recordsSkipped,
		SkippedByClass: copyCounts(c.skippedByClass),
		FatalErrors:    c.fatalErrors,

		CacheHits:        c.cacheHits,
		CacheMisses:      c.cacheMisses,
		LodeWriteSuccess: c.lodeWriteSuccess,
		LodeWriteFailure: c.lodeWriteFailure,
		NotifySuccess:    c.notifySuccess,
		NotifyFailure:    c.notifyFailure,

		Policy:         c.policy,
		StorageBackend: c.storageBackend,
		ScanID:         c.scanID,
		File:           c.file,
	}
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
