package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("strict", "fs", "scan-001", "well.lis")

	c.IncScanStarted()
	c.IncScanCompleted()
	c.IncScanFailed()
	c.IncScanFailed()
	c.IncScanCanceled()
	c.IncRecord("delimiter")
	c.IncRecord("data")
	c.IncRecord("data")
	c.AddFramingWarnings(3)
	c.IncLogPass()
	c.AddFrames(5)
	c.AddFrames(7)
	c.IncCacheHit()
	c.IncCacheMiss()
	c.IncCacheMiss()
	c.IncLodeWriteSuccess()
	c.IncLodeWriteFailure()
	c.IncNotifySuccess()
	c.IncNotifyFailure()

	s := c.Snapshot()

	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"ScansStarted", s.ScansStarted, 1},
		{"ScansCompleted", s.ScansCompleted, 1},
		{"ScansFailed", s.ScansFailed, 2},
		{"ScansCanceled", s.ScansCanceled, 1},
		{"RecordsScanned", s.RecordsScanned, 3},
		{"FramingWarnings", s.FramingWarnings, 3},
		{"LogPasses", s.LogPasses, 1},
		{"DataRecords", s.DataRecords, 2},
		{"FramesIndexed", s.FramesIndexed, 12},
		{"CacheHits", s.CacheHits, 1},
		{"CacheMisses", s.CacheMisses, 2},
		{"LodeWriteSuccess", s.LodeWriteSuccess, 1},
		{"LodeWriteFailure", s.LodeWriteFailure, 1},
		{"NotifySuccess", s.NotifySuccess, 1},
		{"NotifyFailure", s.NotifyFailure, 1},
	}
	for _, ch := range checks {
		if ch.got != ch.want {
			t.Errorf("%s = %d, want %d", ch.name, ch.got, ch.want)
		}
	}
	if s.RecordsByClass["data"] != 2 || s.RecordsByClass["delimiter"] != 1 {
		t.Errorf("RecordsByClass = %v", s.RecordsByClass)
	}
}

func TestCollector_Dimensions(t *testing.T) {
	s := NewCollector("keep_going", "s3", "scan-9", "a.lis").Snapshot()
	if s.Policy != "keep_going" || s.StorageBackend != "s3" || s.ScanID != "scan-9" || s.File != "a.lis" {
		t.Errorf("dimensions = %+v", s)
	}
}

func TestCollector_AbsorbPolicyStats(t *testing.T) {
	c := NewCollector("keep_going", "", "scan-1", "a.lis")
	byClass := map[string]int64{"arithmetic": 2, "unhandled": 1}
	c.AbsorbPolicyStats(3, 0, byClass)

	byClass["arithmetic"] = 100
	s := c.Snapshot()
	if s.RecordsSkipped != 3 || s.FatalErrors != 0 {
		t.Errorf("skipped=%d fatal=%d", s.RecordsSkipped, s.FatalErrors)
	}
	if s.SkippedByClass["arithmetic"] != 2 {
		t.Error("AbsorbPolicyStats kept a reference to the caller's map")
	}
	if s.Summary() != "3 records skipped, 0 fatal errors" {
		t.Errorf("Summary() = %q", s.Summary())
	}
}

func TestCollector_SnapshotIsolation(t *testing.T) {
	c := NewCollector("strict", "", "", "")
	c.IncRecord("table")
	s := c.Snapshot()
	s.RecordsByClass["table"] = 50
	if c.Snapshot().RecordsByClass["table"] != 1 {
		t.Error("mutating a snapshot changed the collector")
	}
}

func TestCollector_NilReceiver(t *testing.T) {
	var c *Collector
	c.IncScanStarted()
	c.IncRecord("data")
	c.AddFrames(3)
	c.AbsorbPolicyStats(1, 1, nil)
	if s := c.Snapshot(); s.RecordsScanned != 0 {
		t.Errorf("nil collector snapshot = %+v", s)
	}
}

// TestCollector_ConcurrentAccess verifies the collector under concurrent
// scans. Run with -race.
func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector("strict", "fs", "", "")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncRecord("data")
				c.AddFrames(1)
				_ = c.Snapshot()
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.RecordsScanned != 800 || s.FramesIndexed != 800 {
		t.Errorf("RecordsScanned=%d FramesIndexed=%d, want 800", s.RecordsScanned, s.FramesIndexed)
	}
}
