package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/strata/index"
	"github.com/justapithecus/strata/listest"
	"github.com/justapithecus/strata/metrics"
	"github.com/justapithecus/strata/types"
)

// sharedFactory returns a StoreFactory that always returns the given store.
// This allows write and read datasets to share the same in-memory state.
func sharedFactory(store lode.Store) lode.StoreFactory {
	return func() (lode.Store, error) { return store, nil }
}

func buildIndex(t *testing.T, path string) *index.Index {
	t.Helper()
	chans := []listest.Channel{{Mnemonic: "DEPT"}, {Mnemonic: "GR"}}
	b := listest.NewBuilder()
	b.Record(128, listest.FileHeader("WELL.001"))
	b.Record(34, listest.Table("CONS"))
	b.Record(64, listest.DFSR{Channels: chans}.Payload())
	b.Record(0, listest.F32(100, 1, 101, 2))
	b.Record(0, listest.F32(102, 3, 103, 4))
	b.Record(129, listest.FileHeader("WELL.001"))

	idx, err := index.Build(t.Context(), b.Reader(), path, index.DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return idx
}

func TestStore_WriteScan(t *testing.T) {
	mem := lode.NewMemory()
	factory := sharedFactory(mem)

	s, err := New("strata", factory)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	m := metrics.NewCollector("strict", "memory", "scan-1", "/data/well.lis")
	s = s.WithMetrics(m)

	meta := types.ScanMeta{ScanID: "scan-1", File: "/data/well.lis"}
	idx := buildIndex(t, meta.File)
	// Index counts are taken from idx, as for a scan served from the cache.
	snap := metrics.Snapshot{RecordsScanned: 6, Policy: "strict"}
	if err := s.WriteScan(t.Context(), meta, idx, types.OutcomeSuccess, snap); err != nil {
		t.Fatalf("WriteScan failed: %v", err)
	}
	if got := m.Snapshot().LodeWriteSuccess; got != 1 {
		t.Errorf("LodeWriteSuccess = %d, want 1", got)
	}

	ds, err := NewDataset("strata", factory)
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}
	scan, err := LatestScan(t.Context(), ds, "well.lis")
	if err != nil {
		t.Fatalf("LatestScan failed: %v", err)
	}

	if scan.ID() != "scan-1" || scan.Outcome() != "success" {
		t.Errorf("scan = %s %s", scan.ID(), scan.Outcome())
	}
	if toInt64(scan.Record["frames_indexed"]) != 4 || toInt64(scan.Record["entries"]) != int64(idx.Len()) || scan.Record["summary"] != "0 records skipped, 0 fatal errors" {
		t.Errorf("scan record = %v", scan.Record)
	}
	if len(scan.Entries) != idx.Len() {
		t.Fatalf("got %d entries, want %d", len(scan.Entries), idx.Len())
	}

	var summaries []string
	for _, e := range scan.Entries {
		summaries = append(summaries, toString(e["summary"]))
	}
	var want []string
	for _, e := range idx.Entries() {
		want = append(want, e.Summary())
	}
	if !slices.Equal(summaries, want) {
		t.Errorf("summaries = %v, want %v", summaries, want)
	}

	pass := scan.Entries[2]
	if pass["record_kind"] != RecordKindLogPass || toInt64(pass["frames"]) != 4 || toInt64(pass["data_records"]) != 2 {
		t.Errorf("log pass record = %v", pass)
	}
	if table := scan.Entries[1]; table["kind"] != KindTable || table["name"] != "CONS" {
		t.Errorf("table record = %v", table)
	}
}

func TestStore_LatestScanWins(t *testing.T) {
	factory := sharedFactory(lode.NewMemory())
	s, err := New("", factory)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, id := range []string{"first", "second"} {
		meta := types.ScanMeta{ScanID: id, File: "well.lis"}
		if err := s.WriteScan(t.Context(), meta, buildIndex(t, "well.lis"), types.OutcomeSuccess, metrics.Snapshot{}); err != nil {
			t.Fatalf("WriteScan failed: %v", err)
		}
	}
	failed := types.ScanMeta{ScanID: "other", File: "other.lis"}
	if err := s.WriteScan(t.Context(), failed, nil, types.OutcomeFailed, metrics.Snapshot{FatalErrors: 1}); err != nil {
		t.Fatalf("WriteScan failed: %v", err)
	}

	scan, err := LatestScan(t.Context(), s.Dataset(), "well.lis")
	if err != nil {
		t.Fatalf("LatestScan failed: %v", err)
	}
	if scan.ID() != "second" {
		t.Errorf("ID = %q, want second", scan.ID())
	}

	other, err := LatestScan(t.Context(), s.Dataset(), "other.lis")
	if err != nil {
		t.Fatalf("LatestScan failed: %v", err)
	}
	if other.Outcome() != "failed" || len(other.Entries) != 0 {
		t.Errorf("other = %s with %d entries", other.Outcome(), len(other.Entries))
	}
}

func TestStore_ConcurrentWriteScanLinear(t *testing.T) {
	s, err := NewFS("strata", t.TempDir())
	if err != nil {
		t.Fatalf("NewFS failed: %v", err)
	}

	const writers = 16
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			meta := types.NewScanMeta(fmt.Sprintf("well%d.lis", i))
			w := s.WithMetrics(metrics.NewCollector("strict", "fs", meta.ScanID, meta.File))
			if err := w.WriteScan(t.Context(), meta, nil, types.OutcomeFailed, metrics.Snapshot{}); err != nil {
				t.Errorf("WriteScan failed: %v", err)
			}
		}()
	}
	wg.Wait()

	snaps, err := s.Dataset().Snapshots(t.Context())
	if err != nil {
		t.Fatalf("Snapshots failed: %v", err)
	}
	if len(snaps) != writers {
		t.Fatalf("got %d snapshots, want %d", len(snaps), writers)
	}

	ids := make(map[lode.DatasetSnapshotID]bool, len(snaps))
	for _, snap := range snaps {
		ids[snap.ID] = true
	}
	children := make(map[lode.DatasetSnapshotID]int)
	roots := 0
	for _, snap := range snaps {
		parent := snap.Manifest.ParentSnapshotID
		if parent == "" {
			roots++
			continue
		}
		if !ids[parent] {
			t.Errorf("snapshot %s has unknown parent %s", snap.ID, parent)
		}
		children[parent]++
	}
	if roots != 1 {
		t.Errorf("got %d root snapshots, want 1", roots)
	}
	for parent, n := range children {
		if n > 1 {
			t.Errorf("snapshot %s has %d children, want a linear chain", parent, n)
		}
	}
}

func TestLatestScan_NotFound(t *testing.T) {
	s, err := New("strata", lode.NewMemoryFactory())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	meta := types.ScanMeta{ScanID: "a", File: "well.lis.1"}
	if err := s.WriteScan(t.Context(), meta, nil, types.OutcomeFailed, metrics.Snapshot{}); err != nil {
		t.Fatalf("WriteScan failed: %v", err)
	}

	_, err = LatestScan(t.Context(), s.Dataset(), "well.lis")
	if !errors.Is(err, ErrNoScan) {
		t.Errorf("err = %v, want ErrNoScan", err)
	}
}

func TestNewFS(t *testing.T) {
	s, err := NewFS("strata", t.TempDir())
	if err != nil {
		t.Fatalf("NewFS failed: %v", err)
	}
	if s.Dataset().ID() != "strata" {
		t.Errorf("Dataset ID = %q, want strata", s.Dataset().ID())
	}
}

func TestParseS3Path(t *testing.T) {
	tests := []struct {
		path, bucket, prefix string
	}{
		{"bucket", "bucket", ""},
		{"bucket/logs", "bucket", "logs"},
		{"bucket/logs/lis", "bucket", "logs/lis"},
	}
	for _, tt := range tests {
		bucket, prefix := ParseS3Path(tt.path)
		if bucket != tt.bucket || prefix != tt.prefix {
			t.Errorf("ParseS3Path(%q) = %q, %q", tt.path, bucket, prefix)
		}
	}
}

func TestS3Config_Validate(t *testing.T) {
	if err := (&S3Config{}).Validate(); err == nil {
		t.Error("expected error for missing bucket")
	}
	if err := (&S3Config{Bucket: "b"}).Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}
