package reader

import (
	"strings"
	"testing"

	"github.com/justapithecus/strata/store"
)

func TestParseScanRecord(t *testing.T) {
	// Simulate a JSON-round-tripped scan (float64 values)
	scan := &store.Scan{
		Record: map[string]any{
			"record_kind":    "scan",
			"scan_id":        "scan-abc",
			"file":           "well.lis",
			"path":           "/data/well.lis",
			"outcome":        "partial",
			"completed_at":   "2026-10-17T12:00:00Z",
			"version":        "0.3.0",
			"frames_indexed": float64(8),
			"summary":        "1 records skipped, 0 fatal errors",
		},
		Entries: []map[string]any{
			{"record_kind": "entry", "kind": "delimiter", "seq": float64(0), "tell": float64(0), "type": float64(128), "summary": "file header TEST.001"},
			{"record_kind": "log_pass", "seq": int64(1), "tell": int64(62), "type": 64, "summary": "log pass"},
		},
	}

	parsed, err := ParseScanRecord(scan)
	if err != nil {
		t.Fatalf("ParseScanRecord failed: %v", err)
	}
	if parsed.ScanID != "scan-abc" || parsed.Outcome != "partial" || parsed.Frames != 8 {
		t.Errorf("parsed = %+v", parsed)
	}
	if parsed.Path != "/data/well.lis" || parsed.Version != "0.3.0" {
		t.Errorf("parsed = %+v", parsed)
	}
	if len(parsed.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(parsed.Entries))
	}
	if e := parsed.Entries[0]; e.Type != 128 || e.Kind != "delimiter" {
		t.Errorf("entry 0 = %+v", e)
	}
	if e := parsed.Entries[1]; e.Index != 1 || e.Tell != 62 || e.Kind != store.KindLogPass {
		t.Errorf("entry 1 = %+v", e)
	}
}

func TestParseScanRecord_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		scan   *store.Scan
		errMsg string
	}{
		{"nil scan", nil, "nil scan record"},
		{"nil record", &store.Scan{}, "nil scan record"},
		{"no scan_id", &store.Scan{Record: map[string]any{"outcome": "success"}}, "scan_id"},
		{"no outcome", &store.Scan{Record: map[string]any{"scan_id": "s"}}, "outcome"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScanRecord(tt.scan)
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("err = %v, want mention of %q", err, tt.errMsg)
			}
		})
	}
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{int64(42), 42},
		{float64(42), 42},
		{42, 42},
		{"42", 0},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := toInt64(tt.in); got != tt.want {
			t.Errorf("toInt64(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
