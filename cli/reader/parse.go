package reader

import (
	"errors"

	"github.com/justapithecus/strata/store"
)

// ParseScanRecord converts a stored scan to a StoredScan.
// Handles both int64 (direct writes) and float64 (JSON round-trips) for numeric fields.
func ParseScanRecord(scan *store.Scan) (*StoredScan, error) {
	if scan == nil || scan.Record == nil {
		return nil, errors.New("nil scan record")
	}
	record := scan.Record

	out := &StoredScan{
		ScanID:      toString(record["scan_id"]),
		File:        toString(record["file"]),
		Path:        toString(record["path"]),
		Outcome:     toString(record["outcome"]),
		CompletedAt: toString(record["completed_at"]),
		Version:     toString(record["version"]),
		Frames:      toInt64(record["frames_indexed"]),
		Summary:     toString(record["summary"]),
		Entries:     make([]TOCEntry, 0, len(scan.Entries)),
	}

	// The write path always populates these; missing values indicate
	// data corruption or a malformed record.
	if out.ScanID == "" {
		return nil, errors.New("scan record missing required field: scan_id")
	}
	if out.Outcome == "" {
		return nil, errors.New("scan record missing required field: outcome")
	}

	for _, e := range scan.Entries {
		kind := toString(e["kind"])
		if kind == "" && e["record_kind"] == store.RecordKindLogPass {
			kind = store.KindLogPass
		}
		out.Entries = append(out.Entries, TOCEntry{
			Index:   int(toInt64(e["seq"])),
			Tell:    toInt64(e["tell"]),
			Type:    int(toInt64(e["type"])),
			Kind:    kind,
			Summary: toString(e["summary"]),
		})
	}
	return out, nil
}

// toInt64 converts a value to int64, handling float64 from JSON and int64 from direct writes.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
