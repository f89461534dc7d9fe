package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/justapithecus/lode/lode"
)

// Scan is a stored scan read back from the dataset.
type Scan struct {
	// Record is the scan record: outcome, counters and summary.
	Record map[string]any
	// Entries are the entry and log_pass records in file order.
	Entries []map[string]any
}

// ID returns the scan ID.
func (s *Scan) ID() string { return toString(s.Record["scan_id"]) }

// Outcome returns the recorded outcome.
func (s *Scan) Outcome() string { return toString(s.Record["outcome"]) }

// LatestScan finds the most recent scan of the file whose partition value
// is file (see FileKey). Returns ErrNoScan if the file was never stored.
func LatestScan(ctx context.Context, ds lode.Dataset, file string) (*Scan, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, wrap(err, "read", "snapshots")
	}

	// snapshots are ordered by creation time
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		if !snapshotMatches(snap, "file", file) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, wrap(err, "read", fmt.Sprintf("snapshot/%s", snap.ID))
		}
		if scan := collect(data, file); scan != nil {
			return scan, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoScan, file)
}

// collect groups the records of file in one snapshot. Manifest paths are a
// coarse filter; record fields are authoritative.
func collect(data []any, file string) *Scan {
	var scan Scan
	for _, item := range data {
		record, ok := item.(map[string]any)
		if !ok || toString(record["file"]) != file {
			continue
		}
		switch record["record_kind"] {
		case RecordKindScan:
			scan.Record = record
		case RecordKindEntry, RecordKindLogPass:
			scan.Entries = append(scan.Entries, record)
		}
	}
	if scan.Record == nil {
		return nil
	}
	slices.SortStableFunc(scan.Entries, func(a, b map[string]any) int {
		return cmp.Compare(toInt64(a["seq"]), toInt64(b["seq"]))
	})
	return &scan
}

// snapshotMatches reports whether a snapshot holds a file in the key=value
// partition. Segments are matched exactly so that file=a.lis does not match
// file=a.lis.1.
func snapshotMatches(snap *lode.DatasetSnapshot, key, value string) bool {
	segment := key + "=" + value
	for _, f := range snap.Manifest.Files {
		if slices.Contains(strings.Split(f.Path, "/"), segment) {
			return true
		}
	}
	return false
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt64 converts a decoded JSON number.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
