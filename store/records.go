package store

import (
	"path/filepath"
	"time"

	"github.com/justapithecus/strata/index"
	"github.com/justapithecus/strata/metrics"
	"github.com/justapithecus/strata/types"
)

// RecordKind discriminator values. Each kind is its own partition.
const (
	RecordKindEntry   = "entry"
	RecordKindLogPass = "log_pass"
	RecordKindScan    = "scan"
)

// Entry kinds carried by entry records.
const (
	KindDelimiter   = "delimiter"
	KindTable       = "table"
	KindUnknown     = "unknown"
	KindPassthrough = "passthrough"
	KindLogPass     = "log_pass"
)

// EntryKind names the kind of a table of contents entry.
func EntryKind(e index.Entry) string {
	switch e.(type) {
	case *index.Delimiter:
		return KindDelimiter
	case *index.Table:
		return KindTable
	case *index.Unknown:
		return KindUnknown
	case *index.LogPass:
		return KindLogPass
	default:
		return KindPassthrough
	}
}

// FileKey returns the partition value of the file at path.
func FileKey(path string) string {
	return filepath.Base(path)
}

// base returns the fields shared by every record of a scan.
func base(kind string, meta types.ScanMeta) map[string]any {
	return map[string]any{
		"record_kind": kind,
		"scan_id":     meta.ScanID,
		"file":        FileKey(meta.File),
		"path":        meta.File,
	}
}

// toEntryRecordMap converts a table of contents entry. seq is its position
// in the index.
func toEntryRecordMap(seq int, e index.Entry, meta types.ScanMeta) map[string]any {
	if p, ok := e.(*index.LogPass); ok {
		return toLogPassRecordMap(seq, p, meta)
	}

	m := base(RecordKindEntry, meta)
	m["seq"] = seq
	m["tell"] = e.Tell()
	m["type"] = int(e.Type())
	m["type_name"] = e.Type().String()
	m["summary"] = e.Summary()
	m["kind"] = EntryKind(e)

	switch v := e.(type) {
	case *index.Delimiter:
		if name := v.Name(); name != "" {
			m["name"] = name
		}
	case *index.Table:
		m["name"] = v.Name
		m["length"] = v.Length
	case *index.Unknown:
		m["length"] = v.Length
	case *index.Passthrough:
		m["length"] = v.Length
	}
	return m
}

func toLogPassRecordMap(seq int, p *index.LogPass, meta types.ScanMeta) map[string]any {
	m := base(RecordKindLogPass, meta)
	m["seq"] = seq
	m["tell"] = p.Tell()
	m["type"] = int(p.Type())
	m["summary"] = p.Summary()
	m["kind"] = KindLogPass
	m["iflr_type"] = int(p.Spec.IFLRType)
	m["channels"] = p.Spec.Mnemonics()
	m["frame_size"] = p.Plan().FrameSize()
	m["indirect"] = p.Spec.Indirect()
	m["x_channel"] = p.XChannel
	m["data_records"] = p.NumRecords()
	m["frames"] = p.NumFrames()
	if first, ok := p.X.First(); ok {
		m["x_first"] = first
	}
	if last, ok := p.X.Last(); ok {
		m["x_last"] = last
	}
	if p.Spec.DepthUnits != "" {
		m["depth_units"] = p.Spec.DepthUnits
	}
	return m
}

// toScanRecordMap converts the outcome and counters of a scan. Counts that
// describe the index come from idx, so a scan served from the cache stores
// the same shape as a fresh one.
func toScanRecordMap(meta types.ScanMeta, idx *index.Index, outcome types.Outcome, snap metrics.Snapshot, completedAt time.Time) map[string]any {
	m := base(RecordKindScan, meta)
	m["outcome"] = string(outcome)
	m["started_at"] = meta.StartedAt.UTC().Format(time.RFC3339Nano)
	m["completed_at"] = completedAt.UTC().Format(time.RFC3339Nano)
	m["version"] = types.Version
	m["policy"] = snap.Policy
	m["storage_backend"] = snap.StorageBackend
	m["records_scanned"] = snap.RecordsScanned
	m["records_skipped"] = snap.RecordsSkipped
	m["fatal_errors"] = snap.FatalErrors
	m["framing_warnings"] = snap.FramingWarnings
	m["summary"] = snap.Summary()

	var entries, passes, dataRecords int
	var frames int64
	if idx != nil {
		entries = idx.Len()
		for _, p := range idx.LogPasses() {
			passes++
			dataRecords += p.NumRecords()
			frames += p.NumFrames()
		}
	}
	m["entries"] = entries
	m["log_passes"] = passes
	m["data_records"] = dataRecords
	m["frames_indexed"] = frames
	return m
}
