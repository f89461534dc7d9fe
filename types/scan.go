package types

import (
	"time"

	"github.com/google/uuid"
)

// ScanMeta identifies one indexing pass over one file.
type ScanMeta struct {
	// ScanID is unique per scan and is attached to every log line.
	ScanID string `json:"scan_id" msgpack:"scan_id"`
	// File is the path the scan read.
	File string `json:"file" msgpack:"file"`
	// StartedAt is when the scan began.
	StartedAt time.Time `json:"started_at" msgpack:"started_at"`
}

// NewScanMeta starts a scan of file with a fresh scan ID.
func NewScanMeta(file string) ScanMeta {
	return ScanMeta{
		ScanID:    uuid.New().String(),
		File:      file,
		StartedAt: time.Now().UTC(),
	}
}

// Outcome is the terminal status of a scan.
type Outcome string

const (
	// OutcomeSuccess means every record was indexed.
	OutcomeSuccess Outcome = "success"
	// OutcomePartial means the scan finished but records were skipped.
	OutcomePartial Outcome = "partial"
	// OutcomeFailed means a fatal error stopped the scan.
	OutcomeFailed Outcome = "failed"
	// OutcomeCanceled means the caller canceled the scan.
	OutcomeCanceled Outcome = "canceled"
)
