// Package policy decides what a scan does with a record-level error.
//
// Error classes:
//   - Unhandled records (ErrUnhandled): never fatal, always skipped
//   - Frame-set arithmetic errors: fatal under Strict, skipped under KeepGoing
//   - Framing errors and anything else: always fatal to the file
//
// Policies only decide and count. Logging stays with the caller, which has
// the scan context.
package policy

import (
	"errors"
	"fmt"
	"sync"

	"github.com/justapithecus/strata/frameset"
)

// ErrUnhandled marks a logical record the index has no handler for.
// Wrap it to carry the record type and offset.
var ErrUnhandled = errors.New("unhandled logical record")

// Decision is the outcome of Policy.Decide.
type Decision int

const (
	// Fail stops the scan of the current file.
	Fail Decision = iota
	// Skip drops the offending record and resumes at the next one.
	Skip
)

func (d Decision) String() string {
	if d == Skip {
		return "skip"
	}
	return "fail"
}

// Class is the error class a decision was made for.
type Class string

const (
	ClassUnhandled  Class = "unhandled"
	ClassArithmetic Class = "arithmetic"
	ClassOther      Class = "other"
)

// Classify returns the class of err.
func Classify(err error) Class {
	switch {
	case errors.Is(err, ErrUnhandled):
		return ClassUnhandled
	case errors.Is(err, frameset.ErrArithmetic):
		return ClassArithmetic
	default:
		return ClassOther
	}
}

// Policy decides per error whether a scan fails or skips the record.
// Implementations are safe for concurrent use.
type Policy interface {
	// Decide classifies err and records the decision in Stats.
	Decide(err error) Decision

	// Name returns the configuration name of the policy.
	Name() string

	// Stats returns an atomic snapshot of the decisions made so far.
	Stats() Stats
}

// Stats counts policy decisions.
type Stats struct {
	// RecordsSkipped is the number of records dropped by Skip decisions.
	RecordsSkipped int64
	// SkippedByClass maps error classes to skip counts.
	SkippedByClass map[Class]int64
	// FatalErrors is the number of Fail decisions.
	FatalErrors int64
}

// Summary renders the per-file line "N records skipped, M fatal errors".
func (s Stats) Summary() string {
	return fmt.Sprintf("%d records skipped, %d fatal errors", s.RecordsSkipped, s.FatalErrors)
}

// New returns the policy registered under name: "strict" or "keep_going".
func New(name string) (Policy, error) {
	switch name {
	case "", StrictName:
		return NewStrict(), nil
	case KeepGoingName:
		return NewKeepGoing(), nil
	default:
		return nil, fmt.Errorf("unknown policy %q (want %s or %s)", name, StrictName, KeepGoingName)
	}
}

// statsRecorder is the shared thread-safe counter set.
type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{
		stats: Stats{SkippedByClass: make(map[Class]int64)},
	}
}

func (r *statsRecorder) record(class Class, d Decision) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d == Skip {
		r.stats.RecordsSkipped++
		r.stats.SkippedByClass[class]++
	} else {
		r.stats.FatalErrors++
	}
	return d
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.stats
	s.SkippedByClass = make(map[Class]int64, len(r.stats.SkippedByClass))
	for k, v := range r.stats.SkippedByClass {
		s.SkippedByClass[k] = v
	}
	return s
}
