// Package index classifies the logical records of a LIS-79 file and builds a
// table of contents: delimiters with their header fields, named tables,
// positioned opaque records, and log passes whose data records are located by
// run-length encoded position tables.
package index

import (
	"fmt"
	"io"
	"iter"

	"github.com/justapithecus/strata/framing"
)

// Index is the table of contents of one scanned file. Entries are in file
// order. An Index is immutable once built and safe for concurrent reads.
type Index struct {
	path     string
	framing  framing.Options
	entries  []Entry
	warnings []framing.Warning
}

// New assembles an index from entries, as when restoring a cached index.
func New(path string, opts framing.Options, entries []Entry, warnings []framing.Warning) *Index {
	return &Index{path: path, framing: opts, entries: entries, warnings: warnings}
}

// Path returns the path of the scanned file.
func (x *Index) Path() string { return x.path }

// FramingOptions returns the framing options the file was scanned with.
// Readers reopening the file must use the same options.
func (x *Index) FramingOptions() framing.Options { return x.framing }

// Len returns the number of entries.
func (x *Index) Len() int { return len(x.entries) }

// At returns the i-th entry.
func (x *Index) At(i int) Entry { return x.entries[i] }

// Entries iterates over the entries in file order.
func (x *Index) Entries() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		for i, e := range x.entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Filter returns the entries pred accepts, in file order.
func (x *Index) Filter(pred func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range x.entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// LogPasses returns the log passes in file order.
func (x *Index) LogPasses() []*LogPass {
	var out []*LogPass
	for _, e := range x.entries {
		if p, ok := e.(*LogPass); ok {
			out = append(out, p)
		}
	}
	return out
}

// Warnings returns the framing irregularities absorbed during the scan.
func (x *Index) Warnings() []framing.Warning { return x.warnings }

// Summary returns one line per entry.
func (x *Index) Summary() []string {
	out := make([]string, len(x.entries))
	for i, e := range x.entries {
		out[i] = fmt.Sprintf("%8d  %s", e.Tell(), e.Summary())
	}
	return out
}

// Payload reads the body of the logical record behind e from rs, which must
// hold the file the index was built from.
func (x *Index) Payload(rs io.ReadSeeker, e Entry) ([]byte, error) {
	r, err := x.Open(rs)
	if err != nil {
		return nil, err
	}
	h, err := r.Seek(e.Tell())
	if err != nil {
		return nil, fmt.Errorf("payload of record at %d: %w", e.Tell(), err)
	}
	if h.Type != uint8(e.Type()) {
		return nil, fmt.Errorf("payload of record at %d: found type %d, indexed as %d", e.Tell(), h.Type, e.Type())
	}
	return r.ReadRest()
}

// Open returns a framing reader over rs configured as the scan was.
func (x *Index) Open(rs io.ReadSeeker) (*framing.Reader, error) {
	return framing.NewReader(rs, x.framing)
}
