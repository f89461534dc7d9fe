// Package rle compresses long, mostly regular numeric sequences into runs of
// (datum, stride, repeat).
//
// Indexing a log pass produces one entry per data record: its file offset,
// its length and the X-axis value of its first frame. In practice those
// sequences advance by a constant stride for thousands of records at a time,
// so storing them as runs keeps the index size proportional to the number of
// irregularities rather than to the number of records.
//
// Encoding is greedy: each run is extended while the next value continues its
// stride, otherwise a new run is opened. Greedy extension yields the minimum
// number of runs for a contiguous partition into arithmetic progressions, and
// irregular points simply become short runs. Decoding is exact: a value is
// only absorbed into a run when datum + stride*k reproduces it bit for bit.
package rle

import (
	"errors"
	"fmt"
	"iter"
	"sort"
)

// Number is the set of element types a RLE can hold.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// ErrIndex is returned by Value for an index outside [0, Len()).
var ErrIndex = errors.New("rle: index out of range")

// Run is one (datum, stride, repeat) item.
// A run with Repeat == 1 has no stride.
type Run[T Number] struct {
	Datum     T    `msgpack:"d" json:"datum"`
	Stride    T    `msgpack:"s" json:"stride"`
	HasStride bool `msgpack:"h" json:"has_stride"`
	Repeat    int  `msgpack:"r" json:"repeat"`
}

// At returns the i-th value of the run.
func (r Run[T]) At(i int) T {
	return r.Datum + r.Stride*T(i)
}

// Last returns the final value of the run.
func (r Run[T]) Last() T {
	return r.At(r.Repeat - 1)
}

// String implements fmt.Stringer.
func (r Run[T]) String() string {
	if !r.HasStride {
		return fmt.Sprintf("%v", r.Datum)
	}
	return fmt.Sprintf("%v+%v*%d", r.Datum, r.Stride, r.Repeat)
}

// RLE is a run-length encoded sequence. The zero value is empty and ready to use.
type RLE[T Number] struct {
	runs []Run[T]
	// ends[i] is the number of values held in runs[0..i].
	ends []int
}

// New returns an empty RLE.
func New[T Number]() *RLE[T] {
	return &RLE[T]{}
}

// FromRuns rebuilds a RLE from previously exported runs.
func FromRuns[T Number](runs []Run[T]) (*RLE[T], error) {
	e := &RLE[T]{
		runs: make([]Run[T], 0, len(runs)),
		ends: make([]int, 0, len(runs)),
	}
	total := 0
	for i, r := range runs {
		if r.Repeat < 1 {
			return nil, fmt.Errorf("rle: run %d has repeat %d", i, r.Repeat)
		}
		if r.HasStride != (r.Repeat > 1) {
			return nil, fmt.Errorf("rle: run %d stride flag inconsistent with repeat %d", i, r.Repeat)
		}
		total += r.Repeat
		e.runs = append(e.runs, r)
		e.ends = append(e.ends, total)
	}
	return e, nil
}

// Add appends v to the sequence.
func (e *RLE[T]) Add(v T) {
	if n := len(e.runs); n > 0 {
		r := &e.runs[n-1]
		if !r.HasStride {
			stride := v - r.Datum
			if r.Datum+stride == v {
				r.Stride = stride
				r.HasStride = true
				r.Repeat = 2
				e.ends[n-1]++
				return
			}
		} else if r.At(r.Repeat) == v {
			r.Repeat++
			e.ends[n-1]++
			return
		}
	}
	e.runs = append(e.runs, Run[T]{Datum: v, Repeat: 1})
	e.ends = append(e.ends, e.Len()+1)
}

// Len returns the number of values added.
func (e *RLE[T]) Len() int {
	if len(e.ends) == 0 {
		return 0
	}
	return e.ends[len(e.ends)-1]
}

// Total returns the number of values by summing the run repeats.
func (e *RLE[T]) Total() int {
	total := 0
	for _, r := range e.runs {
		total += r.Repeat
	}
	return total
}

// NumRuns returns the number of runs.
func (e *RLE[T]) NumRuns() int {
	return len(e.runs)
}

// Runs returns a copy of the runs.
func (e *RLE[T]) Runs() []Run[T] {
	out := make([]Run[T], len(e.runs))
	copy(out, e.runs)
	return out
}

// Value returns the i-th value added, in O(log runs).
func (e *RLE[T]) Value(i int) (T, error) {
	var zero T
	if i < 0 || i >= e.Len() {
		return zero, fmt.Errorf("%w: %d not in [0, %d)", ErrIndex, i, e.Len())
	}
	j := sort.Search(len(e.ends), func(k int) bool { return e.ends[k] > i })
	start := 0
	if j > 0 {
		start = e.ends[j-1]
	}
	return e.runs[j].At(i - start), nil
}

// First returns the first value, if any.
func (e *RLE[T]) First() (T, bool) {
	var zero T
	if len(e.runs) == 0 {
		return zero, false
	}
	return e.runs[0].Datum, true
}

// Last returns the last value, if any.
func (e *RLE[T]) Last() (T, bool) {
	var zero T
	if len(e.runs) == 0 {
		return zero, false
	}
	return e.runs[len(e.runs)-1].Last(), true
}

// Values iterates over every value in insertion order.
func (e *RLE[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, r := range e.runs {
			for i := 0; i < r.Repeat; i++ {
				if !yield(r.At(i)) {
					return
				}
			}
		}
	}
}

// Slice decodes every value into a new slice.
func (e *RLE[T]) Slice() []T {
	out := make([]T, 0, e.Len())
	for v := range e.Values() {
		out = append(out, v)
	}
	return out
}
