package frames

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/justapithecus/strata/frameset"
	"github.com/justapithecus/strata/index"
	"github.com/justapithecus/strata/listest"
	"github.com/justapithecus/strata/repcode"
)

var threeChannels = []listest.Channel{
	{Mnemonic: "DEPT"},
	{Mnemonic: "GR"},
	{Mnemonic: "RES", Samples: 2},
}

func frames(depth float64, n int) []byte {
	var out []byte
	for f := 0; f < n; f++ {
		d := depth + float64(f)
		out = append(out, listest.F32(d, 10*d, d+0.25, d+0.5)...)
	}
	return out
}

// open indexes b and returns a reader over the same bytes.
func open(t *testing.T, b *listest.Builder) (*Reader, *index.LogPass) {
	t.Helper()
	idx, err := index.Build(t.Context(), b.Reader(), "test.lis", index.DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	passes := idx.LogPasses()
	if len(passes) != 1 {
		t.Fatalf("got %d log passes, want 1", len(passes))
	}
	r, err := NewReader(idx, b.Reader(), nil)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	return r, passes[0]
}

func explicitFile() *listest.Builder {
	b := listest.NewBuilder()
	b.Record(64, listest.DFSR{Channels: threeChannels}.Payload())
	b.Record(0, frames(100, 4))
	b.Record(0, frames(104, 4))
	return b
}

func TestRead_Explicit(t *testing.T) {
	r, pass := open(t, explicitFile())

	res, err := r.Read(t.Context(), pass, Request{
		Channels: []int{2, 0},
		Slice:    frameset.Slice{Start: 1, Stop: 7, Step: 2},
	})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if !slices.Equal(res.Frames, []int64{1, 3, 5}) {
		t.Errorf("Frames = %v, want [1 3 5]", res.Frames)
	}
	if !slices.Equal(res.X, []float64{101, 103, 105}) {
		t.Errorf("X = %v, want [101 103 105]", res.X)
	}
	if len(res.Curves) != 2 || res.Curves[0].Index != 2 || res.Curves[1].Index != 0 {
		t.Fatalf("curves = %+v", res.Curves)
	}
	res0 := res.Curves[0]
	if res0.Width != 2 || !slices.Equal(res0.Values, []float64{101.25, 101.5, 103.25, 103.5, 105.25, 105.5}) {
		t.Errorf("RES = %+v", res0)
	}
	if !slices.Equal(res0.Frame(1), []float64{103.25, 103.5}) {
		t.Errorf("RES frame 1 = %v", res0.Frame(1))
	}
	if !slices.Equal(res.Curves[1].Values, []float64{101, 103, 105}) {
		t.Errorf("DEPT = %v", res.Curves[1].Values)
	}
}

func TestRead_AllFrames(t *testing.T) {
	r, pass := open(t, explicitFile())

	res, err := r.Read(t.Context(), pass, Request{Channels: []int{1}})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(res.Frames) != 8 {
		t.Fatalf("got %d frames, want 8", len(res.Frames))
	}
	// X comes from channel 0 even though only channel 1 is requested.
	if res.X[7] != 107 || res.Curves[0].Values[7] != 1070 {
		t.Errorf("frame 7: X %v GR %v", res.X[7], res.Curves[0].Values[7])
	}
}

func TestRead_OneFramePerRecord(t *testing.T) {
	b := listest.NewBuilder()
	b.Record(64, listest.DFSR{Channels: threeChannels}.Payload())
	for k := range 5 {
		b.Record(0, frames(100+float64(k), 1))
	}
	r, pass := open(t, b)

	if pass.Plan().FrameSize() != 16 {
		t.Fatalf("FrameSize = %d, want 16", pass.Plan().FrameSize())
	}
	if pass.NumRecords() != 5 || pass.NumFrames() != 5 {
		t.Fatalf("got %d records, %d frames, want 5 and 5", pass.NumRecords(), pass.NumFrames())
	}
	for i, rec := range pass.DataRecords() {
		n, err := pass.Plan().NumFrames(int(rec.Length))
		if err != nil || n != 1 || rec.Length != 16 || rec.FirstFrame != int64(i) {
			t.Errorf("record %d: %+v, NumFrames = %d, %v", i, rec, n, err)
		}
	}
	if pass.Lengths.NumRuns() != 1 || pass.Frames.NumRuns() != 1 {
		t.Errorf("runs: lengths %d, frames %d, want 1 and 1", pass.Lengths.NumRuns(), pass.Frames.NumRuns())
	}

	// The slice crosses record boundaries.
	res, err := r.Read(t.Context(), pass, Request{
		Channels: []int{1, 2},
		Slice:    frameset.Slice{Start: 1, Stop: 4, Step: 1},
	})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !slices.Equal(res.Frames, []int64{1, 2, 3}) {
		t.Errorf("Frames = %v, want [1 2 3]", res.Frames)
	}
	if !slices.Equal(res.X, []float64{101, 102, 103}) {
		t.Errorf("X = %v, want [101 102 103]", res.X)
	}
	if !slices.Equal(res.Curves[0].Values, []float64{1010, 1020, 1030}) {
		t.Errorf("GR = %v", res.Curves[0].Values)
	}
	if !slices.Equal(res.Curves[1].Values, []float64{101.25, 101.5, 102.25, 102.5, 103.25, 103.5}) {
		t.Errorf("RES = %v", res.Curves[1].Values)
	}
}

func TestRead_IndirectExtrapolation(t *testing.T) {
	chans := []listest.Channel{{Mnemonic: "GR"}, {Mnemonic: "SP"}}
	record := func(depth float64) []byte {
		return append(listest.F32(depth), listest.F32(1, 2, 3, 4, 5, 6)...)
	}
	b := listest.NewBuilder()
	b.Record(64, listest.DFSR{Indirect: true, Spacing: 0.5, Channels: chans}.Payload())
	b.Record(0, record(1000))
	b.Record(0, record(998.5))
	r, pass := open(t, b)

	tests := []struct {
		name     string
		channels []int
		slice    frameset.Slice
		x        []float64
		values   []float64
	}{
		{"every frame", []int{0}, frameset.Slice{}, []float64{1000, 999.5, 999, 998.5, 998, 997.5}, []float64{1, 3, 5, 1, 3, 5}},
		{"strided", []int{1}, frameset.Slice{Start: 1, Stop: 6, Step: 2}, []float64{999.5, 998.5, 997.5}, []float64{4, 2, 6}},
		{"tail", []int{0, 1}, frameset.Slice{Start: 5, Stop: 6, Step: 1}, []float64{997.5}, []float64{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Read(t.Context(), pass, Request{Channels: tt.channels, Slice: tt.slice})
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if !slices.Equal(res.X, tt.x) {
				t.Errorf("X = %v, want %v", res.X, tt.x)
			}
			if !slices.Equal(res.Curves[0].Values, tt.values) {
				t.Errorf("values = %v, want %v", res.Curves[0].Values, tt.values)
			}
		})
	}
}

func TestRead_MaskAbsent(t *testing.T) {
	b := listest.NewBuilder()
	b.Record(64, listest.DFSR{Channels: threeChannels}.Payload())
	b.Record(0, listest.F32(1, -999.25, 2, 3))
	r, pass := open(t, b)

	for _, mask := range []bool{false, true} {
		res, err := r.Read(t.Context(), pass, Request{Channels: []int{1}, MaskAbsent: mask})
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		got := res.Curves[0].Values[0]
		if mask != math.IsNaN(got) {
			t.Errorf("mask %v: GR = %v", mask, got)
		}
	}
}

func TestRead_NonNumericChannel(t *testing.T) {
	chans := []listest.Channel{{Mnemonic: "DEPT"}, {Mnemonic: "NAME", Code: repcode.String, Size: 4}}
	b := listest.NewBuilder()
	b.Record(64, listest.DFSR{Channels: chans}.Payload())
	b.Record(0, append(listest.F32(5), "abcd"...))
	r, pass := open(t, b)

	res, err := r.Read(t.Context(), pass, Request{})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if res.Curves[0].Values[0] != 5 || !math.IsNaN(res.Curves[1].Values[0]) || res.Curves[1].Width != 1 {
		t.Errorf("curves = %+v", res.Curves)
	}
}

func TestRead_Errors(t *testing.T) {
	r, pass := open(t, explicitFile())

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"no channels", Request{Channels: []int{}}, frameset.ErrNoChannels},
		{"channel out of range", Request{Channels: []int{3}}, frameset.ErrArithmetic},
		{"slice past end", Request{Slice: frameset.Slice{Start: 0, Stop: 9, Step: 1}}, frameset.ErrArithmetic},
		{"zero step", Request{Slice: frameset.Slice{Start: 0, Stop: 2}}, frameset.ErrInvalidSlice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Read(t.Context(), pass, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRead_Canceled(t *testing.T) {
	r, pass := open(t, explicitFile())
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := r.Read(ctx, pass, Request{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLocalSlice(t *testing.T) {
	tests := []struct {
		name     string
		s        frameset.Slice
		first, n int64
		want     frameset.Slice
		wantOK   bool
	}{
		{"inside", frameset.Slice{Start: 0, Stop: 8, Step: 1}, 4, 4, frameset.Slice{Start: 0, Stop: 4, Step: 1}, true},
		{"aligned stride", frameset.Slice{Start: 1, Stop: 8, Step: 2}, 4, 4, frameset.Slice{Start: 1, Stop: 4, Step: 2}, true},
		{"head of record", frameset.Slice{Start: 0, Stop: 2, Step: 1}, 0, 4, frameset.Slice{Start: 0, Stop: 2, Step: 1}, true},
		{"before record", frameset.Slice{Start: 0, Stop: 4, Step: 1}, 4, 4, frameset.Slice{}, false},
		{"stride misses record", frameset.Slice{Start: 0, Stop: 12, Step: 5}, 6, 3, frameset.Slice{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := localSlice(tt.s, tt.first, tt.n)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("localSlice = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
