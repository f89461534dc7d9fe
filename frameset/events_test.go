package frameset

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func byteTotals(events []Event) (read, skip, extrapolated int) {
	for _, e := range events {
		switch e.Kind {
		case Read:
			read += e.Size
		case Skip:
			skip += e.Size
		case Extrapolate:
			extrapolated += e.Size
		}
	}
	return read, skip, extrapolated
}

func TestEvents_SkipsGapChannel(t *testing.T) {
	p := mustPlan(t, []int{4, 4, 8}, 0)

	s, err := p.Events(Slice{Start: 1, Stop: 4, Step: 1}, []int{2, 0})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	want := []Event{
		{Kind: Skip, Size: 16, Frame: NoFrame, Channels: NoChannels},
		{Kind: Read, Size: 4, Frame: 1, Channels: Range{0, 0}},
		{Kind: Skip, Size: 4, Frame: 1, Channels: Range{1, 1}},
		{Kind: Read, Size: 8, Frame: 1, Channels: Range{2, 2}},
		{Kind: Read, Size: 4, Frame: 2, Channels: Range{0, 0}},
		{Kind: Skip, Size: 4, Frame: 2, Channels: Range{1, 1}},
		{Kind: Read, Size: 8, Frame: 2, Channels: Range{2, 2}},
		{Kind: Read, Size: 4, Frame: 3, Channels: Range{0, 0}},
		{Kind: Skip, Size: 4, Frame: 3, Channels: Range{1, 1}},
		{Kind: Read, Size: 8, Frame: 3, Channels: Range{2, 2}},
	}
	got := s.Collect()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("events mismatch\n got: %v\nwant: %v", got, want)
	}

	read, _, _ := byteTotals(got)
	if read != 36 {
		t.Errorf("bytes read = %d, want 36", read)
	}
}

func TestEvents_ContiguousChannelsMerge(t *testing.T) {
	p := mustPlan(t, []int{4, 4, 8, 2}, 0)

	s, err := p.Events(All(1), []int{1, 2, 2, 1})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	want := []Event{
		{Kind: Skip, Size: 4, Frame: NoFrame, Channels: Range{0, 0}},
		{Kind: Read, Size: 12, Frame: 0, Channels: Range{1, 2}},
		{Kind: Skip, Size: 2, Frame: NoFrame, Channels: Range{3, 3}},
	}
	if got := s.Collect(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestEvents_IndirectMergedWithFirstRead(t *testing.T) {
	p := mustPlan(t, []int{4, 4}, 4)

	s, err := p.Events(Slice{Start: 0, Stop: 2, Step: 1}, []int{0})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	want := []Event{
		{Kind: Read, Size: 8, Frame: 0, X: true, Channels: Range{0, 0}},
		{Kind: Skip, Size: 4, Frame: NoFrame, Channels: NoChannels},
		{Kind: Read, Size: 4, Frame: 1, Channels: Range{0, 0}},
		{Kind: Skip, Size: 4, Frame: NoFrame, Channels: Range{1, 1}},
	}
	if got := s.Collect(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestEvents_IndirectMergedAfterEmptyChannel(t *testing.T) {
	p := mustPlan(t, []int{0, 4, 4}, 4)

	s, err := p.Events(Slice{Start: 0, Stop: 1, Step: 1}, []int{1})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	want := []Event{
		{Kind: Read, Size: 8, Frame: 0, X: true, Channels: Range{1, 1}},
		{Kind: Skip, Size: 4, Frame: NoFrame, Channels: Range{2, 2}},
	}
	got := s.Collect()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("events mismatch\n got: %v\nwant: %v", got, want)
	}
	if label := got[0].Label(); label != "X,1" {
		t.Errorf("Label() = %q, want X,1", label)
	}
}

func TestEvent_Label(t *testing.T) {
	tests := []struct {
		e    Event
		want string
	}{
		{Event{Kind: Read, X: true, Channels: NoChannels}, "X"},
		{Event{Kind: Read, X: true, Channels: Range{0, 2}}, "X,0..2"},
		{Event{Kind: Read, Channels: Range{3, 3}}, "3"},
		{Event{Kind: Skip, Channels: NoChannels}, "-"},
	}
	for _, tt := range tests {
		if got := tt.e.Label(); got != tt.want {
			t.Errorf("%v: Label() = %q, want %q", tt.e, got, tt.want)
		}
	}
}

func TestEvents_IndirectWithLeadingSkipExtrapolates(t *testing.T) {
	p := mustPlan(t, []int{4, 4}, 4)

	s, err := p.Events(Slice{Start: 3, Stop: 10, Step: 3}, []int{1})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	want := []Event{
		{Kind: Read, Size: 4, Frame: NoFrame, X: true, Channels: NoChannels},
		{Kind: Skip, Size: 3*8 + 4, Frame: NoFrame, Channels: NoChannels},
		{Kind: Extrapolate, Size: 3, Frame: NoFrame, Channels: NoChannels},
		{Kind: Read, Size: 4, Frame: 3, Channels: Range{1, 1}},
		{Kind: Skip, Size: 2*8 + 4, Frame: NoFrame, Channels: NoChannels},
		{Kind: Extrapolate, Size: 3, Frame: NoFrame, Channels: NoChannels},
		{Kind: Read, Size: 4, Frame: 6, Channels: Range{1, 1}},
		{Kind: Skip, Size: 2*8 + 4, Frame: NoFrame, Channels: NoChannels},
		{Kind: Extrapolate, Size: 3, Frame: NoFrame, Channels: NoChannels},
		{Kind: Read, Size: 4, Frame: 9, Channels: Range{1, 1}},
	}
	if got := s.Collect(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestEvents_ExplicitXAxisNeverExtrapolates(t *testing.T) {
	p := mustPlan(t, []int{4, 4}, 0)
	s, err := p.Events(Slice{Start: 2, Stop: 9, Step: 3}, []int{0})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	for _, e := range s.Collect() {
		if e.Kind == Extrapolate {
			t.Fatalf("unexpected extrapolation %v", e)
		}
	}
}

func TestEvents_EmptySlice(t *testing.T) {
	p := mustPlan(t, []int{4}, 4)
	s, err := p.Events(Slice{Start: 5, Stop: 5, Step: 1}, []int{0})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if _, ok := s.Next(); ok {
		t.Error("empty slice produced events")
	}
}

func TestEvents_Errors(t *testing.T) {
	p := mustPlan(t, []int{4, 4}, 0)

	tests := []struct {
		name     string
		slice    Slice
		channels []int
		check    func(error) bool
	}{
		{"negative channel", All(2), []int{0, -1}, func(err error) bool {
			var e *NegativeLengthError
			return errors.As(err, &e)
		}},
		{"channel overrun", All(2), []int{2}, func(err error) bool {
			var e *OverrunError
			return errors.As(err, &e) && e.Value == 2 && e.Limit == 1
		}},
		{"no channels", All(2), nil, func(err error) bool { return errors.Is(err, ErrNoChannels) }},
		{"negative start", Slice{Start: -1, Stop: 2, Step: 1}, []int{0}, func(err error) bool {
			return errors.Is(err, ErrArithmetic)
		}},
		{"zero step", Slice{Start: 0, Stop: 2, Step: 0}, []int{0}, func(err error) bool {
			return errors.Is(err, ErrInvalidSlice)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Events(tt.slice, tt.channels)
			if err == nil || !tt.check(err) {
				t.Errorf("Events error = %v", err)
			}
		})
	}
}

func TestEventStream_Restartable(t *testing.T) {
	p := mustPlan(t, []int{2, 4, 4, 8}, 4)
	s, err := p.Events(Slice{Start: 1, Stop: 7, Step: 2}, []int{3, 0})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	first := s.Collect()

	// Consume part of the stream, then check All() is unaffected.
	s.Next()
	s.Next()
	if got := s.Collect(); !reflect.DeepEqual(got, first) {
		t.Fatalf("Collect after partial Next differs")
	}

	var manual []Event
	s.Reset()
	for {
		e, ok := s.Next()
		if !ok {
			break
		}
		manual = append(manual, e)
	}
	if !reflect.DeepEqual(manual, first) {
		t.Fatalf("Next after Reset differs\n got: %v\nwant: %v", manual, first)
	}
}

// TestEvents_Completeness replays random requests and checks that every byte
// of the covered range is read or skipped exactly once, that the requested
// channels are read at their true offsets, and that the stream ends on a
// frame boundary.
func TestEvents_Completeness(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 300; trial++ {
		nch := 1 + rng.Intn(8)
		sizes := make([]int, nch)
		for i := range sizes {
			sizes[i] = 1 + rng.Intn(8)
		}
		indirect := 0
		if rng.Intn(2) == 0 {
			indirect = []int{2, 4}[rng.Intn(2)]
		}
		p := mustPlan(t, sizes, indirect)

		var chans []int
		for ch := 0; ch < nch; ch++ {
			if rng.Intn(2) == 0 {
				chans = append(chans, ch)
			}
		}
		if len(chans) == 0 {
			chans = []int{rng.Intn(nch)}
		}
		start := rng.Intn(5)
		stop := start + 1 + rng.Intn(10)
		step := 1 + rng.Intn(4)
		slice := Slice{Start: start, Stop: stop, Step: step}

		s, err := p.Events(slice, chans)
		if err != nil {
			t.Fatalf("trial %d: Events failed: %v", trial, err)
		}
		events := s.Collect()

		read, skip, extrapolated := byteTotals(events)
		want := indirect + (slice.Last()+1)*p.FrameSize()
		if read+skip != want {
			t.Fatalf("trial %d: read+skip = %d, want %d (sizes %v ind %d slice %v chans %v)\n%v",
				trial, read+skip, want, sizes, indirect, slice, chans, events)
		}

		// Every read must start at the offset the plan reports.
		pos := 0
		for _, e := range events {
			if e.Kind == Skip && e.Size == 0 {
				t.Fatalf("trial %d: empty skip emitted", trial)
			}
			if e.Kind == Read && !e.Channels.Empty() {
				off, err := p.ChannelOffset(e.Frame, e.Channels.First)
				if err != nil {
					t.Fatalf("trial %d: %v", trial, err)
				}
				start := pos
				if e.X {
					start += indirect
				}
				if off != start {
					t.Fatalf("trial %d: read of %v at %d, plan offset %d", trial, e, pos, off)
				}
			}
			if e.Kind != Extrapolate {
				pos += e.Size
			}
		}
		if (pos-indirect)%p.FrameSize() != 0 {
			t.Fatalf("trial %d: stream ends mid-frame at %d", trial, pos)
		}
		last := events[len(events)-1]
		if last.Kind == Extrapolate {
			t.Fatalf("trial %d: stream ends with extrapolation", trial)
		}

		if indirect > 0 {
			wantX := slice.Start
			if step > 1 {
				wantX += (slice.Count() - 1) * step
			}
			if extrapolated != wantX {
				t.Errorf("trial %d: extrapolated %d frames, want %d", trial, extrapolated, wantX)
			}
		} else if extrapolated != 0 {
			t.Errorf("trial %d: explicit X axis extrapolated %d frames", trial, extrapolated)
		}
	}
}

func TestParseSlice(t *testing.T) {
	tests := []struct {
		spec string
		n    int
		want Slice
	}{
		{"", 10, Slice{0, 10, 1}},
		{":", 10, Slice{0, 10, 1}},
		{"1:4", 10, Slice{1, 4, 1}},
		{"::2", 10, Slice{0, 10, 2}},
		{"7:", 10, Slice{7, 10, 1}},
		{"5", 10, Slice{5, 6, 1}},
		{"2:8:3", 10, Slice{2, 8, 3}},
		{"10:", 10, Slice{10, 10, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseSlice(tt.spec, tt.n)
			if err != nil {
				t.Fatalf("ParseSlice(%q) failed: %v", tt.spec, err)
			}
			if got != tt.want {
				t.Errorf("ParseSlice(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}

	for _, bad := range []string{"0:11", "12", "a:b", "1:2:3:4", "::0", "-11:"} {
		if _, err := ParseSlice(bad, 10); err == nil {
			t.Errorf("ParseSlice(%q) expected error", bad)
		}
	}

	// Negative bounds are rejected, never counted back from the end.
	for _, bad := range []string{"-3:", "2:-2", "-1", "::-1"} {
		_, err := ParseSlice(bad, 10)
		var neg *NegativeLengthError
		if !errors.As(err, &neg) || !errors.Is(err, ErrArithmetic) {
			t.Errorf("ParseSlice(%q) error = %v, want NegativeLengthError", bad, err)
		}
	}
}

func TestSlice_Count(t *testing.T) {
	tests := []struct {
		s    Slice
		want int
	}{
		{Slice{0, 10, 1}, 10},
		{Slice{0, 10, 3}, 4},
		{Slice{1, 4, 1}, 3},
		{Slice{5, 5, 1}, 0},
		{Slice{6, 5, 1}, 0},
	}
	for _, tt := range tests {
		if got := tt.s.Count(); got != tt.want {
			t.Errorf("%v.Count() = %d, want %d", tt.s, got, tt.want)
		}
	}
	if got := (Slice{1, 10, 4}).Frames(); !reflect.DeepEqual(got, []int{1, 5, 9}) {
		t.Errorf("Frames() = %v", got)
	}
}
