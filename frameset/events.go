package frameset

import (
	"fmt"
	"iter"
	"sort"

	"go.uber.org/zap/zapcore"
)

// Kind discriminates addressing events.
type Kind uint8

// Event kinds.
const (
	// Read consumes Size bytes holding the channels in Channels.
	Read Kind = iota + 1
	// Skip passes over Size bytes that were not requested.
	Skip
	// Extrapolate advances the X-axis projection by Size frames.
	Extrapolate
)

func (k Kind) String() string {
	switch k {
	case Read:
		return "read"
	case Skip:
		return "skip"
	case Extrapolate:
		return "extrapolate"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// NoFrame marks events that are not bound to a single frame.
const NoFrame = -1

// Range is an inclusive span of channels.
type Range struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// NoChannels is the empty range carried by events that span no channel.
var NoChannels = Range{First: 0, Last: -1}

// Empty reports whether r covers no channel.
func (r Range) Empty() bool { return r.Last < r.First }

func (r Range) String() string {
	switch {
	case r.Empty():
		return "-"
	case r.First == r.Last:
		return fmt.Sprintf("%d", r.First)
	default:
		return fmt.Sprintf("%d..%d", r.First, r.Last)
	}
}

// Event is one step of an addressing plan.
type Event struct {
	Kind Kind `json:"kind"`
	// Size is a byte count for Read and Skip, a frame count for Extrapolate.
	Size  int `json:"size"`
	Frame int `json:"frame"`
	// X marks a read that begins with the indirect X-axis value. Channels
	// then names the channels read after it, if any.
	X        bool  `json:"x,omitempty"`
	Channels Range `json:"channels"`
}

// Label names what an event covers: "X" for the indirect X-axis value, then
// the channel range.
func (e Event) Label() string {
	switch {
	case !e.X:
		return e.Channels.String()
	case e.Channels.Empty():
		return "X"
	default:
		return "X," + e.Channels.String()
	}
}

func (e Event) String() string {
	if e.Frame == NoFrame {
		return fmt.Sprintf("%s(%d, ch=%s)", e.Kind, e.Size, e.Label())
	}
	return fmt.Sprintf("%s(%d, frame=%d, ch=%s)", e.Kind, e.Size, e.Frame, e.Label())
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (e Event) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("kind", e.Kind.String())
	enc.AddInt("size", e.Size)
	enc.AddInt("frame", e.Frame)
	enc.AddBool("x", e.X)
	enc.AddString("channels", e.Channels.String())
	return nil
}

// span is a maximal run of contiguous requested channels.
type span struct {
	first, last int
	size        int
}

// stage tracks progress through the stream.
type stage uint8

const (
	stageFirst stage = iota
	stageFrame
	stageTail
	stageDone
)

// EventStream lazily produces the events for one request. It buffers at most
// one frame's worth of events and can be restarted with Reset.
type EventStream struct {
	plan  *Plan
	slice Slice
	spans []span
	pre   int
	post  int

	stage stage
	k     int // index of the next selected frame
	buf   []Event
	pos   int
}

// Events plans reading the channels of every frame selected by slice.
// Channels are deduplicated and sorted; contiguous channels are read with a
// single event and gaps between them are skipped. Replaying the whole stream
// consumes exactly Indirect() + (slice.Last()+1)*FrameSize() bytes and leaves
// the reader at a frame boundary.
func (p *Plan) Events(slice Slice, channels []int) (*EventStream, error) {
	if err := slice.validate(); err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, ErrNoChannels
	}

	chans := make([]int, len(channels))
	copy(chans, channels)
	sort.Ints(chans)
	for _, ch := range chans {
		if ch < 0 {
			return nil, &NegativeLengthError{What: "channel", Value: ch}
		}
	}
	if maxCh := chans[len(chans)-1]; maxCh > len(p.sizes)-1 {
		return nil, &OverrunError{What: "channel", Value: maxCh, Limit: len(p.sizes) - 1}
	}

	var spans []span
	for _, ch := range chans {
		n := len(spans)
		switch {
		case n > 0 && spans[n-1].last == ch:
			// duplicate
		case n > 0 && spans[n-1].last+1 == ch:
			spans[n-1].last = ch
			spans[n-1].size += p.sizes[ch]
		default:
			spans = append(spans, span{first: ch, last: ch, size: p.sizes[ch]})
		}
	}

	s := &EventStream{
		plan:  p,
		slice: slice,
		spans: spans,
		pre:   p.toStart[spans[0].first],
		post:  p.toEnd[spans[len(spans)-1].last],
		buf:   make([]Event, 0, 2*len(spans)+3),
	}
	s.Reset()
	return s, nil
}

// Reset rewinds the stream to its first event.
func (s *EventStream) Reset() {
	s.stage = stageFirst
	if s.slice.Count() == 0 {
		s.stage = stageDone
	}
	s.k = 0
	s.buf = s.buf[:0]
	s.pos = 0
}

// Slice returns the frame slice the stream covers.
func (s *EventStream) Slice() Slice { return s.slice }

// Plan returns the plan the stream was derived from.
func (s *EventStream) Plan() *Plan { return s.plan }

// Next returns the next event, or false once the stream is exhausted.
func (s *EventStream) Next() (Event, bool) {
	for s.pos >= len(s.buf) {
		if s.stage == stageDone {
			return Event{}, false
		}
		s.fill()
	}
	e := s.buf[s.pos]
	s.pos++
	return e, true
}

// All iterates over the full stream from the beginning without disturbing
// the receiver's position.
func (s *EventStream) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		c := *s
		c.buf = make([]Event, 0, cap(s.buf))
		c.Reset()
		for {
			e, ok := c.Next()
			if !ok || !yield(e) {
				return
			}
		}
	}
}

// Collect materializes the full stream.
func (s *EventStream) Collect() []Event {
	var out []Event
	for e := range s.All() {
		out = append(out, e)
	}
	return out
}

// fill refills buf with the events of the current stage and advances it.
func (s *EventStream) fill() {
	s.buf = s.buf[:0]
	s.pos = 0
	p := s.plan
	frame := s.slice.Start + s.k*s.slice.Step

	switch s.stage {
	case stageFirst:
		lead := s.slice.Start*p.frameSize + s.pre
		merge := false
		if p.indirect > 0 {
			if lead == 0 {
				merge = true
			} else {
				s.emitX(p.indirect, NoFrame, NoChannels)
			}
		}
		if s.slice.Start == 0 {
			s.emit(Skip, lead, NoFrame, Range{First: 0, Last: s.spans[0].first - 1})
		} else {
			s.emit(Skip, lead, NoFrame, NoChannels)
		}
		if p.indirect > 0 && s.slice.Start > 0 {
			s.emit(Extrapolate, s.slice.Start, NoFrame, NoChannels)
		}
		s.body(frame, merge)
		s.advance()

	case stageFrame:
		gap := s.post + (s.slice.Step-1)*p.frameSize + s.pre
		s.emit(Skip, gap, NoFrame, NoChannels)
		if p.indirect > 0 && s.slice.Step > 1 {
			s.emit(Extrapolate, s.slice.Step, NoFrame, NoChannels)
		}
		s.body(frame, false)
		s.advance()

	case stageTail:
		last := s.spans[len(s.spans)-1].last
		s.emit(Skip, s.post, NoFrame, Range{First: last + 1, Last: len(p.sizes) - 1})
		s.stage = stageDone
	}
}

func (s *EventStream) advance() {
	s.k++
	if s.k < s.slice.Count() {
		s.stage = stageFrame
	} else {
		s.stage = stageTail
	}
}

// body emits the reads and inner skips of one frame. When merge is set the
// indirect X value is read together with the first span.
func (s *EventStream) body(frame int, merge bool) {
	p := s.plan
	for i, sp := range s.spans {
		if i > 0 {
			prev := s.spans[i-1]
			gap := p.toStart[sp.first] - p.toStart[prev.last] - p.sizes[prev.last]
			s.emit(Skip, gap, frame, Range{First: prev.last + 1, Last: sp.first - 1})
		}
		if i == 0 && merge {
			s.emitX(p.indirect+sp.size, frame, Range{First: sp.first, Last: sp.last})
			continue
		}
		s.emit(Read, sp.size, frame, Range{First: sp.first, Last: sp.last})
	}
}

// emit appends an event, eliding empty skips and extrapolations.
func (s *EventStream) emit(kind Kind, size, frame int, r Range) {
	if size == 0 && kind != Read {
		return
	}
	s.buf = append(s.buf, Event{Kind: kind, Size: size, Frame: frame, Channels: r})
}

// emitX appends a read that starts with the indirect X-axis value.
func (s *EventStream) emitX(size, frame int, r Range) {
	s.buf = append(s.buf, Event{Kind: Read, Size: size, Frame: frame, X: true, Channels: r})
}
