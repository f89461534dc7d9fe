package index

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/justapithecus/strata/frameset"
	"github.com/justapithecus/strata/framing"
	"github.com/justapithecus/strata/repcode"
	"github.com/justapithecus/strata/rle"
	"github.com/justapithecus/strata/types"
)

// LogPass is a data format specification record together with the data
// records attributed to it. Position tables are run-length encoded: one value
// per data record.
type LogPass struct {
	Record
	Spec *Spec
	// XChannel is the channel holding the X axis, -1 for the indirect X axis.
	XChannel int

	Tells   *rle.RLE[int64]
	Lengths *rle.RLE[int64]
	Frames  *rle.RLE[int64]
	// X is the X-axis value of the first frame of each data record.
	X *rle.RLE[float64]

	plan    *frameset.Plan
	xEvents []frameset.Event
	xCode   repcode.Code
	total   int64
}

// NewLogPass builds an empty log pass for spec. xChannel is the preferred
// X-axis channel: -1 selects the indirect X axis when the pass has one and
// channel 0 otherwise.
func NewLogPass(rec Record, spec *Spec, xChannel int) (*LogPass, error) {
	plan, err := spec.Plan()
	if err != nil {
		return nil, err
	}
	if spec.IFLRType > 1 {
		return nil, &SpecError{Msg: fmt.Sprintf("data record type %d is not 0 or 1", spec.IFLRType)}
	}

	p := &LogPass{
		Record:   rec,
		Spec:     spec,
		XChannel: xChannel,
		Tells:    rle.New[int64](),
		Lengths:  rle.New[int64](),
		Frames:   rle.New[int64](),
		X:        rle.New[float64](),
		plan:     plan,
	}

	readCh := xChannel
	switch {
	case xChannel < 0 && spec.Indirect():
		p.XChannel = -1
		p.xCode = spec.DepthCode
		readCh = 0
	case xChannel < 0:
		p.XChannel = 0
		readCh = 0
	}
	if p.XChannel >= 0 {
		if p.XChannel >= len(spec.Channels) {
			return nil, &frameset.OverrunError{What: "X-axis channel", Value: p.XChannel, Limit: len(spec.Channels) - 1}
		}
		p.xCode = spec.Channels[p.XChannel].Code
	}

	events, err := plan.Events(frameset.Slice{Start: 0, Stop: 1, Step: 1}, []int{readCh})
	if err != nil {
		return nil, err
	}
	p.xEvents = events.Collect()
	return p, nil
}

// Plan returns the frame layout of the pass.
func (p *LogPass) Plan() *frameset.Plan { return p.plan }

// IFLRType returns the data record type the pass accepts.
func (p *LogPass) IFLRType() types.RecordType { return types.RecordType(p.Spec.IFLRType) }

// NumRecords returns the number of data records attributed to the pass.
func (p *LogPass) NumRecords() int { return p.Tells.Len() }

// NumFrames returns the number of frames across all data records.
func (p *LogPass) NumFrames() int64 { return p.total }

// Events plans reading channels over the frames of one data record.
func (p *LogPass) Events(slice frameset.Slice, channels []int) (*frameset.EventStream, error) {
	return p.plan.Events(slice, channels)
}

// Summary implements Entry.
func (p *LogPass) Summary() string {
	x := "indirect X"
	if p.XChannel >= 0 && p.XChannel < len(p.Spec.Channels) {
		x = "X " + p.Spec.Channels[p.XChannel].Mnemonic
	}
	return fmt.Sprintf("log pass (type %d): %d channels [%s], %d bytes/frame, %s, %d records, %d frames",
		p.Spec.IFLRType, len(p.Spec.Channels), strings.Join(p.Spec.Mnemonics(), " "),
		p.plan.FrameSize(), x, p.NumRecords(), p.total)
}

// DataRecord is one data record of a log pass.
type DataRecord struct {
	Tell       int64
	Length     int64
	Frames     int64
	FirstFrame int64
	X          float64
}

// DataRecords iterates over the data records in file order.
func (p *LogPass) DataRecords() iter.Seq2[int, DataRecord] {
	return func(yield func(int, DataRecord) bool) {
		var first int64
		for i := 0; i < p.Tells.Len(); i++ {
			tell, _ := p.Tells.Value(i)
			length, _ := p.Lengths.Value(i)
			frames, _ := p.Frames.Value(i)
			x, _ := p.X.Value(i)
			rec := DataRecord{Tell: tell, Length: length, Frames: frames, FirstFrame: first, X: x}
			if !yield(i, rec) {
				return
			}
			first += frames
		}
	}
}

// SetTables replaces the position tables, as when restoring a cached index.
func (p *LogPass) SetTables(tells, lengths, frames *rle.RLE[int64], x *rle.RLE[float64]) error {
	n := tells.Len()
	if lengths.Len() != n || frames.Len() != n || x.Len() != n {
		return fmt.Errorf("log pass at %d: position tables disagree (%d tells, %d lengths, %d frames, %d x)",
			p.Offset, n, lengths.Len(), frames.Len(), x.Len())
	}
	var total int64
	for v := range frames.Values() {
		total += v
	}
	p.Tells, p.Lengths, p.Frames, p.X = tells, lengths, frames, x
	p.total = total
	return nil
}

// accumulate attributes the data record at tell to the pass. It reads the
// X-axis value of the first frame and skips the rest of the record. With
// bestEffort, a record cut short by end of file keeps its whole frames.
// Returns the frames added and whether the record was truncated.
func (p *LogPass) accumulate(r *framing.Reader, tell int64, bestEffort bool) (int64, bool, error) {
	x, xerr := p.readX(r)
	if xerr != nil && !errors.Is(xerr, framing.ErrRecordEnd) {
		return 0, false, xerr
	}
	if _, err := r.SkipToNext(); err != nil {
		return 0, false, err
	}

	length := r.Consumed()
	n, err := p.plan.NumFrames(int(length))
	truncated := false
	if err != nil {
		if !bestEffort || !r.Truncated() {
			return 0, false, fmt.Errorf("data record at %d: %w", tell, err)
		}
		n = max(int(length)-p.plan.Indirect(), 0) / p.plan.FrameSize()
		length = int64(p.plan.Indirect() + n*p.plan.FrameSize())
		truncated = true
	}
	if n == 0 {
		return 0, truncated, nil
	}
	if xerr != nil {
		return 0, truncated, fmt.Errorf("data record at %d: read X axis: %w", tell, xerr)
	}

	p.Tells.Add(tell)
	p.Lengths.Add(length)
	p.Frames.Add(int64(n))
	p.X.Add(x)
	p.total += int64(n)
	return int64(n), truncated, nil
}

// readX replays the planned reads of frame 0 up to the X-axis value.
func (p *LogPass) readX(r *framing.Reader) (float64, error) {
	for _, e := range p.xEvents {
		switch e.Kind {
		case frameset.Skip:
			if _, err := r.Skip(int64(e.Size)); err != nil {
				return 0, err
			}
		case frameset.Read:
			b, err := r.Read(e.Size)
			if err != nil {
				return 0, err
			}
			if p.XChannel < 0 {
				return p.decodeX(b)
			}
			if e.Channels.Empty() {
				// indirect X read on its own ahead of the channel
				continue
			}
			if e.X {
				b = b[p.plan.Indirect():]
			}
			return p.decodeX(b)
		}
	}
	return 0, errors.New("no read planned for the X axis")
}

// decodeX decodes an X value. Non-numeric X channels are replaced by the
// running frame number.
func (p *LogPass) decodeX(b []byte) (float64, error) {
	if !repcode.IsNumeric(p.xCode) {
		return float64(p.total), nil
	}
	return repcode.Decode(p.xCode, b)
}
