// Package frames decodes channel samples of an indexed log pass by replaying
// the planner's event stream against the framing layer. Only the requested
// channels and frames are read.
package frames

import (
	"context"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"

	"github.com/justapithecus/strata/frameset"
	"github.com/justapithecus/strata/framing"
	"github.com/justapithecus/strata/index"
	"github.com/justapithecus/strata/log"
	"github.com/justapithecus/strata/repcode"
)

// Request selects what to decode from a log pass.
type Request struct {
	// Channels to decode, in any order. Nil selects every channel.
	Channels []int
	// Slice selects frames over the whole pass. The zero value selects all.
	Slice frameset.Slice
	// MaskAbsent replaces the pass's absent value with NaN.
	MaskAbsent bool
}

// Curve holds the decoded samples of one channel.
type Curve struct {
	Index   int
	Channel index.Channel
	// Width is the number of values per frame.
	Width int
	// Values holds Width values per frame, frame after frame.
	Values []float64
}

// Frame returns the values of the i-th decoded frame.
func (c *Curve) Frame(i int) []float64 {
	return c.Values[i*c.Width : (i+1)*c.Width]
}

// Result is the decoded selection. Frames, X and every curve hold one entry
// (Width values for curves) per selected frame.
type Result struct {
	// Frames are frame numbers counted from the start of the pass.
	Frames []int64
	X      []float64
	Curves []Curve
}

// Reader decodes frames from the file an index was built from.
type Reader struct {
	idx    *index.Index
	fr     *framing.Reader
	logger *log.Logger
}

// NewReader returns a Reader over rs, which must hold the file idx indexes.
func NewReader(idx *index.Index, rs io.ReadSeeker, logger *log.Logger) (*Reader, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	fr, err := idx.Open(rs)
	if err != nil {
		return nil, err
	}
	return &Reader{idx: idx, fr: fr, logger: logger}, nil
}

// Read decodes the frames and channels req selects from pass.
func (r *Reader) Read(ctx context.Context, pass *index.LogPass, req Request) (*Result, error) {
	nch := len(pass.Spec.Channels)
	wanted := req.Channels
	if wanted == nil {
		wanted = make([]int, nch)
		for i := range wanted {
			wanted[i] = i
		}
	}
	if len(wanted) == 0 {
		return nil, frameset.ErrNoChannels
	}

	out := make(map[int]int, len(wanted))
	res := &Result{}
	for _, ch := range wanted {
		if ch < 0 || ch >= nch {
			return nil, &frameset.OverrunError{What: "channel", Value: ch, Limit: nch - 1}
		}
		if _, dup := out[ch]; dup {
			continue
		}
		out[ch] = len(res.Curves)
		c := pass.Spec.Channels[ch]
		res.Curves = append(res.Curves, Curve{Index: ch, Channel: c, Width: width(c)})
	}

	read := slices.Sorted(maps.Keys(out))
	if _, ok := out[pass.XChannel]; pass.XChannel >= 0 && !ok {
		read = append(read, pass.XChannel)
		slices.Sort(read)
	}

	total := int(pass.NumFrames())
	sel := req.Slice
	if sel == (frameset.Slice{}) {
		sel = frameset.All(total)
	}
	if sel.Step < 1 {
		return nil, fmt.Errorf("%w: step must be positive", frameset.ErrInvalidSlice)
	}
	if sel.Start < 0 || sel.Stop > total {
		return nil, &frameset.OverrunError{What: "frame slice", Value: sel.Stop, Limit: total}
	}

	d := &decoder{pass: pass, res: res, out: out, mask: req.MaskAbsent && pass.Spec.HasAbsent}
	for _, rec := range pass.DataRecords() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		local, ok := localSlice(sel, rec.FirstFrame, rec.Frames)
		if !ok {
			continue
		}
		h, err := r.fr.Seek(rec.Tell)
		if err != nil {
			return nil, err
		}
		if h.Type != uint8(pass.IFLRType()) {
			return nil, fmt.Errorf("data record at %d: found type %d, indexed as %d", rec.Tell, h.Type, pass.IFLRType())
		}
		events, err := pass.Events(local, read)
		if err != nil {
			return nil, fmt.Errorf("data record at %d: %w", rec.Tell, err)
		}
		if err := d.record(r.fr, rec, events); err != nil {
			return nil, fmt.Errorf("data record at %d: %w", rec.Tell, err)
		}
	}

	r.logger.Debug("frames decoded", map[string]any{
		"pass":     pass.Tell(),
		"frames":   len(res.Frames),
		"channels": len(res.Curves),
		"slice":    sel.String(),
	})
	return res, nil
}

// localSlice maps the pass-wide slice s onto a record holding n frames from
// frame first.
func localSlice(s frameset.Slice, first, n int64) (frameset.Slice, bool) {
	step := int64(s.Step)
	lo := max(int64(s.Start), first)
	hi := min(int64(s.Stop), first+n)
	if off := (lo - int64(s.Start)) % step; off != 0 {
		lo += step - off
	}
	if lo >= hi {
		return frameset.Slice{}, false
	}
	return frameset.Slice{Start: int(lo - first), Stop: int(hi - first), Step: s.Step}, true
}

// width returns the number of values a channel decodes to per frame.
// Channels of non-numeric codes decode to one NaN.
func width(c index.Channel) int {
	n, ok := repcode.Size(c.Code)
	if !ok || n == 0 || !repcode.IsNumeric(c.Code) || c.Size%n != 0 {
		return 1
	}
	return c.Size / n
}

// decoder accumulates decoded frames across the data records of a pass.
type decoder struct {
	pass *index.LogPass
	res  *Result
	out  map[int]int
	mask bool
}

// record replays events over one data record. The X axis of an indirect pass
// is the record's X value advanced by the spacing once per frame, or by the
// extrapolation count when the planner skips frames.
func (d *decoder) record(fr *framing.Reader, rec index.DataRecord, events *frameset.EventStream) error {
	spec := d.pass.Spec
	indirect := d.pass.Plan().Indirect()

	var x0 float64
	cursor := 0
	extrapolated := false
	current := frameset.NoFrame

	for e := range events.All() {
		switch e.Kind {
		case frameset.Skip:
			if _, err := fr.Skip(int64(e.Size)); err != nil {
				return err
			}

		case frameset.Extrapolate:
			cursor += e.Size
			extrapolated = true

		case frameset.Read:
			b, err := fr.Read(e.Size)
			if err != nil {
				return err
			}
			if e.X {
				if x0, err = repcode.Decode(spec.DepthCode, b[:indirect]); err != nil {
					return err
				}
				if e.Channels.Empty() {
					continue
				}
				b = b[indirect:]
			}

			if e.Frame != current {
				if current != frameset.NoFrame && !extrapolated {
					cursor++
				}
				extrapolated = false
				current = e.Frame
				d.res.Frames = append(d.res.Frames, rec.FirstFrame+int64(e.Frame))
				x := float64(rec.FirstFrame + int64(e.Frame))
				if d.pass.XChannel < 0 {
					x = x0 + float64(cursor)*spec.Step()
				}
				d.res.X = append(d.res.X, x)
			}

			if err := d.channels(b, e.Channels.First, e.Channels.Last); err != nil {
				return err
			}
		}
	}
	return nil
}

// channels decodes the contiguous channels first..last from b.
func (d *decoder) channels(b []byte, first, last int) error {
	off := 0
	for ch := first; ch <= last; ch++ {
		c := d.pass.Spec.Channels[ch]
		if off+c.Size > len(b) {
			return fmt.Errorf("channel %d: %d bytes read, %d needed", ch, len(b)-off, c.Size)
		}
		values, err := d.decode(c, b[off:off+c.Size])
		if err != nil {
			return fmt.Errorf("channel %s: %w", c.Mnemonic, err)
		}
		off += c.Size

		if ch == d.pass.XChannel && repcode.IsNumeric(c.Code) {
			d.res.X[len(d.res.X)-1] = values[0]
		}
		if i, ok := d.out[ch]; ok {
			d.res.Curves[i].Values = append(d.res.Curves[i].Values, values...)
		}
	}
	return nil
}

func (d *decoder) decode(c index.Channel, b []byte) ([]float64, error) {
	if !repcode.IsNumeric(c.Code) {
		return []float64{math.NaN()}, nil
	}
	values, err := repcode.DecodeAll(c.Code, b)
	if err != nil {
		return nil, err
	}
	if d.mask {
		absent := d.pass.Spec.Absent
		for i, v := range values {
			if v == absent {
				values[i] = math.NaN()
			}
		}
	}
	return values, nil
}
