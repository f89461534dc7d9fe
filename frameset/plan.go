// Package frameset computes the byte layout of log pass frames and plans
// read/skip/extrapolate sequences for frame-slice × channel-subset requests.
//
// A Plan never touches a stream. It is immutable once built and may be shared
// by any number of readers, each replaying its own EventStream against its own
// file handle.
package frameset

import "fmt"

// Plan is the byte layout of one frame set.
//
// A data record holding frames for the set is laid out as:
//
//	[indirect X value][frame 0][frame 1]...[frame n-1]
//
// where the indirect X value is absent (size 0) when the X axis is recorded
// explicitly as a channel.
type Plan struct {
	indirect  int
	sizes     []int
	frameSize int
	toStart   []int
	toEnd     []int
}

// New builds a Plan from per-channel byte sizes and the indirect X-axis size
// (0 when the X axis is an ordinary channel).
func New(sizes []int, indirect int) (*Plan, error) {
	if indirect < 0 {
		return nil, &NegativeLengthError{What: "indirect X-axis size", Value: indirect}
	}
	p := &Plan{
		indirect: indirect,
		sizes:    make([]int, len(sizes)),
		toStart:  make([]int, len(sizes)),
		toEnd:    make([]int, len(sizes)),
	}
	for i, s := range sizes {
		if s < 0 {
			return nil, &NegativeLengthError{What: fmt.Sprintf("size of channel %d", i), Value: s}
		}
		p.sizes[i] = s
		p.toStart[i] = p.frameSize
		p.frameSize += s
	}
	if p.frameSize == 0 {
		return nil, ErrEmptyFrame
	}
	for i, s := range p.sizes {
		p.toEnd[i] = p.frameSize - p.toStart[i] - s
	}
	return p, nil
}

// Indirect returns the size of the indirect X-axis value, 0 if explicit.
func (p *Plan) Indirect() int { return p.indirect }

// FrameSize returns the number of bytes in one frame.
func (p *Plan) FrameSize() int { return p.frameSize }

// NumChannels returns the number of channels in a frame.
func (p *Plan) NumChannels() int { return len(p.sizes) }

// Sizes returns a copy of the per-channel sizes.
func (p *Plan) Sizes() []int {
	out := make([]int, len(p.sizes))
	copy(out, p.sizes)
	return out
}

// ChannelSize returns the size of channel ch.
func (p *Plan) ChannelSize(ch int) int { return p.sizes[ch] }

// SkipToStart returns the distance from the frame start to the start of channel ch.
func (p *Plan) SkipToStart(ch int) int { return p.toStart[ch] }

// SkipToEnd returns the distance from the end of channel ch to the frame end.
func (p *Plan) SkipToEnd(ch int) int { return p.toEnd[ch] }

// NumFrames returns the number of frames in a data record of the given length.
// The length must be the indirect size plus a whole number of frames.
func (p *Plan) NumFrames(length int) (int, error) {
	data := length - p.indirect
	if data < 0 {
		return 0, &NonIntegralFrameCountError{
			Length:    length,
			Indirect:  p.indirect,
			FrameSize: p.frameSize,
			Data:      data,
		}
	}
	if rem := data % p.frameSize; rem != 0 {
		return 0, &NonIntegralFrameCountError{
			Length:    length,
			Indirect:  p.indirect,
			FrameSize: p.frameSize,
			Data:      data,
			Remainder: rem,
		}
	}
	return data / p.frameSize, nil
}

// ChannelOffset returns the byte offset of channel ch of frame f from the
// start of the record data.
func (p *Plan) ChannelOffset(f, ch int) (int, error) {
	if f < 0 {
		return 0, &NegativeLengthError{What: "frame", Value: f}
	}
	if ch < 0 {
		return 0, &NegativeLengthError{What: "channel", Value: ch}
	}
	if ch >= len(p.sizes) {
		return 0, &OverrunError{What: "channel", Value: ch, Limit: len(p.sizes) - 1}
	}
	return p.indirect + p.toStart[ch] + f*p.frameSize, nil
}

// String implements fmt.Stringer.
func (p *Plan) String() string {
	return fmt.Sprintf("frame set: %d channels, %d bytes/frame, indirect X %d bytes", len(p.sizes), p.frameSize, p.indirect)
}
