package frameset

import (
	"errors"
	"fmt"
)

// ErrArithmetic classifies every error produced by frame-set arithmetic:
// negative lengths, non-integral frame counts and channel overruns.
// Use errors.Is(err, ErrArithmetic) to detect them.
var ErrArithmetic = errors.New("frame set arithmetic error")

// ErrEmptyFrame is returned when a plan would describe frames of zero bytes.
var ErrEmptyFrame = fmt.Errorf("%w: frame size is zero", ErrArithmetic)

// ErrNoChannels is returned when an event stream is requested for no channels.
var ErrNoChannels = errors.New("no channels requested")

// ErrInvalidSlice is returned for a frame slice that selects nothing coherent.
var ErrInvalidSlice = errors.New("invalid frame slice")

// NegativeLengthError reports a size or index that must not be negative.
type NegativeLengthError struct {
	What  string
	Value int
}

func (e *NegativeLengthError) Error() string {
	return fmt.Sprintf("negative %s: %d", e.What, e.Value)
}

// Is reports whether target is ErrArithmetic.
func (e *NegativeLengthError) Is(target error) bool {
	return target == ErrArithmetic
}

// NonIntegralFrameCountError reports a record whose length, less the indirect
// X-axis size, is not an exact multiple of the frame size. Historically this
// catches truncated trailing physical records and corrupt successor bits.
//
// Data is Length less Indirect and is negative for a record too short to
// hold the indirect X value. Remainder is Data modulo FrameSize, or 0 when
// Data is negative.
type NonIntegralFrameCountError struct {
	Length    int
	Indirect  int
	FrameSize int
	Data      int
	Remainder int
}

func (e *NonIntegralFrameCountError) Error() string {
	if e.Data < 0 {
		return fmt.Sprintf("record length %d is shorter than indirect X size %d", e.Length, e.Indirect)
	}
	return fmt.Sprintf("record length %d less indirect X size %d is not a multiple of frame size %d (remainder %d)",
		e.Length, e.Indirect, e.FrameSize, e.Remainder)
}

// Is reports whether target is ErrArithmetic.
func (e *NonIntegralFrameCountError) Is(target error) bool {
	return target == ErrArithmetic
}

// OverrunError reports an index beyond the shape a plan describes.
type OverrunError struct {
	What  string
	Value int
	Limit int
}

func (e *OverrunError) Error() string {
	return fmt.Sprintf("%s %d out of range, maximum is %d", e.What, e.Value, e.Limit)
}

// Is reports whether target is ErrArithmetic.
func (e *OverrunError) Is(target error) bool {
	return target == ErrArithmetic
}
