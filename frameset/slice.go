package frameset

import (
	"fmt"
	"strconv"
	"strings"
)

// Slice selects frames Start, Start+Step, ... below Stop.
type Slice struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
	Step  int `json:"step"`
}

// All returns the slice selecting every one of n frames.
func All(n int) Slice {
	return Slice{Start: 0, Stop: n, Step: 1}
}

// Count returns the number of frames selected.
func (s Slice) Count() int {
	if s.Step < 1 || s.Stop <= s.Start {
		return 0
	}
	return (s.Stop - s.Start + s.Step - 1) / s.Step
}

// Last returns the final frame selected. It is only meaningful when Count() > 0.
func (s Slice) Last() int {
	return s.Start + (s.Count()-1)*s.Step
}

// Frames returns the selected frame numbers.
func (s Slice) Frames() []int {
	out := make([]int, 0, s.Count())
	for f := s.Start; f < s.Stop; f += s.Step {
		out = append(out, f)
	}
	return out
}

func (s Slice) validate() error {
	if s.Start < 0 {
		return &NegativeLengthError{What: "slice start", Value: s.Start}
	}
	if s.Stop < 0 {
		return &NegativeLengthError{What: "slice stop", Value: s.Stop}
	}
	if s.Step < 0 {
		return &NegativeLengthError{What: "slice step", Value: s.Step}
	}
	if s.Step == 0 {
		return fmt.Errorf("%w: step must be positive", ErrInvalidSlice)
	}
	return nil
}

// String implements fmt.Stringer.
func (s Slice) String() string {
	return fmt.Sprintf("%d:%d:%d", s.Start, s.Stop, s.Step)
}

// ParseSlice parses "start:stop:step" against a frame set of n frames.
// Omitted fields default to 0, n and 1. Bounds are taken as written: a
// negative field or one beyond the frame set is an error.
func ParseSlice(spec string, n int) (Slice, error) {
	s := Slice{Start: 0, Stop: n, Step: 1}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return s, nil
	}
	parts := strings.Split(spec, ":")
	if len(parts) > 3 {
		return Slice{}, fmt.Errorf("%w: %q has more than three fields", ErrInvalidSlice, spec)
	}

	fields := []*int{&s.Start, &s.Stop, &s.Step}
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return Slice{}, fmt.Errorf("%w: %q: %v", ErrInvalidSlice, spec, err)
		}
		*fields[i] = v
	}
	// A single number selects exactly that frame.
	if len(parts) == 1 {
		s.Stop = s.Start + 1
	}

	if err := s.validate(); err != nil {
		return Slice{}, err
	}
	if s.Start > n {
		return Slice{}, &OverrunError{What: "slice start", Value: s.Start, Limit: n}
	}
	if s.Stop > n {
		return Slice{}, &OverrunError{What: "slice stop", Value: s.Stop, Limit: n}
	}
	return s, nil
}
