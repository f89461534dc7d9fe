package index

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/justapithecus/strata/frameset"
	"github.com/justapithecus/strata/repcode"
)

// Entry block types of a data format specification record.
const (
	entryTerminator = 0
	entryIFLRType   = 1
	entryDSBSubtype = 2
	entryFrameSize  = 3
	entryUpDown     = 4
	entrySpacing    = 8
	entrySpacingUOM = 9
	entryAbsent     = 12
	entryDepthMode  = 13
	entryDepthUOM   = 14
	entryDepthCode  = 15
)

// datumSpecSize is the size of one datum spec block.
const datumSpecSize = 40

// Direction values of entry 4.
const (
	DirectionUp   = 1
	DirectionDown = 255
)

// SpecError reports a malformed data format specification record. It
// classifies as a frame-set arithmetic error: the log pass it describes
// cannot be addressed.
type SpecError struct {
	Msg string
}

func (e *SpecError) Error() string { return "data format specification: " + e.Msg }

// Is reports whether target is frameset.ErrArithmetic.
func (e *SpecError) Is(target error) bool { return target == frameset.ErrArithmetic }

// Channel is one datum spec block.
type Channel struct {
	Mnemonic     string       `json:"mnemonic" msgpack:"mnemonic"`
	ServiceID    string       `json:"service_id" msgpack:"service_id"`
	ServiceOrder string       `json:"service_order" msgpack:"service_order"`
	Units        string       `json:"units" msgpack:"units"`
	APICodes     [4]uint8     `json:"api_codes" msgpack:"api_codes"`
	FileNumber   int          `json:"file_number" msgpack:"file_number"`
	Size         int          `json:"size" msgpack:"size"`
	ProcessLevel uint8        `json:"process_level" msgpack:"process_level"`
	Samples      int          `json:"samples" msgpack:"samples"`
	Code         repcode.Code `json:"repcode" msgpack:"repcode"`
}

// Spec is a decoded data format specification record.
type Spec struct {
	IFLRType     uint8        `json:"iflr_type" msgpack:"iflr_type"`
	Subtype      uint8        `json:"subtype" msgpack:"subtype"`
	FrameSize    int          `json:"frame_size,omitempty" msgpack:"frame_size"`
	Direction    uint8        `json:"direction" msgpack:"direction"`
	Spacing      float64      `json:"spacing,omitempty" msgpack:"spacing"`
	SpacingUnits string       `json:"spacing_units,omitempty" msgpack:"spacing_units"`
	Absent       float64      `json:"absent" msgpack:"absent"`
	HasAbsent    bool         `json:"has_absent" msgpack:"has_absent"`
	DepthMode    uint8        `json:"depth_mode" msgpack:"depth_mode"`
	DepthUnits   string       `json:"depth_units,omitempty" msgpack:"depth_units"`
	DepthCode    repcode.Code `json:"depth_repcode" msgpack:"depth_repcode"`
	Channels     []Channel    `json:"channels" msgpack:"channels"`
}

// Indirect reports whether the X axis is recorded once per data record
// ahead of the frames.
func (s *Spec) Indirect() bool { return s.DepthMode == 1 }

// IndirectSize returns the byte size of the indirect X value, 0 if explicit.
func (s *Spec) IndirectSize() int {
	if !s.Indirect() {
		return 0
	}
	n, _ := repcode.Size(s.DepthCode)
	return n
}

// Step returns the signed X increment between consecutive frames, 0 when the
// record declares no spacing.
func (s *Spec) Step() float64 {
	step := math.Abs(s.Spacing)
	if s.Direction == DirectionUp {
		return -step
	}
	return step
}

// Mnemonics returns the channel mnemonics in frame order.
func (s *Spec) Mnemonics() []string {
	out := make([]string, len(s.Channels))
	for i, c := range s.Channels {
		out[i] = c.Mnemonic
	}
	return out
}

// Plan derives the frame layout. The declared frame size, when present,
// must equal the sum of the channel sizes.
func (s *Spec) Plan() (*frameset.Plan, error) {
	sizes := make([]int, len(s.Channels))
	for i, c := range s.Channels {
		sizes[i] = c.Size
	}
	p, err := frameset.New(sizes, s.IndirectSize())
	if err != nil {
		return nil, err
	}
	if s.FrameSize != 0 && s.FrameSize != p.FrameSize() {
		return nil, &SpecError{Msg: fmt.Sprintf("declared frame size %d, channels sum to %d", s.FrameSize, p.FrameSize())}
	}
	return p, nil
}

// ParseSpec decodes the payload of a data format specification record.
func ParseSpec(b []byte) (*Spec, error) {
	s := &Spec{DepthCode: repcode.F32}

	off := 0
	for {
		if off+3 > len(b) {
			return nil, &SpecError{Msg: "entry blocks not terminated"}
		}
		typ, size, code := b[off], int(b[off+1]), repcode.Code(b[off+2])
		off += 3
		if off+size > len(b) {
			return nil, &SpecError{Msg: fmt.Sprintf("entry %d declares %d bytes, %d remain", typ, size, len(b)-off)}
		}
		value := b[off : off+size]
		off += size
		if typ == entryTerminator {
			break
		}
		if err := s.setEntry(typ, code, value); err != nil {
			return nil, err
		}
	}

	rest := b[off:]
	if len(rest)%datumSpecSize != 0 {
		return nil, &SpecError{Msg: fmt.Sprintf("%d bytes of datum spec blocks is not a multiple of %d", len(rest), datumSpecSize)}
	}
	for len(rest) > 0 {
		s.Channels = append(s.Channels, parseChannel(rest[:datumSpecSize]))
		rest = rest[datumSpecSize:]
	}
	if len(s.Channels) == 0 {
		return nil, &SpecError{Msg: "no datum spec blocks"}
	}
	return s, nil
}

func (s *Spec) setEntry(typ uint8, code repcode.Code, value []byte) error {
	str := func() string { return strings.TrimSpace(string(value)) }
	num := func() (float64, error) {
		v, err := repcode.Decode(code, value)
		if err != nil {
			return 0, &SpecError{Msg: fmt.Sprintf("entry %d: %v", typ, err)}
		}
		return v, nil
	}

	switch typ {
	case entryIFLRType, entryDSBSubtype, entryFrameSize, entryUpDown,
		entrySpacing, entryAbsent, entryDepthMode, entryDepthCode:
		v, err := num()
		if err != nil {
			return err
		}
		switch typ {
		case entryIFLRType:
			s.IFLRType = uint8(v)
		case entryDSBSubtype:
			s.Subtype = uint8(v)
		case entryFrameSize:
			s.FrameSize = int(v)
		case entryUpDown:
			s.Direction = uint8(v)
		case entrySpacing:
			s.Spacing = v
		case entryAbsent:
			s.Absent = v
			s.HasAbsent = true
		case entryDepthMode:
			s.DepthMode = uint8(v)
		case entryDepthCode:
			s.DepthCode = repcode.Code(v)
			if _, ok := repcode.Size(s.DepthCode); !ok || !repcode.IsNumeric(s.DepthCode) {
				return &SpecError{Msg: fmt.Sprintf("depth representation code %d is not numeric", s.DepthCode)}
			}
		}
	case entrySpacingUOM:
		s.SpacingUnits = str()
	case entryDepthUOM:
		s.DepthUnits = str()
	}
	return nil
}

func parseChannel(b []byte) Channel {
	f := &fixed{b: b}
	c := Channel{}
	c.Mnemonic = f.str(4)
	c.ServiceID = f.str(6)
	c.ServiceOrder = f.str(8)
	c.Units = f.str(4)
	copy(c.APICodes[:], b[22:26])
	c.FileNumber = int(binary.BigEndian.Uint16(b[26:28]))
	c.Size = int(binary.BigEndian.Uint16(b[28:30]))
	c.ProcessLevel = b[32]
	c.Samples = int(b[33])
	c.Code = repcode.Code(b[34])
	return c
}
