// Package repcode implements the LIS-79 representation codes needed to size
// channels and decode X-axis values.
package repcode

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Code is a LIS representation code.
type Code uint8

// Representation codes.
const (
	F16      Code = 49  // 16-bit floating point
	F32Low   Code = 50  // 32-bit low resolution floating point
	I8       Code = 56  // 8-bit two's complement integer
	String   Code = 65  // alphanumeric, variable length
	Byte     Code = 66  // 8-bit unsigned
	F32      Code = 68  // 32-bit floating point
	Fixed32  Code = 70  // 32-bit fixed point
	I32      Code = 73  // 32-bit two's complement integer
	Mask     Code = 77  // 8-bit mask
	I16      Code = 79  // 16-bit two's complement integer
	Blank    Code = 234 // blank, variable length
)

var sizes = map[Code]int{
	F16:     2,
	F32Low:  4,
	I8:      1,
	Byte:    1,
	F32:     4,
	Fixed32: 4,
	I32:     4,
	Mask:    1,
	I16:     2,
}

// Size returns the fixed width in bytes of a single value of code c.
// Variable-length codes report ok=false.
func Size(c Code) (int, bool) {
	n, ok := sizes[c]
	return n, ok
}

// IsNumeric reports whether values of code c decode to numbers.
func IsNumeric(c Code) bool {
	switch c {
	case F16, F32Low, I8, Byte, F32, Fixed32, I32, I16:
		return true
	default:
		return false
	}
}

// UnsupportedError is returned when decoding a code that is not numeric.
type UnsupportedError struct {
	Code Code
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("representation code %d cannot be decoded as a number", e.Code)
}

// ShortError is returned when fewer bytes than the code's width are supplied.
type ShortError struct {
	Code Code
	Want int
	Got  int
}

func (e *ShortError) Error() string {
	return fmt.Sprintf("representation code %d needs %d bytes, got %d", e.Code, e.Want, e.Got)
}

// Decode interprets the leading bytes of b as one value of code c.
func Decode(c Code, b []byte) (float64, error) {
	n, ok := sizes[c]
	if !ok || !IsNumeric(c) {
		return 0, &UnsupportedError{Code: c}
	}
	if len(b) < n {
		return 0, &ShortError{Code: c, Want: n, Got: len(b)}
	}
	switch c {
	case F16:
		return decode49(binary.BigEndian.Uint16(b)), nil
	case F32Low:
		exp := int16(binary.BigEndian.Uint16(b[0:2]))
		frac := int16(binary.BigEndian.Uint16(b[2:4]))
		return math.Ldexp(float64(frac)/(1<<15), int(exp)), nil
	case I8:
		return float64(int8(b[0])), nil
	case Byte:
		return float64(b[0]), nil
	case F32:
		return decode68(binary.BigEndian.Uint32(b)), nil
	case Fixed32:
		return float64(int32(binary.BigEndian.Uint32(b))) / (1 << 16), nil
	case I32:
		return float64(int32(binary.BigEndian.Uint32(b))), nil
	case I16:
		return float64(int16(binary.BigEndian.Uint16(b))), nil
	}
	return 0, &UnsupportedError{Code: c}
}

// DecodeAll decodes consecutive values of code c filling b.
func DecodeAll(c Code, b []byte) ([]float64, error) {
	n, ok := sizes[c]
	if !ok || !IsNumeric(c) {
		return nil, &UnsupportedError{Code: c}
	}
	if len(b)%n != 0 {
		return nil, &ShortError{Code: c, Want: (len(b)/n + 1) * n, Got: len(b)}
	}
	out := make([]float64, 0, len(b)/n)
	for i := 0; i < len(b); i += n {
		v, err := Decode(c, b[i:i+n])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// decode49 interprets a 12-bit two's complement fraction followed by a
// 4-bit exponent.
func decode49(u uint16) float64 {
	frac := int16(u) >> 4
	exp := int(u & 0x000F)
	return math.Ldexp(float64(frac)/(1<<11), exp)
}

// decode68 interprets the LIS 32-bit float: a sign bit, an excess-128
// exponent and a 23-bit fraction, with negative values stored as the two's
// complement of the positive encoding.
func decode68(u uint32) float64 {
	negative := u&0x80000000 != 0
	exp := int((u >> 23) & 0xFF)
	frac := u & 0x007FFFFF
	if negative {
		exp = int(^uint8(exp))
		frac = (^frac + 1) & 0x007FFFFF
		if frac == 0 {
			frac = 0x00800000
		}
	}
	v := math.Ldexp(float64(frac)/(1<<23), exp-128)
	if negative {
		return -v
	}
	return v
}

// Encode68 produces the LIS 32-bit float encoding of v. It is used to build
// fixtures and is the inverse of Decode for values representable in 24 bits
// of mantissa.
func Encode68(v float64) uint32 {
	if v == 0 {
		return 0x40000000
	}
	negative := v < 0
	frac, exp := math.Frexp(math.Abs(v))
	mant := uint32(math.Round(frac * (1 << 23)))
	if mant == 1<<23 {
		mant >>= 1
		exp++
	}
	e := uint32(exp+128) & 0xFF
	if !negative {
		return e<<23 | mant&0x007FFFFF
	}
	return 0x80000000 | (^e&0xFF)<<23 | ((^mant + 1) & 0x007FFFFF)
}
