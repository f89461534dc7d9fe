package framing

import (
	"errors"
	"fmt"
)

// ErrorKind classifies framing errors.
type ErrorKind int

const (
	// ErrorSuccessor indicates inconsistent successor/predecessor bits.
	ErrorSuccessor ErrorKind = iota
	// ErrorShort indicates a declared length the remaining bytes cannot satisfy.
	ErrorShort
	// ErrorTIF indicates a TIF marker that disagrees with the physical record.
	ErrorTIF
	// ErrorHeader indicates a physical or logical record header that cannot be valid.
	ErrorHeader
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorSuccessor:
		return "successor"
	case ErrorShort:
		return "short"
	case ErrorTIF:
		return "tif"
	case ErrorHeader:
		return "header"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a corrupt physical-record or TIF structure at Tell.
// Framing errors are fatal to the file being read.
type Error struct {
	Kind ErrorKind
	Tell int64
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("framing (%s) at %d: %s: %v", e.Kind, e.Tell, e.Msg, e.Err)
	}
	return fmt.Sprintf("framing (%s) at %d: %s", e.Kind, e.Tell, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsFramingError reports whether err is or wraps a *Error.
func IsFramingError(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}

// ErrRecordEnd is returned by Read and Skip when the request runs past the
// end of the current logical record.
var ErrRecordEnd = errors.New("read past end of logical record")

// ErrNoRecord is returned when a record-relative operation is attempted
// before Next or Seek positioned the reader on a logical record.
var ErrNoRecord = errors.New("no current logical record")

// WarningKind classifies conditions absorbed in tolerant modes.
type WarningKind int

const (
	// WarningPadding means bytes between a physical record and the next TIF
	// marker were skipped as alignment padding.
	WarningPadding WarningKind = iota
	// WarningTruncated means the final physical record was shorter than
	// declared and was kept up to end of file.
	WarningTruncated
	// WarningTrailingBytes means bytes too few to form a header were ignored
	// at end of file.
	WarningTrailingBytes
)

func (k WarningKind) String() string {
	switch k {
	case WarningPadding:
		return "padding"
	case WarningTruncated:
		return "truncated"
	case WarningTrailingBytes:
		return "trailing_bytes"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Warning is a framing irregularity the reader absorbed instead of failing.
type Warning struct {
	Kind  WarningKind
	Tell  int64
	Bytes int64
}

func (w Warning) String() string {
	return fmt.Sprintf("%s at %d (%d bytes)", w.Kind, w.Tell, w.Bytes)
}
