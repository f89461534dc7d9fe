// Package framing strips LIS-79 physical-record and TIF wrapping and exposes
// logical records as byte streams with absolute file offsets.
//
// A logical record may span several physical records. Callers address bytes
// relative to the logical record; physical-record headers, trailers, TIF
// markers and tape marks are consumed transparently. The reader never logs and
// never retries. Irregularities absorbed in tolerant modes are queued as
// Warnings for the caller to report.
package framing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap/zapcore"
)

// Sizes of the fixed wire structures.
const (
	PhysicalHeaderSize = 4
	TIFMarkerSize      = 12
	LogicalHeaderSize  = 2
)

// Physical record attribute bits.
const (
	AttrSuccessor    uint16 = 0x0001
	AttrPredecessor  uint16 = 0x0002
	AttrRecordNumber uint16 = 0x0200
	AttrFileNumber   uint16 = 0x0400
	AttrChecksum     uint16 = 0x3000
)

// TIF marker types.
const (
	TIFData     uint32 = 0
	TIFTapeMark uint32 = 1
)

// Options configures a Reader.
type Options struct {
	// TIF expects a 12-byte TIF marker before every physical record.
	TIF bool
	// PadAlignment tolerates up to PadAlignment-1 bytes of padding between a
	// physical record and the next TIF marker. 0 requires exact markers.
	PadAlignment int
	// BestEffort keeps a final physical record that is shorter than declared
	// and ignores trailing bytes too short to form a header.
	BestEffort bool
}

// TIFMarker is the tape-image marker preceding a physical record.
type TIFMarker struct {
	Type uint32
	Prev uint32
	Next uint32
}

// PhysicalRecord is one physically delimited chunk of a logical record.
type PhysicalRecord struct {
	// Tell is the offset of the record, or of its TIF marker when present.
	Tell       int64
	Length     int
	Attributes uint16
	TIF        *TIFMarker
	// Truncated is set when end of file cut the record short (best effort).
	Truncated bool
}

// Predecessor reports whether the record continues a logical record.
func (p PhysicalRecord) Predecessor() bool { return p.Attributes&AttrPredecessor != 0 }

// Successor reports whether the logical record continues in the next record.
func (p PhysicalRecord) Successor() bool { return p.Attributes&AttrSuccessor != 0 }

// TrailerSize returns the bytes of record number, file number and checksum
// trailing the data.
func (p PhysicalRecord) TrailerSize() int {
	n := 0
	if p.Attributes&AttrRecordNumber != 0 {
		n += 2
	}
	if p.Attributes&AttrFileNumber != 0 {
		n += 2
	}
	if p.Attributes&AttrChecksum != 0 {
		n += 2
	}
	return n
}

// Header is a logical record header.
type Header struct {
	// Tell is the offset of the first physical record of the logical record.
	Tell       int64
	Type       uint8
	Attributes uint8
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (h Header) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("tell", h.Tell)
	enc.AddUint8("type", h.Type)
	enc.AddUint8("attributes", h.Attributes)
	return nil
}

// Reader reads logical records from a seekable LIS stream.
// A Reader is not safe for concurrent use.
type Reader struct {
	rs   io.ReadSeeker
	opts Options
	size int64
	pos  int64

	pr        PhysicalRecord
	remaining int   // unread data bytes in pr
	tail      int64 // trailer and padding after pr's data

	inRecord  bool
	lrTell    int64
	consumed  int64
	truncated bool

	prevTIF  int64 // offset of the previous TIF marker, -1 if unknown
	warnings []Warning
}

// NewReader returns a Reader positioned at the current offset of rs.
func NewReader(rs io.ReadSeeker, opts Options) (*Reader, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("framing: locate stream: %w", err)
	}
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("framing: measure stream: %w", err)
	}
	if _, err := rs.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("framing: rewind stream: %w", err)
	}
	return &Reader{
		rs:      rs,
		opts:    opts,
		size:    size,
		pos:     pos,
		lrTell:  -1,
		prevTIF: -1,
	}, nil
}

// Options returns the options the reader was built with.
func (r *Reader) Options() Options { return r.opts }

// Size returns the stream size in bytes.
func (r *Reader) Size() int64 { return r.size }

// Offset returns the absolute stream position.
func (r *Reader) Offset() int64 { return r.pos }

// Tell returns the offset of the most recent logical record, -1 before the
// first.
func (r *Reader) Tell() int64 { return r.lrTell }

// Consumed returns the bytes of the current logical record read or skipped
// so far, excluding its header.
func (r *Reader) Consumed() int64 { return r.consumed }

// Truncated reports whether end of file cut the current logical record short.
// Only possible with Options.BestEffort.
func (r *Reader) Truncated() bool { return r.truncated }

// Warnings returns and clears the queued warnings.
func (r *Reader) Warnings() []Warning {
	w := r.warnings
	r.warnings = nil
	return w
}

// Next advances to the next logical record and returns its header. Any unread
// remainder of the current record is skipped. Returns io.EOF at clean end of
// file.
func (r *Reader) Next() (Header, error) {
	if r.inRecord {
		if _, err := r.SkipToNext(); err != nil {
			return Header{}, err
		}
	}

	if err := r.readPhysical(); err != nil {
		return Header{}, err
	}
	if r.pr.Predecessor() {
		return Header{}, &Error{
			Kind: ErrorSuccessor,
			Tell: r.pr.Tell,
			Msg:  "logical record starts with predecessor bit set",
		}
	}
	r.inRecord = true
	r.lrTell = r.pr.Tell
	r.consumed = 0
	r.truncated = r.pr.Truncated

	b, err := r.Read(LogicalHeaderSize)
	if err != nil {
		if errors.Is(err, ErrRecordEnd) {
			return Header{}, &Error{
				Kind: ErrorHeader,
				Tell: r.lrTell,
				Msg:  "logical record shorter than its header",
			}
		}
		return Header{}, err
	}
	r.consumed = 0
	return Header{Tell: r.lrTell, Type: b[0], Attributes: b[1]}, nil
}

// Seek repositions the reader on the logical record starting at tell, as
// reported by Header.Tell, and returns its header.
func (r *Reader) Seek(tell int64) (Header, error) {
	if tell < 0 || tell > r.size {
		return Header{}, fmt.Errorf("framing: seek to %d outside stream of %d bytes", tell, r.size)
	}
	if _, err := r.rs.Seek(tell, io.SeekStart); err != nil {
		return Header{}, fmt.Errorf("framing: seek to %d: %w", tell, err)
	}
	r.pos = tell
	r.inRecord = false
	r.prevTIF = -1
	return r.Next()
}

// Rewind returns to the start of the most recent logical record, just after
// its header.
func (r *Reader) Rewind() error {
	if r.lrTell < 0 {
		return ErrNoRecord
	}
	_, err := r.Seek(r.lrTell)
	return err
}

// Read reads n bytes of the current logical record. A short result is
// returned together with ErrRecordEnd when the record ends first.
func (r *Reader) Read(n int) ([]byte, error) {
	if !r.inRecord {
		return nil, ErrNoRecord
	}
	out := make([]byte, n)
	off := 0
	for off < n {
		avail, err := r.fill()
		if err != nil {
			return out[:off], err
		}
		k := min(avail, n-off)
		if err := r.readFull(out[off : off+k]); err != nil {
			return out[:off], err
		}
		r.remaining -= k
		r.consumed += int64(k)
		off += k
	}
	return out, nil
}

// Skip skips n bytes of the current logical record and returns the bytes
// skipped, with ErrRecordEnd if the record ends first.
func (r *Reader) Skip(n int64) (int64, error) {
	if !r.inRecord {
		return 0, ErrNoRecord
	}
	var skipped int64
	for skipped < n {
		avail, err := r.fill()
		if err != nil {
			return skipped, err
		}
		k := min(int64(avail), n-skipped)
		if err := r.discard(k); err != nil {
			return skipped, err
		}
		r.remaining -= int(k)
		r.consumed += k
		skipped += k
	}
	return skipped, nil
}

// ReadRest reads the unread remainder of the current logical record.
func (r *Reader) ReadRest() ([]byte, error) {
	if !r.inRecord {
		return nil, ErrNoRecord
	}
	var out []byte
	for {
		avail, err := r.fill()
		if errors.Is(err, ErrRecordEnd) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		start := len(out)
		out = append(out, make([]byte, avail)...)
		if err := r.readFull(out[start:]); err != nil {
			return out[:start], err
		}
		r.remaining = 0
		r.consumed += int64(avail)
	}
}

// SkipToNext skips the unread remainder of the current logical record,
// leaving the reader at the next record boundary, and returns the bytes
// skipped.
func (r *Reader) SkipToNext() (int64, error) {
	if !r.inRecord {
		return 0, ErrNoRecord
	}
	var skipped int64
	for {
		if r.remaining > 0 {
			if err := r.discard(int64(r.remaining)); err != nil {
				return skipped, err
			}
			skipped += int64(r.remaining)
			r.consumed += int64(r.remaining)
			r.remaining = 0
		}
		if !r.continues() {
			break
		}
		if err := r.continuation(); err != nil {
			return skipped, err
		}
	}
	if err := r.discard(r.tail); err != nil {
		return skipped, err
	}
	r.tail = 0
	r.inRecord = false
	return skipped, nil
}

// fill returns the data bytes available in the current physical record,
// moving into the continuation record when the current one is exhausted.
func (r *Reader) fill() (int, error) {
	for r.remaining == 0 {
		if !r.continues() {
			return 0, ErrRecordEnd
		}
		if err := r.continuation(); err != nil {
			return 0, err
		}
	}
	return r.remaining, nil
}

// continues reports whether the logical record goes on past the current
// physical record. A truncated record ends its logical record.
func (r *Reader) continues() bool {
	return r.pr.Successor() && !r.pr.Truncated
}

// continuation finishes the current physical record and reads the one that
// continues the logical record.
func (r *Reader) continuation() error {
	if err := r.discard(r.tail); err != nil {
		return err
	}
	r.tail = 0
	tell := r.pos
	if err := r.readPhysical(); err != nil {
		if errors.Is(err, io.EOF) {
			return &Error{
				Kind: ErrorSuccessor,
				Tell: tell,
				Msg:  "successor bit set on final physical record",
			}
		}
		return err
	}
	if !r.pr.Predecessor() {
		return &Error{
			Kind: ErrorSuccessor,
			Tell: r.pr.Tell,
			Msg:  "physical record follows a successor but has no predecessor bit",
		}
	}
	if r.pr.Truncated {
		r.truncated = true
	}
	return nil
}

// readPhysical reads the next physical record header, with its TIF marker
// when enabled, and loads it as the current physical record.
func (r *Reader) readPhysical() error {
	var pr PhysicalRecord
	pr.Tell = r.pos

	if r.opts.TIF {
		m, err := r.readMarker()
		if err != nil {
			return err
		}
		pr.Tell = r.pos - TIFMarkerSize
		pr.TIF = &m
	}

	var hdr [PhysicalHeaderSize]byte
	n, err := io.ReadFull(r.rs, hdr[:])
	r.pos += int64(n)
	switch {
	case n == 0 && errors.Is(err, io.EOF) && pr.TIF == nil:
		return io.EOF
	case err != nil && r.opts.BestEffort && pr.TIF == nil:
		r.warn(WarningTrailingBytes, pr.Tell, int64(n))
		return io.EOF
	case err != nil:
		return &Error{Kind: ErrorShort, Tell: pr.Tell, Msg: "truncated physical record header", Err: err}
	}

	pr.Length = int(binary.BigEndian.Uint16(hdr[0:2]))
	pr.Attributes = binary.BigEndian.Uint16(hdr[2:4])
	trailer := pr.TrailerSize()
	if pr.Length < PhysicalHeaderSize+trailer {
		return &Error{
			Kind: ErrorHeader,
			Tell: pr.Tell,
			Msg:  fmt.Sprintf("declared length %d is smaller than header and trailer (%d)", pr.Length, PhysicalHeaderSize+trailer),
		}
	}

	data := pr.Length - PhysicalHeaderSize - trailer
	tail := int64(trailer)
	if avail := r.size - r.pos; avail < int64(pr.Length-PhysicalHeaderSize) {
		if !r.opts.BestEffort {
			return &Error{
				Kind: ErrorShort,
				Tell: pr.Tell,
				Msg:  fmt.Sprintf("declared length %d exceeds %d remaining bytes", pr.Length, avail+PhysicalHeaderSize),
			}
		}
		r.warn(WarningTruncated, pr.Tell, int64(pr.Length-PhysicalHeaderSize)-avail)
		pr.Truncated = true
		data = int(min(avail, int64(data)))
		tail = avail - int64(data)
	}

	if pr.TIF != nil && !pr.Truncated {
		expected := pr.Tell + TIFMarkerSize + int64(pr.Length)
		gap := int64(pr.TIF.Next) - expected
		switch {
		case gap == 0:
		case gap > 0 && gap < int64(r.opts.PadAlignment):
			r.warn(WarningPadding, expected, gap)
			tail += gap
		default:
			return &Error{
				Kind: ErrorTIF,
				Tell: pr.Tell,
				Msg:  fmt.Sprintf("marker points to %d, physical record ends at %d", pr.TIF.Next, expected),
			}
		}
	}

	r.pr = pr
	r.remaining = data
	r.tail = tail
	return nil
}

// readMarker reads TIF markers until a data marker, skipping tape marks.
func (r *Reader) readMarker() (TIFMarker, error) {
	for {
		tell := r.pos
		var buf [TIFMarkerSize]byte
		n, err := io.ReadFull(r.rs, buf[:])
		r.pos += int64(n)
		switch {
		case n == 0 && errors.Is(err, io.EOF):
			return TIFMarker{}, io.EOF
		case err != nil && r.opts.BestEffort:
			r.warn(WarningTrailingBytes, tell, int64(n))
			return TIFMarker{}, io.EOF
		case err != nil:
			return TIFMarker{}, &Error{Kind: ErrorShort, Tell: tell, Msg: "truncated TIF marker", Err: err}
		}

		m := TIFMarker{
			Type: binary.LittleEndian.Uint32(buf[0:4]),
			Prev: binary.LittleEndian.Uint32(buf[4:8]),
			Next: binary.LittleEndian.Uint32(buf[8:12]),
		}
		if r.prevTIF >= 0 && int64(m.Prev) != r.prevTIF {
			return TIFMarker{}, &Error{
				Kind: ErrorTIF,
				Tell: tell,
				Msg:  fmt.Sprintf("previous marker recorded as %d, was %d", m.Prev, r.prevTIF),
			}
		}
		r.prevTIF = tell

		switch m.Type {
		case TIFData:
			return m, nil
		case TIFTapeMark:
			continue
		default:
			return TIFMarker{}, &Error{
				Kind: ErrorTIF,
				Tell: tell,
				Msg:  fmt.Sprintf("unknown marker type %d", m.Type),
			}
		}
	}
}

func (r *Reader) readFull(p []byte) error {
	n, err := io.ReadFull(r.rs, p)
	r.pos += int64(n)
	if err != nil {
		return &Error{Kind: ErrorShort, Tell: r.pos, Msg: "stream ended inside physical record", Err: err}
	}
	return nil
}

func (r *Reader) discard(n int64) error {
	if n == 0 {
		return nil
	}
	if _, err := r.rs.Seek(n, io.SeekCurrent); err != nil {
		return fmt.Errorf("framing: skip %d bytes at %d: %w", n, r.pos, err)
	}
	r.pos += n
	return nil
}

func (r *Reader) warn(kind WarningKind, tell, n int64) {
	r.warnings = append(r.warnings, Warning{Kind: kind, Tell: tell, Bytes: n})
}
