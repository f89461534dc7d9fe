// Package listest builds synthetic LIS-79 files for tests.
//
//	b := listest.NewBuilder()
//	b.Record(128, listest.FileHeader("TEST.001"))
//	b.Record(64, listest.DFSR{Channels: chans}.Payload())
//	f := b.Reader()
package listest

import (
	"bytes"
	"encoding/binary"

	"github.com/justapithecus/strata/repcode"
)

// Builder assembles physical records, optionally wrapped in TIF markers.
type Builder struct {
	buf      bytes.Buffer
	tif      bool
	maxData  int
	trailers uint16
	pad      int
	prevTIF  uint32
	offsets  []int64
}

// NewBuilder returns a builder writing plain physical records.
func NewBuilder() *Builder {
	return &Builder{}
}

// TIF wraps every following physical record in a TIF marker.
func (b *Builder) TIF() *Builder {
	b.tif = true
	return b
}

// MaxData splits logical records into physical records of at most n data
// bytes. 0 disables splitting.
func (b *Builder) MaxData(n int) *Builder {
	b.maxData = n
	return b
}

// Trailers sets the trailer attribute bits (record number, file number,
// checksum) of every following physical record.
func (b *Builder) Trailers(attrs uint16) *Builder {
	b.trailers = attrs
	return b
}

// Pad inserts n zero bytes after every following physical record and points
// its TIF marker past them.
func (b *Builder) Pad(n int) *Builder {
	b.pad = n
	return b
}

// Record appends a logical record of the given type, split over as many
// physical records as MaxData requires, and returns its offset.
func (b *Builder) Record(typ uint8, payload []byte) int64 {
	return b.RecordAttr(typ, 0, payload)
}

// RecordAttr is Record with an explicit logical record attribute byte.
func (b *Builder) RecordAttr(typ, attr uint8, payload []byte) int64 {
	data := append([]byte{typ, attr}, payload...)
	tell := int64(b.buf.Len())
	b.offsets = append(b.offsets, tell)

	chunks := [][]byte{data}
	if b.maxData > 0 {
		chunks = nil
		for len(data) > b.maxData {
			chunks = append(chunks, data[:b.maxData])
			data = data[b.maxData:]
		}
		chunks = append(chunks, data)
	}
	for i, chunk := range chunks {
		var attrs uint16
		if i > 0 {
			attrs |= 0x0002
		}
		if i < len(chunks)-1 {
			attrs |= 0x0001
		}
		b.Physical(attrs|b.trailers, chunk)
	}
	return tell
}

// Physical appends one physical record with the given attributes. Trailer
// bytes implied by the attributes are appended as zeros.
func (b *Builder) Physical(attrs uint16, data []byte) {
	trailer := 0
	for _, bit := range []uint16{0x0200, 0x0400, 0x3000} {
		if attrs&bit != 0 {
			trailer += 2
		}
	}
	length := 4 + len(data) + trailer
	b.PhysicalRaw(uint16(length), attrs, data, trailer)
}

// PhysicalRaw appends a physical record with an arbitrary declared length,
// for building corrupt files.
func (b *Builder) PhysicalRaw(length, attrs uint16, data []byte, trailer int) {
	if b.tif {
		start := uint32(b.buf.Len())
		next := start + 12 + uint32(4+len(data)+trailer+b.pad)
		b.marker(0, next)
	}
	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[0:2], length)
	binary.BigEndian.PutUint16(hdr[2:4], attrs)
	b.buf.Write(hdr[:])
	b.buf.Write(data)
	b.buf.Write(make([]byte, trailer+b.pad))
}

// TapeMark appends a TIF tape mark.
func (b *Builder) TapeMark() {
	start := uint32(b.buf.Len())
	b.marker(1, start+12)
}

func (b *Builder) marker(typ, next uint32) {
	start := uint32(b.buf.Len())
	var m [12]byte
	binary.LittleEndian.PutUint32(m[0:4], typ)
	binary.LittleEndian.PutUint32(m[4:8], b.prevTIF)
	binary.LittleEndian.PutUint32(m[8:12], next)
	b.buf.Write(m[:])
	b.prevTIF = start
}

// Offsets returns the offsets of the logical records appended so far.
func (b *Builder) Offsets() []int64 {
	return append([]int64(nil), b.offsets...)
}

// Bytes returns the file built so far.
func (b *Builder) Bytes() []byte {
	return append([]byte(nil), b.buf.Bytes()...)
}

// Reader returns a reader over the file built so far.
func (b *Builder) Reader() *bytes.Reader {
	return bytes.NewReader(b.Bytes())
}

// field writes s left-justified and blank-padded to n bytes.
func field(buf *bytes.Buffer, s string, n int) {
	b := []byte(s)
	if len(b) > n {
		b = b[:n]
	}
	buf.Write(b)
	buf.Write(bytes.Repeat([]byte{' '}, n-len(b)))
}

// FileHeader returns a 56-byte file header or trailer payload.
func FileHeader(name string) []byte {
	var buf bytes.Buffer
	field(&buf, name, 10)
	field(&buf, "", 2)
	field(&buf, "STRATA", 6)
	field(&buf, "1.0", 8)
	field(&buf, "26/10/17", 8)
	field(&buf, "", 1)
	field(&buf, " 1024", 5)
	field(&buf, "", 2)
	field(&buf, "LO", 2)
	field(&buf, "", 2)
	field(&buf, "", 10)
	return buf.Bytes()
}

// ReelHeader returns a 126-byte tape or reel header or trailer payload.
func ReelHeader(service, name string) []byte {
	var buf bytes.Buffer
	field(&buf, service, 6)
	field(&buf, "", 6)
	field(&buf, "26/10/17", 8)
	field(&buf, "", 2)
	field(&buf, "ORIG", 4)
	field(&buf, "", 2)
	field(&buf, name, 8)
	field(&buf, "", 2)
	field(&buf, "01", 2)
	field(&buf, "", 2)
	field(&buf, "", 8)
	field(&buf, "", 2)
	field(&buf, "synthetic", 74)
	return buf.Bytes()
}

// Table returns a table payload whose first component names the table.
func Table(name string) []byte {
	var buf bytes.Buffer
	// type, repcode, size, category, mnemonic, units
	buf.Write([]byte{73, 65, 4, 0})
	field(&buf, "TYPE", 4)
	field(&buf, "", 4)
	field(&buf, name, 4)
	// a second component the index must not need
	buf.Write([]byte{0, 65, 4, 0})
	field(&buf, "MNEM", 4)
	field(&buf, "", 4)
	field(&buf, "DEPT", 4)
	return buf.Bytes()
}

// Channel declares one datum spec block.
type Channel struct {
	Mnemonic string
	Units    string
	// Samples per frame; 0 means 1.
	Samples int
	// Code is the representation code; 0 means 68.
	Code repcode.Code
	// Size overrides the channel byte size; 0 derives it from Samples and Code.
	Size int
}

func (c Channel) size() int {
	if c.Size != 0 {
		return c.Size
	}
	n, _ := repcode.Size(c.code())
	return n * c.samples()
}

func (c Channel) samples() int {
	if c.Samples == 0 {
		return 1
	}
	return c.Samples
}

func (c Channel) code() repcode.Code {
	if c.Code == 0 {
		return repcode.F32
	}
	return c.Code
}

// DFSR describes a data format specification record.
type DFSR struct {
	// IFLRType is the data record type the frames are written with.
	IFLRType uint8
	// Indirect records the X axis once per data record ahead of the frames.
	Indirect bool
	// DepthCode is the indirect X representation code; 0 means 68.
	DepthCode repcode.Code
	// Spacing is the frame spacing used to extrapolate an indirect X axis.
	Spacing float64
	// Down declares a down log (entry 4 = 255); the default is up.
	Down bool
	// FrameSize is declared in entry 3 when non-zero.
	FrameSize int
	Channels  []Channel
}

// Payload encodes the entry blocks and datum spec blocks.
func (d DFSR) Payload() []byte {
	var buf bytes.Buffer
	entry := func(typ byte, code repcode.Code, value []byte) {
		buf.Write([]byte{typ, byte(len(value)), byte(code)})
		buf.Write(value)
	}
	entry(1, repcode.Byte, []byte{d.IFLRType})
	if d.FrameSize != 0 {
		v := make([]byte, 2)
		binary.BigEndian.PutUint16(v, uint16(d.FrameSize))
		entry(3, repcode.I16, v)
	}
	direction := byte(1)
	if d.Down {
		direction = 255
	}
	entry(4, repcode.Byte, []byte{direction})
	if d.Spacing != 0 {
		entry(8, repcode.F32, F32(d.Spacing))
		entry(9, repcode.String, []byte(".1IN"))
	}
	entry(12, repcode.F32, F32(-999.25))
	if d.Indirect {
		entry(13, repcode.Byte, []byte{1})
		entry(14, repcode.String, []byte("FT  "))
		code := d.DepthCode
		if code == 0 {
			code = repcode.F32
		}
		entry(15, repcode.Byte, []byte{byte(code)})
	}
	entry(0, repcode.Byte, nil)

	for _, c := range d.Channels {
		field(&buf, c.Mnemonic, 4)
		field(&buf, "TOOL", 6)
		field(&buf, "12345678", 8)
		field(&buf, c.Units, 4)
		buf.Write([]byte{0, 0, 0, 0})
		buf.Write([]byte{0, 1})
		var size [2]byte
		binary.BigEndian.PutUint16(size[:], uint16(c.size()))
		buf.Write(size[:])
		buf.Write([]byte{0, 0})
		buf.Write([]byte{0, byte(c.samples()), byte(c.code())})
		buf.Write(make([]byte, 5))
	}
	return buf.Bytes()
}

// F32 encodes values as representation code 68.
func F32(values ...float64) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(out[4*i:], repcode.Encode68(v))
	}
	return out
}
