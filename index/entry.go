package index

import (
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/justapithecus/strata/types"
)

// Entry is one logical record of a scanned file, in file order.
type Entry interface {
	// Tell is the offset of the record's first physical record.
	Tell() int64
	// Type is the logical record type.
	Type() types.RecordType
	// File is the path of the file the record belongs to.
	File() string
	// Summary is a one-line description for a table of contents.
	Summary() string
}

// Record holds what every entry knows about its logical record.
type Record struct {
	Offset     int64            `json:"tell"`
	RecordType types.RecordType `json:"type"`
	Path       string           `json:"-"`
}

// Tell implements Entry.
func (r Record) Tell() int64 { return r.Offset }

// Type implements Entry.
func (r Record) Type() types.RecordType { return r.RecordType }

// File implements Entry.
func (r Record) File() string { return r.Path }

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (r Record) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("tell", r.Offset)
	enc.AddUint8("type", uint8(r.RecordType))
	enc.AddString("name", r.RecordType.String())
	return nil
}

// Delimiter is a file, tape or reel header or trailer, or a logical tape
// mark. Delimiters close every open log pass.
type Delimiter struct {
	Record
	// FileHeader is set for file headers and trailers.
	FileHeader *FileHeader `json:"file_header,omitempty"`
	// ReelHeader is set for tape and reel headers and trailers.
	ReelHeader *ReelHeader `json:"reel_header,omitempty"`
}

// Name returns the file, tape or reel name, or "" for tape marks.
func (d *Delimiter) Name() string {
	switch {
	case d.FileHeader != nil:
		return d.FileHeader.Name
	case d.ReelHeader != nil:
		return d.ReelHeader.Name
	default:
		return ""
	}
}

// Summary implements Entry.
func (d *Delimiter) Summary() string {
	if name := d.Name(); name != "" {
		return fmt.Sprintf("%s %s", d.RecordType, name)
	}
	return d.RecordType.String()
}

// Table is a component-block table, identified by its first component.
type Table struct {
	Record
	// Name is the value of the first component, e.g. CONS.
	Name   string `json:"name"`
	Length int64  `json:"length"`
}

// Summary implements Entry.
func (t *Table) Summary() string {
	if t.Name == "" {
		return t.RecordType.String()
	}
	return fmt.Sprintf("%s %s", t.RecordType, t.Name)
}

// Unknown is a record of a known type whose payload is not decoded during
// the scan. Index.Payload reads it on demand.
type Unknown struct {
	Record
	Length int64 `json:"length"`
}

// Summary implements Entry.
func (u *Unknown) Summary() string {
	return fmt.Sprintf("%s (%d bytes)", u.RecordType, u.Length)
}

// Passthrough is a record of a type the index has no handler for.
type Passthrough struct {
	Record
	Length int64 `json:"length"`
}

// Summary implements Entry.
func (p *Passthrough) Summary() string {
	return fmt.Sprintf("unhandled %s (%d bytes)", p.RecordType, p.Length)
}
