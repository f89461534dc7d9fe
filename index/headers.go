package index

import (
	"strconv"
	"strings"

	"github.com/justapithecus/strata/types"
)

// FileHeader holds the fields of a file header or trailer.
type FileHeader struct {
	Name            string `json:"name" msgpack:"name"`
	ServiceSublevel string `json:"service_sublevel" msgpack:"service_sublevel"`
	Version         string `json:"version" msgpack:"version"`
	Date            string `json:"date" msgpack:"date"`
	MaxPhysical     int    `json:"max_physical" msgpack:"max_physical"`
	FileType        string `json:"file_type" msgpack:"file_type"`
	// Adjacent is the previous file name in a header, the next in a trailer.
	Adjacent string `json:"adjacent" msgpack:"adjacent"`
}

// ReelHeader holds the fields of a tape or reel header or trailer.
type ReelHeader struct {
	ServiceName  string `json:"service_name" msgpack:"service_name"`
	Date         string `json:"date" msgpack:"date"`
	Origin       string `json:"origin" msgpack:"origin"`
	Name         string `json:"name" msgpack:"name"`
	Continuation int    `json:"continuation" msgpack:"continuation"`
	// Adjacent is the previous name in a header, the next in a trailer.
	Adjacent string `json:"adjacent" msgpack:"adjacent"`
	Comment  string `json:"comment" msgpack:"comment"`
}

// fixed reads blank-padded ASCII fields from a fixed layout. Fields past the
// end of a short payload read as empty.
type fixed struct {
	b   []byte
	off int
}

func (f *fixed) str(n int) string {
	start := min(f.off, len(f.b))
	end := min(f.off+n, len(f.b))
	f.off += n
	return strings.TrimSpace(string(f.b[start:end]))
}

func (f *fixed) num(n int) int {
	v, err := strconv.Atoi(f.str(n))
	if err != nil {
		return 0
	}
	return v
}

func (f *fixed) skip(n int) { f.off += n }

// FileHeaderSize and ReelHeaderSize are the payload sizes of the header records.
const (
	FileHeaderSize = 56
	ReelHeaderSize = 126
)

// parseFileHeader decodes the 56-byte payload of record types 128 and 129.
func parseFileHeader(b []byte) *FileHeader {
	f := &fixed{b: b}
	h := &FileHeader{}
	h.Name = f.str(10)
	f.skip(2)
	h.ServiceSublevel = f.str(6)
	h.Version = f.str(8)
	h.Date = f.str(8)
	f.skip(1)
	h.MaxPhysical = f.num(5)
	f.skip(2)
	h.FileType = f.str(2)
	f.skip(2)
	h.Adjacent = f.str(10)
	return h
}

// parseReelHeader decodes the 126-byte payload of record types 130 to 133.
func parseReelHeader(b []byte) *ReelHeader {
	f := &fixed{b: b}
	h := &ReelHeader{}
	h.ServiceName = f.str(6)
	f.skip(6)
	h.Date = f.str(8)
	f.skip(2)
	h.Origin = f.str(4)
	f.skip(2)
	h.Name = f.str(8)
	f.skip(2)
	h.Continuation = f.num(2)
	f.skip(2)
	h.Adjacent = f.str(8)
	f.skip(2)
	h.Comment = f.str(74)
	return h
}

// parseDelimiter fills the header fields a delimiter of type rt carries.
func parseDelimiter(d *Delimiter, rt types.RecordType, payload []byte) {
	switch rt {
	case types.RecordFileHeader, types.RecordFileTrailer:
		d.FileHeader = parseFileHeader(payload)
	case types.RecordTapeHeader, types.RecordTapeTrailer,
		types.RecordReelHeader, types.RecordReelTrailer:
		d.ReelHeader = parseReelHeader(payload)
	}
}

// componentHeaderSize is type, repcode, size, category, mnemonic and units.
const componentHeaderSize = 12

// tableName returns the value of the first component block of a table
// payload, or "" if the payload holds no complete component.
func tableName(b []byte) string {
	if len(b) < componentHeaderSize {
		return ""
	}
	size := int(b[2])
	if len(b) < componentHeaderSize+size {
		return ""
	}
	return strings.TrimSpace(string(b[componentHeaderSize : componentHeaderSize+size]))
}
