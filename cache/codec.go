// Package cache persists built indexes so that rescanning an unchanged file
// can be skipped. A cache file is an 8-byte magic, a 4-byte big-endian format
// version and a snappy-compressed msgpack document. Encoding is lossless:
// a decoded index answers every query the built one does.
package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/strata/framing"
	"github.com/justapithecus/strata/index"
	"github.com/justapithecus/strata/rle"
	"github.com/justapithecus/strata/types"
)

// Magic opens every cache file.
const Magic = "STRATAIX"

// headerSize is the magic and the version.
const headerSize = len(Magic) + 4

// Entry kinds of the document.
const (
	kindDelimiter   = "delimiter"
	kindTable       = "table"
	kindUnknown     = "unknown"
	kindPassthrough = "passthrough"
	kindLogPass     = "log_pass"
)

// ErrorKind classifies cache decoding errors.
type ErrorKind int

const (
	// ErrorMagic indicates a file that is not a cache file.
	ErrorMagic ErrorKind = iota
	// ErrorVersion indicates a cache written by another format version.
	ErrorVersion
	// ErrorDecode indicates a corrupt document.
	ErrorDecode
	// ErrorStale indicates a cache built from another file, another version
	// of the file or with other scan options.
	ErrorStale
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorMagic:
		return "magic"
	case ErrorVersion:
		return "version"
	case ErrorDecode:
		return "decode"
	case ErrorStale:
		return "stale"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error reports a cache file that cannot be used.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cache %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("cache %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsMiss reports whether err means the cache should be rebuilt rather than
// the operation failed.
func IsMiss(err error) bool {
	var cacheErr *Error
	return errors.As(err, &cacheErr)
}

// Key identifies what an index was built from. A cached index is only used
// when every field matches.
type Key struct {
	Path         string          `msgpack:"path"`
	Size         int64           `msgpack:"size"`
	ModTime      int64           `msgpack:"mtime"`
	Framing      framing.Options `msgpack:"framing"`
	XAxisChannel int             `msgpack:"x_axis_channel"`
	Policy       string          `msgpack:"policy"`
}

// NewKey returns the key of a scan of path with opts.
func NewKey(path string, size int64, modTime time.Time, opts index.Options) Key {
	policy := "strict"
	if opts.Policy != nil {
		policy = opts.Policy.Name()
	}
	return Key{
		Path:         path,
		Size:         size,
		ModTime:      modTime.UnixNano(),
		Framing:      opts.Framing,
		XAxisChannel: opts.XAxisChannel,
		Policy:       policy,
	}
}

type document struct {
	Key      Key          `msgpack:"key"`
	Entries  []entryDoc   `msgpack:"entries"`
	Warnings []warningDoc `msgpack:"warnings"`
}

type warningDoc struct {
	Kind  int   `msgpack:"kind"`
	Tell  int64 `msgpack:"tell"`
	Bytes int64 `msgpack:"bytes"`
}

// entryDoc is the union of every entry variant, discriminated by Kind.
type entryDoc struct {
	Kind string `msgpack:"kind"`
	Tell int64  `msgpack:"tell"`
	Type uint8  `msgpack:"type"`

	FileHeader *index.FileHeader `msgpack:"file_header,omitempty"`
	ReelHeader *index.ReelHeader `msgpack:"reel_header,omitempty"`
	Name       string            `msgpack:"name,omitempty"`
	Length     int64             `msgpack:"length,omitempty"`

	Spec     *index.Spec       `msgpack:"spec,omitempty"`
	XChannel int               `msgpack:"x_channel,omitempty"`
	Tells    []rle.Run[int64]   `msgpack:"tells,omitempty"`
	Lengths  []rle.Run[int64]   `msgpack:"lengths,omitempty"`
	Frames   []rle.Run[int64]   `msgpack:"frames,omitempty"`
	X        []rle.Run[float64] `msgpack:"x,omitempty"`
}

// Encode writes idx to w under key.
func Encode(w io.Writer, idx *index.Index, key Key) error {
	doc := document{Key: key}
	for _, e := range idx.Entries() {
		d, err := encodeEntry(e)
		if err != nil {
			return err
		}
		doc.Entries = append(doc.Entries, d)
	}
	for _, warn := range idx.Warnings() {
		doc.Warnings = append(doc.Warnings, warningDoc{Kind: int(warn.Kind), Tell: warn.Tell, Bytes: warn.Bytes})
	}

	payload, err := msgpack.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("cache: encode index: %w", err)
	}

	header := make([]byte, headerSize)
	copy(header, Magic)
	binary.BigEndian.PutUint32(header[len(Magic):], types.CacheVersion)
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("cache: write header: %w", err)
	}
	if _, err := w.Write(snappy.Encode(nil, payload)); err != nil {
		return fmt.Errorf("cache: write document: %w", err)
	}
	return nil
}

func encodeEntry(e index.Entry) (entryDoc, error) {
	d := entryDoc{Tell: e.Tell(), Type: uint8(e.Type())}
	switch v := e.(type) {
	case *index.Delimiter:
		d.Kind = kindDelimiter
		d.FileHeader = v.FileHeader
		d.ReelHeader = v.ReelHeader
	case *index.Table:
		d.Kind = kindTable
		d.Name = v.Name
		d.Length = v.Length
	case *index.Unknown:
		d.Kind = kindUnknown
		d.Length = v.Length
	case *index.Passthrough:
		d.Kind = kindPassthrough
		d.Length = v.Length
	case *index.LogPass:
		d.Kind = kindLogPass
		d.Spec = v.Spec
		d.XChannel = v.XChannel
		d.Tells = v.Tells.Runs()
		d.Lengths = v.Lengths.Runs()
		d.Frames = v.Frames.Runs()
		d.X = v.X.Runs()
	default:
		return entryDoc{}, fmt.Errorf("cache: entry at %d: unsupported type %T", e.Tell(), e)
	}
	return d, nil
}

// Decode reads an index from r. want is the key of the scan the caller would
// otherwise run; a cache written under another key is an ErrorStale Error.
func Decode(r io.Reader, want Key) (*index.Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cache: read: %w", err)
	}
	if len(data) < headerSize || string(data[:len(Magic)]) != Magic {
		return nil, &Error{Kind: ErrorMagic, Msg: "not a strata index cache"}
	}
	if v := binary.BigEndian.Uint32(data[len(Magic):headerSize]); v != types.CacheVersion {
		return nil, &Error{Kind: ErrorVersion, Msg: fmt.Sprintf("format version %d, want %d", v, types.CacheVersion)}
	}

	payload, err := snappy.Decode(nil, data[headerSize:])
	if err != nil {
		return nil, &Error{Kind: ErrorDecode, Msg: "decompress", Err: err}
	}
	var doc document
	if err := msgpack.Unmarshal(payload, &doc); err != nil {
		return nil, &Error{Kind: ErrorDecode, Msg: "unmarshal", Err: err}
	}
	if doc.Key != want {
		return nil, &Error{Kind: ErrorStale, Msg: fmt.Sprintf("built from %s (%d bytes)", doc.Key.Path, doc.Key.Size)}
	}

	entries := make([]index.Entry, 0, len(doc.Entries))
	for i, d := range doc.Entries {
		e, err := decodeEntry(d, doc.Key.Path)
		if err != nil {
			return nil, &Error{Kind: ErrorDecode, Msg: fmt.Sprintf("entry %d", i), Err: err}
		}
		entries = append(entries, e)
	}
	warnings := make([]framing.Warning, 0, len(doc.Warnings))
	for _, w := range doc.Warnings {
		warnings = append(warnings, framing.Warning{Kind: framing.WarningKind(w.Kind), Tell: w.Tell, Bytes: w.Bytes})
	}
	return index.New(doc.Key.Path, doc.Key.Framing, entries, warnings), nil
}

func decodeEntry(d entryDoc, path string) (index.Entry, error) {
	rec := index.Record{Offset: d.Tell, RecordType: types.RecordType(d.Type), Path: path}
	switch d.Kind {
	case kindDelimiter:
		return &index.Delimiter{Record: rec, FileHeader: d.FileHeader, ReelHeader: d.ReelHeader}, nil
	case kindTable:
		return &index.Table{Record: rec, Name: d.Name, Length: d.Length}, nil
	case kindUnknown:
		return &index.Unknown{Record: rec, Length: d.Length}, nil
	case kindPassthrough:
		return &index.Passthrough{Record: rec, Length: d.Length}, nil
	case kindLogPass:
		return decodeLogPass(d, rec)
	default:
		return nil, fmt.Errorf("unknown entry kind %q", d.Kind)
	}
}

func decodeLogPass(d entryDoc, rec index.Record) (*index.LogPass, error) {
	if d.Spec == nil {
		return nil, errors.New("log pass without specification")
	}
	p, err := index.NewLogPass(rec, d.Spec, d.XChannel)
	if err != nil {
		return nil, err
	}
	tells, err := rle.FromRuns(d.Tells)
	if err != nil {
		return nil, err
	}
	lengths, err := rle.FromRuns(d.Lengths)
	if err != nil {
		return nil, err
	}
	frames, err := rle.FromRuns(d.Frames)
	if err != nil {
		return nil, err
	}
	x, err := rle.FromRuns(d.X)
	if err != nil {
		return nil, err
	}
	if err := p.SetTables(tells, lengths, frames, x); err != nil {
		return nil, err
	}
	return p, nil
}
