package reader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/justapithecus/strata/frames"
	"github.com/justapithecus/strata/frameset"
	"github.com/justapithecus/strata/framing"
	"github.com/justapithecus/strata/index"
	"github.com/justapithecus/strata/metrics"
	"github.com/justapithecus/strata/store"
	"github.com/justapithecus/strata/types"
)

// ErrNoPass is returned when a log pass number is out of range.
var ErrNoPass = errors.New("no such log pass")

// ErrNoRecord is returned when a data record number is out of range.
var ErrNoRecord = errors.New("no such data record")

// TOC builds the table of contents of idx.
func TOC(idx *index.Index) *FileTOC {
	toc := &FileTOC{File: idx.Path(), Entries: make([]TOCEntry, 0, idx.Len())}
	for i, e := range idx.Entries() {
		toc.Entries = append(toc.Entries, TOCEntry{
			Index:   i,
			Tell:    e.Tell(),
			Type:    int(e.Type()),
			Kind:    store.EntryKind(e),
			Summary: e.Summary(),
		})
	}
	for _, w := range idx.Warnings() {
		toc.Warnings = append(toc.Warnings, w.String())
	}
	return toc
}

// Passes lists the log passes of idx in file order.
func Passes(idx *index.Index) []PassInfo {
	passes := idx.LogPasses()
	out := make([]PassInfo, 0, len(passes))
	for i, p := range passes {
		out = append(out, passInfo(i, p))
	}
	return out
}

// Pass describes log pass n of idx with its channels.
func Pass(idx *index.Index, n int) (*PassDetail, error) {
	p, err := logPass(idx, n)
	if err != nil {
		return nil, err
	}
	d := &PassDetail{PassInfo: passInfo(n, p), Channels: make([]ChannelInfo, 0, len(p.Spec.Channels))}
	for i, c := range p.Spec.Channels {
		off, err := p.Plan().ChannelOffset(0, i)
		if err != nil {
			return nil, err
		}
		d.Channels = append(d.Channels, ChannelInfo{
			Index:     i,
			Mnemonic:  c.Mnemonic,
			ServiceID: c.ServiceID,
			Units:     c.Units,
			Size:      c.Size,
			Samples:   c.Samples,
			RepCode:   int(c.Code),
			Offset:    off,
		})
	}
	return d, nil
}

func passInfo(n int, p *index.LogPass) PassInfo {
	info := PassInfo{
		Pass:        n,
		Tell:        p.Tell(),
		IFLRType:    int(p.Spec.IFLRType),
		Channels:    len(p.Spec.Channels),
		FrameSize:   p.Plan().FrameSize(),
		DataRecords: p.NumRecords(),
		Frames:      p.NumFrames(),
		Indirect:    p.Spec.Indirect(),
		XChannel:    p.XChannel,
		Step:        p.Spec.Step(),
		DepthUnits:  p.Spec.DepthUnits,
	}
	if v, ok := p.X.First(); ok {
		info.XFirst = &v
	}
	if v, ok := p.X.Last(); ok {
		info.XLast = &v
	}
	return info
}

func logPass(idx *index.Index, n int) (*index.LogPass, error) {
	passes := idx.LogPasses()
	if n < 0 || n >= len(passes) {
		return nil, fmt.Errorf("%w: %d (file has %d)", ErrNoPass, n, len(passes))
	}
	return passes[n], nil
}

// Plan computes the addressing events for reading channels over the frames
// of data record rec of log pass n. slice uses start:stop:step syntax over
// the frames of that record; empty selects all of them.
func Plan(idx *index.Index, n, rec int, slice string, channels []int) (*PlanResponse, error) {
	p, err := logPass(idx, n)
	if err != nil {
		return nil, err
	}

	var target *index.DataRecord
	for i, dr := range p.DataRecords() {
		if i == rec {
			target = &dr
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %d (pass has %d)", ErrNoRecord, rec, p.NumRecords())
	}

	s, err := frameset.ParseSlice(slice, int(target.Frames))
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		channels = allChannels(len(p.Spec.Channels))
	}
	stream, err := p.Events(s, channels)
	if err != nil {
		return nil, err
	}

	resp := &PlanResponse{
		File:     idx.Path(),
		Pass:     n,
		Record:   rec,
		Tell:     target.Tell,
		Frames:   target.Frames,
		Slice:    s.String(),
		Channels: channels,
		Events:   []EventItem{},
	}
	for ev := range stream.All() {
		resp.Events = append(resp.Events, EventItem{
			Kind:     ev.Kind.String(),
			Size:     ev.Size,
			Frame:    ev.Frame,
			Channels: ev.Label(),
		})
		switch ev.Kind {
		case frameset.Read:
			resp.BytesRead += ev.Size
		case frameset.Skip:
			resp.BytesSkipped += ev.Size
		case frameset.Extrapolate:
			resp.Extrapolated++
		}
	}
	return resp, nil
}

// Dump decodes channels of log pass n over the frames selected by slice,
// numbered across the whole pass.
func Dump(ctx context.Context, idx *index.Index, fr *frames.Reader, n int, slice string, channels []int, maskAbsent bool) (*DumpResponse, error) {
	p, err := logPass(idx, n)
	if err != nil {
		return nil, err
	}
	s, err := frameset.ParseSlice(slice, int(p.NumFrames()))
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		channels = allChannels(len(p.Spec.Channels))
	}

	res, err := fr.Read(ctx, p, frames.Request{Channels: channels, Slice: s, MaskAbsent: maskAbsent})
	if err != nil {
		return nil, err
	}

	resp := &DumpResponse{File: idx.Path(), Pass: n, Slice: s.String(), Rows: make([]DumpRow, 0, len(res.Frames))}
	for _, c := range res.Curves {
		if c.Width == 1 {
			resp.Columns = append(resp.Columns, c.Channel.Mnemonic)
			continue
		}
		for j := range c.Width {
			resp.Columns = append(resp.Columns, fmt.Sprintf("%s[%d]", c.Channel.Mnemonic, j))
		}
	}
	for i, f := range res.Frames {
		row := DumpRow{Frame: f, X: Value(res.X[i]), Values: make([]Value, 0, len(resp.Columns))}
		for j := range res.Curves {
			for _, v := range res.Curves[j].Frame(i) {
				row.Values = append(row.Values, Value(v))
			}
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp, nil
}

func allChannels(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Stats converts a metrics snapshot.
func Stats(snap metrics.Snapshot) *ScanStats {
	return &ScanStats{
		File:            snap.File,
		ScanID:          snap.ScanID,
		Policy:          snap.Policy,
		RecordsScanned:  snap.RecordsScanned,
		RecordsByClass:  snap.RecordsByClass,
		LogPasses:       snap.LogPasses,
		DataRecords:     snap.DataRecords,
		FramesIndexed:   snap.FramesIndexed,
		FramingWarnings: snap.FramingWarnings,
		RecordsSkipped:  snap.RecordsSkipped,
		SkippedByClass:  snap.SkippedByClass,
		FatalErrors:     snap.FatalErrors,
		Summary:         snap.Summary(),
	}
}

// RecordTypes lists the known logical record types.
func RecordTypes() []RecordTypeItem {
	rts := types.RecordTypes()
	out := make([]RecordTypeItem, 0, len(rts))
	for _, rt := range rts {
		out = append(out, RecordTypeItem{Type: int(rt), Name: rt.String(), Class: rt.Class().String()})
	}
	return out
}

// RecordHeaders walks the logical record headers of a file without
// interpreting any payload. limit <= 0 lists every record.
func RecordHeaders(rs io.ReadSeeker, opts framing.Options, limit int) ([]RecordHeaderItem, error) {
	r, err := framing.NewReader(rs, opts)
	if err != nil {
		return nil, err
	}
	var out []RecordHeaderItem
	for limit <= 0 || len(out) < limit {
		h, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, err
		}
		if _, err := r.SkipToNext(); err != nil {
			return out, err
		}
		rt := types.RecordType(h.Type)
		out = append(out, RecordHeaderItem{
			Tell:       h.Tell,
			Type:       int(h.Type),
			Name:       rt.String(),
			Class:      rt.Class().String(),
			Attributes: int(h.Attributes),
			Length:     r.Consumed(),
		})
	}
	return out, nil
}
