package reader

import (
	"encoding/json"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/justapithecus/strata/frames"
	"github.com/justapithecus/strata/index"
	"github.com/justapithecus/strata/listest"
	"github.com/justapithecus/strata/metrics"
	"github.com/justapithecus/strata/store"
)

var threeChannels = []listest.Channel{
	{Mnemonic: "DEPT"},
	{Mnemonic: "GR"},
	{Mnemonic: "RES", Samples: 2},
}

func frameBytes(depth float64, n int) []byte {
	var out []byte
	for f := 0; f < n; f++ {
		d := depth + float64(f)
		out = append(out, listest.F32(d, 10*d, d+0.25, d+0.5)...)
	}
	return out
}

func testFile() *listest.Builder {
	b := listest.NewBuilder()
	b.Record(128, listest.FileHeader("TEST.001"))
	b.Record(64, listest.DFSR{Channels: threeChannels}.Payload())
	b.Record(0, frameBytes(100, 4))
	b.Record(0, frameBytes(104, 4))
	return b
}

func build(t *testing.T, b *listest.Builder) *index.Index {
	t.Helper()
	idx, err := index.Build(t.Context(), b.Reader(), "test.lis", index.DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return idx
}

func TestTOC(t *testing.T) {
	b := testFile()
	toc := TOC(build(t, b))

	if toc.File != "test.lis" {
		t.Errorf("File = %q", toc.File)
	}
	if len(toc.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(toc.Entries))
	}
	offsets := b.Offsets()
	want := []struct {
		tell int64
		kind string
	}{
		{offsets[0], store.KindDelimiter},
		{offsets[1], store.KindLogPass},
	}
	for i, w := range want {
		e := toc.Entries[i]
		if e.Index != i || e.Tell != w.tell || e.Kind != w.kind || e.Summary == "" {
			t.Errorf("entry %d = %+v, want tell %d kind %s", i, e, w.tell, w.kind)
		}
	}
	if len(toc.TableRows()) != 2 || len(toc.TableHeader()) != len(toc.TableRows()[0]) {
		t.Error("table rows do not match header")
	}
}

func TestPasses(t *testing.T) {
	idx := build(t, testFile())

	passes := Passes(idx)
	if len(passes) != 1 {
		t.Fatalf("got %d passes, want 1", len(passes))
	}
	p := passes[0]
	if p.Channels != 3 || p.FrameSize != 16 || p.DataRecords != 2 || p.Frames != 8 {
		t.Errorf("pass = %+v", p)
	}
	if p.XFirst == nil || *p.XFirst != 100 || p.XLast == nil || *p.XLast != 104 {
		t.Errorf("X range = %v..%v, want 100..104", p.XFirst, p.XLast)
	}

	d, err := Pass(idx, 0)
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}
	offsets := []int{0, 4, 8}
	for i, c := range d.Channels {
		if c.Mnemonic != threeChannels[i].Mnemonic || c.Offset != offsets[i] {
			t.Errorf("channel %d = %+v, want offset %d", i, c, offsets[i])
		}
	}
	if d.Channels[2].Samples != 2 || d.Channels[2].Size != 8 {
		t.Errorf("RES = %+v, want 2 samples over 8 bytes", d.Channels[2])
	}

	if _, err := Pass(idx, 1); !errors.Is(err, ErrNoPass) {
		t.Errorf("Pass(1) err = %v, want ErrNoPass", err)
	}
}

func TestPlan(t *testing.T) {
	idx := build(t, testFile())

	tests := []struct {
		name      string
		rec       int
		slice     string
		channels  []int
		wantRead  int
		wantSkip  int
		wantSlice string
	}{
		{"all frames all channels", 0, "", nil, 64, 0, "0:4:1"},
		{"one channel", 1, "0:2", []int{1}, 8, -1, "0:2:1"},
		{"stepped", 0, "::2", []int{0}, 8, -1, "0:4:2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Plan(idx, 0, tt.rec, tt.slice, tt.channels)
			if err != nil {
				t.Fatalf("Plan failed: %v", err)
			}
			if resp.BytesRead != tt.wantRead {
				t.Errorf("BytesRead = %d, want %d", resp.BytesRead, tt.wantRead)
			}
			if tt.wantSkip >= 0 && resp.BytesSkipped != tt.wantSkip {
				t.Errorf("BytesSkipped = %d, want %d", resp.BytesSkipped, tt.wantSkip)
			}
			if resp.Slice != tt.wantSlice {
				t.Errorf("Slice = %q, want %q", resp.Slice, tt.wantSlice)
			}
			if resp.Frames != 4 || len(resp.Events) == 0 {
				t.Errorf("Frames = %d, events = %d", resp.Frames, len(resp.Events))
			}
			if len(resp.TableRows()) != len(resp.Events) {
				t.Error("one table row per event expected")
			}
		})
	}

	if _, err := Plan(idx, 0, 2, "", nil); !errors.Is(err, ErrNoRecord) {
		t.Errorf("Plan(record 2) err = %v, want ErrNoRecord", err)
	}
	if _, err := Plan(idx, 0, 0, "0:9", nil); err == nil {
		t.Error("expected error for slice past the record")
	}
}

func TestDump(t *testing.T) {
	b := testFile()
	idx := build(t, b)
	fr, err := frames.NewReader(idx, b.Reader(), nil)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	resp, err := Dump(t.Context(), idx, fr, 0, "1:7:2", []int{2, 0}, false)
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if !slices.Equal(resp.Columns, []string{"RES[0]", "RES[1]", "DEPT"}) {
		t.Errorf("Columns = %v", resp.Columns)
	}
	if len(resp.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(resp.Rows))
	}
	last := resp.Rows[2]
	if last.Frame != 5 || last.X != 105 || !slices.Equal(last.Values, []Value{105.25, 105.5, 105}) {
		t.Errorf("row = %+v", last)
	}
	if got := resp.TableHeader(); len(got) != 5 {
		t.Errorf("header = %v", got)
	}
}

func TestRecordHeaders(t *testing.T) {
	b := testFile()
	headers, err := RecordHeaders(b.Reader(), index.DefaultOptions().Framing, 0)
	if err != nil {
		t.Fatalf("RecordHeaders failed: %v", err)
	}
	offsets := b.Offsets()
	if len(headers) != len(offsets) {
		t.Fatalf("got %d headers, want %d", len(headers), len(offsets))
	}
	types := []int{128, 64, 0, 0}
	for i, h := range headers {
		if h.Tell != offsets[i] || h.Type != types[i] {
			t.Errorf("header %d = %+v", i, h)
		}
	}
	if headers[2].Length != 64 {
		t.Errorf("data record length = %d, want 64", headers[2].Length)
	}

	limited, err := RecordHeaders(b.Reader(), index.DefaultOptions().Framing, 2)
	if err != nil || len(limited) != 2 {
		t.Errorf("limited = %d headers, err %v", len(limited), err)
	}
}

func TestRecordTypes(t *testing.T) {
	items := RecordTypes()
	if len(items) == 0 {
		t.Fatal("no record types")
	}
	for _, it := range items {
		if it.Name == "" || it.Class == "" {
			t.Errorf("incomplete item %+v", it)
		}
	}
}

func TestStats(t *testing.T) {
	s := Stats(metrics.Snapshot{RecordsScanned: 4, RecordsSkipped: 1, FatalErrors: 0, Policy: "keep_going", File: "a.lis"})
	if s.Summary != "1 records skipped, 0 fatal errors" || s.Policy != "keep_going" || s.RecordsScanned != 4 {
		t.Errorf("stats = %+v", s)
	}
}

func TestValue_JSON(t *testing.T) {
	row := DumpRow{Frame: 3, X: 1.5, Values: []Value{2, Value(math.NaN())}}
	b, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"frame":3,"x":1.5,"values":[2,null]}` {
		t.Errorf("got %s", b)
	}

	var back DumpRow
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.X != 1.5 || back.Values[0] != 2 || !math.IsNaN(float64(back.Values[1])) {
		t.Errorf("round trip = %+v", back)
	}
}
