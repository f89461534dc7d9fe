package reader

import (
	"fmt"
	"math"
	"strconv"
)

// TOCEntry is one row of a table of contents.
type TOCEntry struct {
	Index   int    `json:"index"`
	Tell    int64  `json:"tell"`
	Type    int    `json:"type"`
	Kind    string `json:"kind"`
	Summary string `json:"summary"`
}

// FileTOC is the table of contents of one indexed file.
type FileTOC struct {
	File     string     `json:"file"`
	Entries  []TOCEntry `json:"entries"`
	Warnings []string   `json:"warnings,omitempty"`
}

// TableHeader implements render.Table.
func (t *FileTOC) TableHeader() []string {
	return []string{"#", "TELL", "TYPE", "KIND", "SUMMARY"}
}

// TableRows implements render.Table.
func (t *FileTOC) TableRows() [][]string {
	rows := make([][]string, 0, len(t.Entries))
	for _, e := range t.Entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Index),
			strconv.FormatInt(e.Tell, 10),
			strconv.Itoa(e.Type),
			e.Kind,
			e.Summary,
		})
	}
	return rows
}

// PassInfo describes one log pass.
type PassInfo struct {
	Pass        int      `json:"pass"`
	Tell        int64    `json:"tell"`
	IFLRType    int      `json:"iflr_type"`
	Channels    int      `json:"channels"`
	FrameSize   int      `json:"frame_size"`
	DataRecords int      `json:"data_records"`
	Frames      int64    `json:"frames"`
	Indirect    bool     `json:"indirect"`
	XChannel    int      `json:"x_channel"`
	XFirst      *float64 `json:"x_first,omitempty"`
	XLast       *float64 `json:"x_last,omitempty"`
	Step        float64  `json:"step,omitempty"`
	DepthUnits  string   `json:"depth_units,omitempty"`
}

// ChannelInfo describes one channel of a log pass.
type ChannelInfo struct {
	Index     int    `json:"index"`
	Mnemonic  string `json:"mnemonic"`
	ServiceID string `json:"service_id"`
	Units     string `json:"units"`
	Size      int    `json:"size"`
	Samples   int    `json:"samples"`
	RepCode   int    `json:"repcode"`
	Offset    int    `json:"offset"`
}

// PassDetail is a log pass with its channels.
type PassDetail struct {
	PassInfo
	Channels []ChannelInfo `json:"channel_list"`
}

// EventItem is one addressing event.
type EventItem struct {
	Kind     string `json:"kind"`
	Size     int    `json:"size"`
	Frame    int    `json:"frame"`
	Channels string `json:"channels"`
}

// PlanResponse is the event stream of one data record.
type PlanResponse struct {
	File     string      `json:"file"`
	Pass     int         `json:"pass"`
	Record   int         `json:"record"`
	Tell     int64       `json:"tell"`
	Frames   int64       `json:"frames"`
	Slice    string      `json:"slice"`
	Channels []int       `json:"channels"`
	Events   []EventItem `json:"events"`
	// BytesRead and BytesSkipped sum the Read and Skip events.
	BytesRead    int `json:"bytes_read"`
	BytesSkipped int `json:"bytes_skipped"`
	Extrapolated int `json:"frames_extrapolated"`
}

// TableHeader implements render.Table.
func (p *PlanResponse) TableHeader() []string {
	return []string{"KIND", "SIZE", "FRAME", "CHANNELS"}
}

// TableRows implements render.Table.
func (p *PlanResponse) TableRows() [][]string {
	rows := make([][]string, 0, len(p.Events))
	for _, e := range p.Events {
		frame := "-"
		if e.Frame >= 0 {
			frame = strconv.Itoa(e.Frame)
		}
		rows = append(rows, []string{e.Kind, strconv.Itoa(e.Size), frame, e.Channels})
	}
	return rows
}

// Value is a decoded sample. NaN, which marks an absent or undecodable
// value, is encoded as JSON null.
type Value float64

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value(math.NaN())
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid value %s: %w", b, err)
	}
	*v = Value(f)
	return nil
}

// DumpRow is one decoded frame.
type DumpRow struct {
	Frame  int64   `json:"frame"`
	X      Value   `json:"x"`
	Values []Value `json:"values"`
}

// DumpResponse holds decoded samples. Columns names every value of a row;
// a channel with several samples contributes one column per sample.
type DumpResponse struct {
	File    string    `json:"file"`
	Pass    int       `json:"pass"`
	Slice   string    `json:"slice"`
	Columns []string  `json:"columns"`
	Rows    []DumpRow `json:"rows"`
}

// TableHeader implements render.Table.
func (d *DumpResponse) TableHeader() []string {
	return append([]string{"FRAME", "X"}, d.Columns...)
}

// TableRows implements render.Table.
func (d *DumpResponse) TableRows() [][]string {
	rows := make([][]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		row := make([]string, 0, 2+len(r.Values))
		row = append(row, strconv.FormatInt(r.Frame, 10), formatFloat(float64(r.X)))
		for _, v := range r.Values {
			row = append(row, formatFloat(float64(v)))
		}
		rows = append(rows, row)
	}
	return rows
}

// ScanResult is the outcome of indexing one file.
type ScanResult struct {
	File           string `json:"file"`
	ScanID         string `json:"scan_id"`
	Outcome        string `json:"outcome"`
	Cached         bool   `json:"cached"`
	Entries        int    `json:"entries"`
	LogPasses      int    `json:"log_passes"`
	Frames         int64  `json:"frames"`
	RecordsSkipped int64  `json:"records_skipped"`
	FatalErrors    int64  `json:"fatal_errors"`
	Summary        string `json:"summary"`
	Error          string `json:"error,omitempty"`
	DurationMs     int64  `json:"duration_ms"`
}

// ScanStats are the counters of one scan.
type ScanStats struct {
	File            string           `json:"file"`
	ScanID          string           `json:"scan_id"`
	Policy          string           `json:"policy"`
	RecordsScanned  int64            `json:"records_scanned"`
	RecordsByClass  map[string]int64 `json:"records_by_class"`
	LogPasses       int64            `json:"log_passes"`
	DataRecords     int64            `json:"data_records"`
	FramesIndexed   int64            `json:"frames_indexed"`
	FramingWarnings int64            `json:"framing_warnings"`
	RecordsSkipped  int64            `json:"records_skipped"`
	SkippedByClass  map[string]int64 `json:"skipped_by_class,omitempty"`
	FatalErrors     int64            `json:"fatal_errors"`
	Summary         string           `json:"summary"`
}

// StoredScan is a scan read back from the table of contents store.
type StoredScan struct {
	ScanID      string     `json:"scan_id"`
	File        string     `json:"file"`
	Path        string     `json:"path"`
	Outcome     string     `json:"outcome"`
	CompletedAt string     `json:"completed_at"`
	Version     string     `json:"version"`
	Frames      int64      `json:"frames_indexed"`
	Summary     string     `json:"summary"`
	Entries     []TOCEntry `json:"entries"`
}

// RecordTypeItem describes one logical record type.
type RecordTypeItem struct {
	Type  int    `json:"type"`
	Name  string `json:"name"`
	Class string `json:"class"`
}

// RecordHeaderItem is one logical record as the framing layer sees it.
type RecordHeaderItem struct {
	Tell       int64  `json:"tell"`
	Type       int    `json:"type"`
	Name       string `json:"name"`
	Class      string `json:"class"`
	Attributes int    `json:"attributes"`
	Length     int64  `json:"length"`
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
