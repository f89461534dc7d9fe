// Package render prints command responses as json, yaml or aligned tables.
//
// Without --format, a terminal gets a table and anything else gets json.
// Responses implementing Table choose their own columns; other structs,
// maps and slices are laid out by reflection over their json names.
// --no-color and NO_COLOR only affect table headers; the TUI styles itself.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/justapithecus/strata/cli/tui"
)

// Format is an output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a --format value. The empty string is returned as is
// so that the caller can pick the default.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatTable, FormatYAML, "":
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Table is implemented by responses with a natural row layout, such as a
// table of contents or decoded frames.
type Table interface {
	TableHeader() []string
	TableRows() [][]string
}

// Renderer writes responses in one format.
type Renderer struct {
	format Format
	color  bool
	out    io.Writer
}

var headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)

// NewRenderer creates a renderer for the app's writer from the --format and
// --no-color flags.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stdout
	if c.App != nil && c.App.Writer != nil {
		out = c.App.Writer
	}
	if format == "" {
		format = FormatJSON
		if isTTY(out) {
			format = FormatTable
		}
	}
	noColor := c.Bool("no-color") || os.Getenv("NO_COLOR") != ""
	return NewRendererWithWriter(format, noColor, out), nil
}

// NewRendererWithWriter creates a renderer over out. Table headers are
// styled when out is a terminal and noColor is unset.
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{format: format, color: !noColor && isTTY(out), out: out}
}

// Render writes data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		return r.renderTable(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderTUI runs the interactive view for viewType over data.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s", viewType)
	}
	return tui.Run(viewType, data)
}

func (r *Renderer) renderTable(data any) error {
	if t, ok := data.(Table); ok {
		return r.writeRows(t.TableHeader(), t.TableRows())
	}

	v := reflect.Indirect(reflect.ValueOf(data))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		header, rows := sliceRows(v)
		return r.writeRows(header, rows)
	case reflect.Struct, reflect.Map:
		return r.writeFields(fieldRows(v))
	default:
		_, err := fmt.Fprintln(r.out, data)
		return err
	}
}

// writeRows prints a header line and rows aligned in columns.
func (r *Renderer) writeRows(header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(r.out, "(no results)")
		return err
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	// Style the header only after alignment; escape codes have no width.
	first, rest, _ := strings.Cut(buf.String(), "\n")
	if r.color {
		first = headerStyle.Render(strings.TrimRight(first, " "))
	}
	_, err := fmt.Fprintf(r.out, "%s\n%s", first, rest)
	return err
}

// writeFields prints name: value pairs.
func (r *Renderer) writeFields(fields [][2]string) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(w, "%s:\t%s\n", f[0], f[1])
	}
	return w.Flush()
}

// sliceRows lays out a slice of structs or maps with one column per field
// or key of its first element.
func sliceRows(v reflect.Value) ([]string, [][]string) {
	if v.Len() == 0 {
		return nil, nil
	}
	header := columns(reflect.Indirect(v.Index(0)))
	rows := make([][]string, 0, v.Len())
	for i := range v.Len() {
		e := reflect.Indirect(v.Index(i))
		row := make([]string, len(header))
		switch e.Kind() {
		case reflect.Struct:
			for j := range e.NumField() {
				if j < len(row) {
					row[j] = formatValue(e.Field(j))
				}
			}
		case reflect.Map:
			for j, h := range header {
				row[j] = formatValue(e.MapIndex(reflect.ValueOf(h)))
			}
		default:
			row = []string{formatValue(e)}
		}
		rows = append(rows, row)
	}
	return header, rows
}

func columns(v reflect.Value) []string {
	switch v.Kind() {
	case reflect.Struct:
		out := make([]string, v.NumField())
		for i := range out {
			out[i] = fieldName(v.Type().Field(i))
		}
		return out
	case reflect.Map:
		var out []string
		for _, k := range sortedKeys(v) {
			out = append(out, fmt.Sprint(k.Interface()))
		}
		return out
	default:
		return []string{"value"}
	}
}

// fieldRows lists the fields of a struct or the sorted entries of a map.
func fieldRows(v reflect.Value) [][2]string {
	var out [][2]string
	if v.Kind() == reflect.Map {
		for _, k := range sortedKeys(v) {
			out = append(out, [2]string{fmt.Sprint(k.Interface()), formatValue(v.MapIndex(k))})
		}
		return out
	}
	for i := range v.NumField() {
		out = append(out, [2]string{fieldName(v.Type().Field(i)), formatValue(v.Field(i))})
	}
	return out
}

// fieldName is the json name of f, or its lowercased Go name.
func fieldName(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return strings.ToLower(f.Name)
}

// formatValue prints scalars as is and summarizes collections, which have
// no room in a table cell.
func formatValue(v reflect.Value) string {
	if !v.IsValid() || !v.CanInterface() {
		return ""
	}
	if v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "[]"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "{}"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String()
		}
		return "{...}"
	default:
		return fmt.Sprint(v.Interface())
	}
}

// sortedKeys returns map keys in a stable order.
func sortedKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return strings.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	})
	return keys
}

// isTTY reports whether out is a terminal.
func isTTY(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
