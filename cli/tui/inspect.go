package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/strata/cli/reader"
)

// chrome is the number of lines around the scrolling body.
const chrome = 4

// InspectModel is a Bubble Tea model for inspect views. Long bodies, such
// as the table of contents of a large file, scroll in a viewport.
type InspectModel struct {
	viewType string
	data     any
	width    int
	height   int
	viewport viewport.Model
	ready    bool
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h := max(msg.Height-chrome, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.viewport.SetContent(m.body())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = h
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	content := m.body()
	help := "Press q or Ctrl+C to quit"
	if m.ready {
		content = m.viewport.View()
		help = fmt.Sprintf("↑/↓ scroll • %3.f%% • q quit", m.viewport.ScrollPercent()*100)
	}
	return m.title() + "\n" + content + "\n" + HelpStyle.Render(help)
}

func (m InspectModel) title() string {
	switch data := m.data.(type) {
	case *reader.FileTOC:
		return TitleStyle.Render(fmt.Sprintf("%s (%d records)", data.File, len(data.Entries)))
	case *reader.PassDetail:
		return TitleStyle.Render(fmt.Sprintf("Log pass %d", data.Pass))
	default:
		return TitleStyle.Render(m.viewType)
	}
}

func (m InspectModel) body() string {
	switch m.viewType {
	case "inspect_file":
		return m.renderFile()
	case "inspect_pass":
		return m.renderPass()
	default:
		return fmt.Sprintf("Unknown view type: %s", m.viewType)
	}
}

func (m InspectModel) renderFile() string {
	data, ok := m.data.(*reader.FileTOC)
	if !ok {
		return "Invalid data type for inspect_file"
	}

	var b strings.Builder
	for _, e := range data.Entries {
		b.WriteString(fmt.Sprintf("%5d %s %s\n",
			e.Index,
			LabelStyle.Render(fmt.Sprintf("@%d", e.Tell)),
			KindStyle(e.Kind).Render(e.Summary)))
	}
	if len(data.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render(fmt.Sprintf("%d framing warnings", len(data.Warnings))))
		b.WriteString("\n")
		for _, w := range data.Warnings {
			b.WriteString(fmt.Sprintf("  • %s\n", w))
		}
	}
	return b.String()
}

func (m InspectModel) renderPass() string {
	data, ok := m.data.(*reader.PassDetail)
	if !ok {
		return "Invalid data type for inspect_pass"
	}

	var b strings.Builder
	rows := [][]string{
		{"Tell", fmt.Sprintf("%d", data.Tell)},
		{"Data type", fmt.Sprintf("%d", data.IFLRType)},
		{"Frame size", fmt.Sprintf("%d bytes", data.FrameSize)},
		{"Records", fmt.Sprintf("%d", data.DataRecords)},
		{"Frames", fmt.Sprintf("%d", data.Frames)},
		{"Indirect X", fmt.Sprintf("%t", data.Indirect)},
	}
	if data.XFirst != nil && data.XLast != nil {
		rows = append(rows, []string{"X range", fmt.Sprintf("%g .. %g %s", *data.XFirst, *data.XLast, data.DepthUnits)})
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render(row[0]+":"), ValueStyle.Render(row[1])))
	}

	b.WriteString("\n")
	for _, c := range data.Channels {
		name := c.Mnemonic
		if c.Index == data.XChannel {
			name = SuccessStyle.Render(name + " (X)")
		}
		b.WriteString(fmt.Sprintf("%3d %-12s %-6s %3d bytes × %d  repcode %d\n",
			c.Index, name, c.Units, c.Size, c.Samples, c.RepCode))
	}
	return BoxStyle.Render(b.String())
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
