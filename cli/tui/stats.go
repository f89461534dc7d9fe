package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/strata/cli/reader"
)

// StatsModel is a Bubble Tea model for stats views.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "stats_scan":
		content = m.renderStatsScan()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderStatsScan() string {
	data, ok := m.data.(*reader.ScanStats)
	if !ok {
		return "Invalid data type for stats_scan"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Scan Statistics: " + data.File))
	b.WriteString("\n\n")

	boxes := []string{
		m.renderStatBox("Records", data.RecordsScanned),
		m.renderStatBox("Log passes", data.LogPasses),
		m.renderStatBox("Frames", data.FramesIndexed),
		m.renderStatBox("Skipped", data.RecordsSkipped),
		m.renderStatBox("Fatal", data.FatalErrors),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n\n")

	if len(data.RecordsByClass) > 0 {
		b.WriteString(TitleStyle.Render("Records by class"))
		b.WriteString("\n")
		classes := make([]string, 0, len(data.RecordsByClass))
		for c := range data.RecordsByClass {
			classes = append(classes, c)
		}
		slices.Sort(classes)
		for _, c := range classes {
			b.WriteString(fmt.Sprintf("%s %s\n",
				LabelStyle.Render(c+":"),
				ValueStyle.Render(fmt.Sprintf("%d", data.RecordsByClass[c]))))
		}
	}

	b.WriteString(fmt.Sprintf("\n%s %s\n", LabelStyle.Render("Policy:"), ValueStyle.Render(data.Policy)))
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Warnings:"), ValueStyle.Render(fmt.Sprintf("%d", data.FramingWarnings))))
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Summary:"), ValueStyle.Render(data.Summary)))

	return b.String()
}

func (m StatsModel) renderStatBox(label string, value int64) string {
	color := counterColor(label, value)
	content := lipgloss.JoinVertical(lipgloss.Center,
		StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value)),
		StatLabelStyle.Render(label))
	return StatBoxStyle.BorderForeground(color).Render(content)
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders stats data without full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
