// Package tui renders the read-only inspect and stats views of the strata
// CLI with Bubble Tea.
//
// Views are opt-in (--tui) and draw exactly the payloads the json, yaml and
// table renderers print; nothing is computed for the TUI alone.
package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Adaptive colors keep text readable on light and dark terminals.
var (
	accent = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"}
	good   = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	warn   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	bad    = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	muted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	frame  = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	plain  = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)

	// LabelStyle pads field labels and record tells to one column.
	LabelStyle = lipgloss.NewStyle().Foreground(muted).Width(16)

	ValueStyle   = lipgloss.NewStyle().Foreground(plain)
	SuccessStyle = lipgloss.NewStyle().Foreground(good)
	WarningStyle = lipgloss.NewStyle().Foreground(warn)
	HelpStyle    = lipgloss.NewStyle().Foreground(muted).MarginTop(1)

	// BoxStyle frames the log pass detail.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(1, 2)

	// StatBoxStyle, StatValueStyle and StatLabelStyle draw one counter of
	// the stats view. The counter's color is applied per box.
	StatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			Width(18).
			Align(lipgloss.Center)
	StatValueStyle = lipgloss.NewStyle().Bold(true).Align(lipgloss.Center)
	StatLabelStyle = lipgloss.NewStyle().Foreground(muted).Align(lipgloss.Center)
)

// kindStyles color table of contents entries. Log passes stand out since
// they are what dump and plan address; passthrough records are flagged.
var kindStyles = map[string]lipgloss.Style{
	"log_pass":    lipgloss.NewStyle().Foreground(frame).Bold(true),
	"delimiter":   lipgloss.NewStyle().Foreground(accent),
	"table":       ValueStyle,
	"passthrough": WarningStyle,
	"unknown":     lipgloss.NewStyle().Foreground(muted).Italic(true),
}

// KindStyle returns the style of a table of contents entry kind.
func KindStyle(kind string) lipgloss.Style {
	if s, ok := kindStyles[kind]; ok {
		return s
	}
	return ValueStyle
}

// counterColor picks the color of a stats counter. Skips and fatal errors
// are only highlighted when non-zero.
func counterColor(name string, value int64) lipgloss.TerminalColor {
	switch name {
	case "Records":
		return accent
	case "Log passes", "Frames":
		return frame
	case "Skipped":
		if value > 0 {
			return warn
		}
	case "Fatal":
		if value > 0 {
			return bad
		}
	default:
		return good
	}
	return muted
}
