// Package themes defines color schemes for the popup UI.
package themes

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Label         lipgloss.Style
	Popup         lipgloss.Style
	Box           lipgloss.Style
	ProgressFull  lipgloss.Style
	ProgressEmpty lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusPending lipgloss.Style
	Debit         lipgloss.Color
	Credit        lipgloss.Color
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
}

func build(primary, fg, muted, border, success, warning, errColor, info string) Theme {
	return Theme{
		Primary: lipgloss.Color(primary),
		Muted:   lipgloss.Color(muted),
		Border:  lipgloss.Color(border),
		Debit:   lipgloss.Color(errColor),
		Credit:  lipgloss.Color(success),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fg)),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(muted)),
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(fg)),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fg)),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(muted)).
			Width(11),
		Popup: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primary)).
			Padding(1, 2),
		Box: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(border)).
			Padding(0, 1),
		ProgressFull: lipgloss.NewStyle().
			Foreground(lipgloss.Color(primary)),
		ProgressEmpty: lipgloss.NewStyle().
			Foreground(lipgloss.Color(border)),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(lipgloss.Color(success)).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(warning)).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color(errColor)).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(info)).
			Bold(true),
		StatusPending: lipgloss.NewStyle().
			Foreground(lipgloss.Color(muted)).
			Italic(true),
	}
}

// Default is the default theme.
var Default = build("#7c3aed", "#fafafa", "#737373", "#404040", "#10b981", "#f59e0b", "#ef4444", "#3b82f6")

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build("#cba6f7", "#cdd6f4", "#6c7086", "#45475a", "#a6e3a1", "#f9e2af", "#f38ba8", "#89dceb")

// ByName returns the named theme, or Default.
func ByName(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "catppuccin", "mocha", "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
