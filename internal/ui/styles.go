package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorContent   = lipgloss.Color("#06B6D4") // Cyan
	ColorBump      = lipgloss.Color("#D946EF") // Magenta
	ColorHash      = lipgloss.Color("#F59E0B") // Amber
	ColorTextMuted = lipgloss.Color("#9CA3AF") // Gray
	ColorBorder    = lipgloss.Color("#374151") // Medium gray
)

var (
	// PreviewStyle frames the finder preview
	PreviewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	HashStyle = lipgloss.NewStyle().
			Foreground(ColorHash).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	ContentKindStyle = lipgloss.NewStyle().
				Foreground(ColorContent)

	BumpKindStyle = lipgloss.NewStyle().
			Foreground(ColorBump).
			Bold(true)
)
