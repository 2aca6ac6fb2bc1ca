package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/obentoo/template-sync/internal/upstream"
)

// dateLayout is used for commit dates in lists and previews
const dateLayout = "2006-01-02 15:04"

// FormatCommitLine returns the single-line representation of a candidate
func FormatCommitLine(c upstream.Commit) string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return fmt.Sprintf("%s  %-7s  %s  %s", c.Hash, c.Kind(), c.Time().Format(dateLayout), subject)
}

// TruncateLine shortens line to at most width columns, marking the cut with an ellipsis
func TruncateLine(line string, width int) string {
	if width <= 0 || lipgloss.Width(line) <= width {
		return line
	}
	runes := []rune(line)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// FormatCommitPreview renders the finder preview for a candidate
func FormatCommitPreview(c upstream.Commit) string {
	kindStyle := ContentKindStyle
	if c.Kind() == upstream.KindBump {
		kindStyle = BumpKindStyle
	}

	lines := []string{
		HeaderStyle.Render("Template commit ") + HashStyle.Render(c.Hash),
		DimStyle.Render("Date: ") + c.Time().Format(dateLayout),
		DimStyle.Render("Kind: ") + kindStyle.Render(string(c.Kind())),
	}

	if update, ok := upstream.ParseBump(c.Message); ok {
		lines = append(lines, DimStyle.Render("Install: ")+update.String())
		if dir := update.Direction(); dir != upstream.DirectionUpgrade {
			lines = append(lines, DimStyle.Render("Direction: ")+string(dir))
		}
	}

	lines = append(lines, "", c.Message)
	return PreviewStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
