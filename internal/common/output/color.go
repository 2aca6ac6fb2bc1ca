package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	// Commit kind colors
	Content = color.New(color.FgCyan)
	Bump    = color.New(color.FgMagenta)
	Hash    = color.New(color.FgYellow)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header  = color.New(color.FgWhite, color.Bold)
	Package = color.New(color.FgBlue, color.Bold)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// KindColor returns the color used for a commit kind
func KindColor(kind string) *color.Color {
	switch kind {
	case "content":
		return Content
	case "bump":
		return Bump
	default:
		return color.New(color.Reset)
	}
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Printf("✓ "+format+"\n", args...)
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	Warning.Printf("⚠ "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Printf("→ "+format+"\n", args...)
}

// Sprint returns a colored string without printing
func Sprint(c *color.Color, a ...interface{}) string {
	return c.Sprint(a...)
}

// FormatKind formats a commit kind with its color
func FormatKind(kind string) string {
	return KindColor(kind).Sprintf("[%s]", kind)
}

// FormatHash formats an abbreviated commit hash
func FormatHash(hash string) string {
	return Hash.Sprint(hash)
}

// FormatUpdate formats a package@version pair
func FormatUpdate(pkg, version string) string {
	return Package.Sprint(pkg) + "@" + version
}

// Box prints a boxed message
func Box(title, content string) {
	FprintBox(os.Stdout, title, content)
}

// FprintBox writes a boxed message to w
func FprintBox(w io.Writer, title, content string) {
	fmt.Fprintln(w)
	Header.Fprintln(w, "┌─ "+title+" ─")
	fmt.Fprintln(w, "│")
	fmt.Fprintln(w, "│  "+content)
	fmt.Fprintln(w, "│")
	Header.Fprintln(w, "└────────────────")
	fmt.Fprintln(w)
}
