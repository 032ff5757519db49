// Package styles holds the lipgloss styles shared by simfleet's text output.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	// Colors meet WCAG AA contrast on dark terminals
	PrimaryColor = lipgloss.Color("#A78BFA") // Purple
	SuccessColor = lipgloss.Color("#10B981") // Green
	WarningColor = lipgloss.Color("#F59E0B") // Amber
	ErrorColor   = lipgloss.Color("#F87171") // Red
	MutedColor   = lipgloss.Color("#9CA3AF") // Gray
	BorderColor  = lipgloss.Color("#6B7280") // Gray-500

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	Section = lipgloss.NewStyle().
		Bold(true).
		Underline(true)

	Label = lipgloss.NewStyle().
		Foreground(MutedColor)

	Value = lipgloss.NewStyle().
		Bold(true)

	Success = lipgloss.NewStyle().Foreground(SuccessColor)
	Warning = lipgloss.NewStyle().Foreground(WarningColor)
	Error   = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted   = lipgloss.NewStyle().Foreground(MutedColor)

	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)

	TableCell = lipgloss.NewStyle().
			Padding(0, 1)
)

// Status markers for progress lines
const (
	IconSuccess = "✓"
	IconFailure = "✗"
	IconSkipped = "-"
)

// Renderer applies styles only when enabled, so the same code path serves
// terminals and pipes.
type Renderer struct {
	enabled bool
}

// NewRenderer returns a Renderer. When enabled is false every method
// returns its input unchanged.
func NewRenderer(enabled bool) Renderer {
	return Renderer{enabled: enabled}
}

// Enabled reports whether styling is applied.
func (r Renderer) Enabled() bool {
	return r.enabled
}

// Render applies style to s.
func (r Renderer) Render(style lipgloss.Style, s string) string {
	if !r.enabled {
		return s
	}
	return style.Render(s)
}

// StatusIcon returns the marker for a finished action.
func (r Renderer) StatusIcon(ok bool) string {
	if ok {
		return r.Render(Success, IconSuccess)
	}
	return r.Render(Error, IconFailure)
}

// Truncate shortens s to at most width terminal columns, ending in "...".
// Escape sequences do not count toward the width and survive truncation.
func Truncate(s string, width int) string {
	if width <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "...")
}
