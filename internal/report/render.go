package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/simfleet/internal/styles"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const ruleWidth = 50

// Render writes s in the named format. An empty format means text.
func Render(w io.Writer, format string, s Summary, r styles.Renderer) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return RenderText(w, s, r)
	case FormatJSON:
		return RenderJSON(w, s)
	case FormatYAML:
		return RenderYAML(w, s)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// RenderJSON writes s as indented JSON.
func RenderJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// RenderYAML writes s as a YAML document.
func RenderYAML(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// RenderText writes the human-readable summary.
func RenderText(w io.Writer, s Summary, r styles.Renderer) error {
	var b strings.Builder

	b.WriteString("\n")
	section(&b, r, s.Title)
	fmt.Fprintf(&b, "%s %s\n\n", r.Render(styles.Label, "Elapsed:"), r.Render(styles.Value, s.Elapsed))

	width := 0
	for _, c := range s.Counters {
		width = max(width, len(c.Name))
	}
	for _, c := range s.Counters {
		label := r.Render(styles.Label, c.Name+":")
		pad := strings.Repeat(" ", width-len(c.Name)+1)
		value := r.Render(styles.Value, fmt.Sprintf("%d", c.Value))
		if c.Value > 0 && strings.HasSuffix(c.Name, "failures") {
			value = r.Render(styles.Warning, fmt.Sprintf("%d", c.Value))
		}
		fmt.Fprintf(&b, "%s%s%s\n", label, pad, value)
	}

	if s.Matrix != nil {
		matrix := *s.Matrix
		b.WriteString("\n")
		section(&b, r, "Compatibility Matrix")
		if len(matrix) == 0 {
			b.WriteString(r.Render(styles.Muted, "No successful pairings."))
			b.WriteString("\n")
		}
		keyWidth := 0
		for _, row := range matrix {
			keyWidth = max(keyWidth, lipgloss.Width(row.Primary))
		}
		for _, row := range matrix {
			key := row.Primary + strings.Repeat(" ", keyWidth-lipgloss.Width(row.Primary))
			fmt.Fprintf(&b, "%s  ->  %s\n", r.Render(styles.Value, key), strings.Join(row.Companions, ", "))
		}
		if len(matrix) > 0 {
			b.WriteString(r.Render(styles.Muted, fmt.Sprintf("%d combinations across %d primary versions",
				matrix.Pairs(), len(matrix))))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, r styles.Renderer, title string) {
	b.WriteString(r.Render(styles.Title, strings.ToUpper(title)))
	b.WriteString("\n")
	b.WriteString(r.Render(styles.Muted, strings.Repeat("─", ruleWidth)))
	b.WriteString("\n")
}
