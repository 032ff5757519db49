package fleet

import (
	"fmt"
	"io"
	"sync"

	"github.com/Iron-Ham/simfleet/internal/styles"
)

// Progress receives one notification per phase and per attempt.
type Progress interface {
	Phase(name string)
	Attempt(a Attempt)
}

// NopProgress discards all progress.
type NopProgress struct{}

func (NopProgress) Phase(string)    {}
func (NopProgress) Attempt(Attempt) {}

// TextProgress writes progress lines to a writer.
type TextProgress struct {
	mu sync.Mutex
	w  io.Writer
	r  styles.Renderer
}

// NewTextProgress returns a Progress that writes to w, styled when r is
// enabled.
func NewTextProgress(w io.Writer, r styles.Renderer) *TextProgress {
	return &TextProgress{w: w, r: r}
}

// Phase prints a phase heading.
func (p *TextProgress) Phase(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s\n", p.r.Render(styles.Section, name))
}

// Attempt prints one result line.
func (p *TextProgress) Attempt(a Attempt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := a.String()
	if !a.OK() {
		line = p.r.Render(styles.Error, line)
	}
	fmt.Fprintf(p.w, "  %s %s\n", p.r.StatusIcon(a.OK()), line)
}
