package fleet

import (
	"slices"

	"github.com/Iron-Ham/simfleet/internal/report"
)

// CompatibilityMatrix records which companion runtime versions paired with
// which primary runtime versions. Each version pair is stored once.
type CompatibilityMatrix struct {
	entries map[string]map[string]struct{}
}

// NewCompatibilityMatrix returns an empty matrix.
func NewCompatibilityMatrix() *CompatibilityMatrix {
	return &CompatibilityMatrix{entries: make(map[string]map[string]struct{})}
}

// Record notes a successful pairing.
func (m *CompatibilityMatrix) Record(primaryVersion, companionVersion string) {
	set, ok := m.entries[primaryVersion]
	if !ok {
		set = make(map[string]struct{})
		m.entries[primaryVersion] = set
	}
	set[companionVersion] = struct{}{}
}

// Len returns the number of distinct version pairs.
func (m *CompatibilityMatrix) Len() int {
	n := 0
	for _, set := range m.entries {
		n += len(set)
	}
	return n
}

// Sorted returns the matrix with primary versions ascending and companion
// versions ascending within each row. Versions compare as plain strings.
func (m *CompatibilityMatrix) Sorted() report.Matrix {
	primaries := make([]string, 0, len(m.entries))
	for p := range m.entries {
		primaries = append(primaries, p)
	}
	slices.Sort(primaries)

	out := make(report.Matrix, 0, len(primaries))
	for _, p := range primaries {
		companions := make([]string, 0, len(m.entries[p]))
		for c := range m.entries[p] {
			companions = append(companions, c)
		}
		slices.Sort(companions)
		out = append(out, report.MatrixRow{Primary: p, Companions: companions})
	}
	return out
}
