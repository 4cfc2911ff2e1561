package outline

import "strings"

// Render rebuilds the document text from the forest. Node lines are
// regenerated from their level and raw content; every other line (blank
// lines, the separator, registry blocks) is copied through unchanged.
func Render(f *Forest) string {
	lines := make([]string, len(f.source.Lines))
	copy(lines, f.source.Lines)
	for _, n := range f.Nodes {
		lines[n.LineIndex] = strings.Repeat(" ", n.Level*IndentUnit) + n.RawContent
	}
	return strings.Join(lines, "\n")
}

// Lines returns a copy of the normalised source lines.
func (f *Forest) Lines() []string {
	out := make([]string, len(f.source.Lines))
	copy(out, f.source.Lines)
	return out
}
