package identity

import (
	"sort"

	"github.com/starford/nexusmap/internal/outline"
)

// Lookup resolves a marker number to the node carrying it. When several
// lines carry the number the first one wins.
func Lookup(f *outline.Forest, family string, n int) (*outline.Node, bool) {
	for _, node := range f.Nodes {
		if got, ok := node.Markers.Number(family); ok && got == n {
			return node, true
		}
	}
	return nil, false
}

// Duplicates lists numbers of family carried by more than one line.
func Duplicates(f *outline.Forest, family string) []int {
	var out []int
	for n, nodes := range f.Numbered(family) {
		if len(nodes) > 1 {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}
