package mutate

import (
	"sort"

	"github.com/starford/nexusmap/internal/outline"
)

// lineMap maps old line indices to new ones. Removed lines are absent.
type lineMap map[int]int

// nodeID maps a transient node id through the map. Ids that do not name a
// line pass through unchanged.
func (m lineMap) nodeID(id string) (string, bool) {
	line, ok := outline.LineOf(id)
	if !ok {
		return id, true
	}
	n, ok := m[line]
	if !ok {
		return "", false
	}
	return outline.NodeID(n), true
}

// permute lays lines out in the given order of old indices. Lines missing
// from order are dropped.
func permute(lines []string, order []int) ([]string, lineMap) {
	out := make([]string, 0, len(order))
	m := make(lineMap, len(order))
	for _, old := range order {
		m[old] = len(out)
		out = append(out, lines[old])
	}
	return out, m
}

// without returns the old indices of lines in order, skipping removed.
func without(n int, removed map[int]bool) []int {
	order := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !removed[i] {
			order = append(order, i)
		}
	}
	return order
}

// span returns the first and last line of n's hub group and all of its
// descendants.
func span(f *outline.Forest, n *outline.Node) (start, end int) {
	start, end = n.LineIndex, n.LineIndex
	for _, v := range outline.Group(n) {
		start = min(start, v.LineIndex)
		end = max(end, v.LineIndex)
	}
	for _, d := range f.Descendants(n) {
		end = max(end, d.LineIndex)
	}
	return start, end
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
