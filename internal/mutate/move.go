package mutate

import (
	"strings"

	"github.com/starford/nexusmap/internal/outline"
)

// Direction of a subtree move.
type Direction string

// Move directions.
const (
	Up   Direction = "up"
	Down Direction = "down"
)

// MoveResult reports a subtree move.
type MoveResult struct {
	// NodeID is the moved node's id in the new text.
	NodeID string `json:"nodeId"`
	Pruned Pruned `json:"pruned"`
}

// MoveSubtree swaps the subtree of a node with the adjacent sibling
// subtree in the given direction. Hubs move as one unit. Line-anchored
// registries follow the moved lines.
func MoveSubtree(text string, tree *outline.Forest, id string, dir Direction) (string, MoveResult, error) {
	var res MoveResult
	if dir != Up && dir != Down {
		return text, res, invalid("direction %q", dir)
	}
	snap, err := load(text, tree)
	if err != nil {
		return text, res, err
	}
	n, ok := snap.resolve(id)
	if !ok {
		return text, res, notFound("node %s", id)
	}
	if h := n.HubHead(); h != nil {
		n = h
	}

	siblings := snap.tree.Roots
	if p := n.Parent(); p != nil {
		siblings = p.Children
	}
	pos := -1
	for i, s := range siblings {
		if s == n {
			pos = i
			break
		}
	}
	other := pos - 1
	if dir == Down {
		other = pos + 1
	}
	if pos < 0 || other < 0 || other >= len(siblings) {
		return text, res, invalid("node %s has no sibling %s", id, dir)
	}

	upper, lower := siblings[other], n
	if dir == Down {
		upper, lower = n, siblings[other]
	}
	us, ue := span(snap.tree, upper)
	ls, le := span(snap.tree, lower)

	lines := snap.lines()
	order := make([]int, 0, len(lines))
	for i := 0; i < us; i++ {
		order = append(order, i)
	}
	order = appendRange(order, ls, le)
	order = appendRange(order, ue+1, ls-1)
	order = appendRange(order, us, ue)
	for i := le + 1; i < len(lines); i++ {
		order = append(order, i)
	}

	next, m := permute(lines, order)
	out, pruned, err := reanchor(strings.Join(next, "\n"), snap.tree, m)
	if err != nil {
		return text, res, err
	}
	res.NodeID = outline.NodeID(m[n.LineIndex])
	res.Pruned = pruned
	return out, res, nil
}

func appendRange(order []int, from, to int) []int {
	for i := from; i <= to; i++ {
		order = append(order, i)
	}
	return order
}
