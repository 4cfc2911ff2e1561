package mutate

import (
	"strings"

	"github.com/starford/nexusmap/internal/outline"
)

// ToggleResult reports a flow-flag toggle.
type ToggleResult struct {
	Flagged      bool `json:"flagged"`
	ChangedLines int  `json:"changedLines"`
}

// ToggleFlowFlag flips the #flow# flag of the target and sets the same
// state on its hub variants and every descendant, in one rewrite. The new
// state is the opposite of the target's current state.
func ToggleFlowFlag(text string, tree *outline.Forest, id string) (string, ToggleResult, error) {
	var res ToggleResult
	snap, err := load(text, tree)
	if err != nil {
		return text, res, err
	}
	n, ok := snap.resolve(id)
	if !ok {
		return text, res, notFound("node %s", id)
	}
	out, changed := setFlowFlag(snap, n, !n.IsFlowNode)
	res.Flagged = !n.IsFlowNode
	res.ChangedLines = changed
	if changed == 0 {
		return text, res, nil
	}
	return out, res, nil
}

// setFlowFlag sets the flow flag on n's hub group and all descendants.
func setFlowFlag(snap *snapshot, n *outline.Node, on bool) (string, int) {
	head := n
	if h := n.HubHead(); h != nil {
		head = h
	}
	targets := append(append([]*outline.Node(nil), outline.Group(head)...), snap.tree.Descendants(head)...)

	lines := snap.lines()
	changed := 0
	for _, t := range targets {
		line := lines[t.LineIndex]
		var next string
		if on {
			next = outline.AddHashtag(line, outline.TagFlow)
		} else {
			next = outline.RemoveHashtag(line, outline.TagFlow)
		}
		if next != line {
			lines[t.LineIndex] = next
			changed++
		}
	}
	return strings.Join(lines, "\n"), changed
}
