package mutate

import (
	"strings"

	"github.com/starford/nexusmap/internal/outline"
)

// DeleteResult reports a bulk delete. DeletedCount plus len(Blocked) always
// equals the number of requested targets.
type DeleteResult struct {
	DeletedCount int       `json:"deletedCount"`
	Blocked      []Blocked `json:"blocked"`
	Pruned       Pruned    `json:"pruned"`
}

// BulkDelete removes the target nodes. A node with children is refused,
// never removed. A hub head removes every variant line; any other variant
// removes only its own line. Registries anchored to removed lines are
// pruned and the rest re-anchored to the shifted lines.
func BulkDelete(text string, tree *outline.Forest, ids []string) (string, DeleteResult, error) {
	res := DeleteResult{Blocked: []Blocked{}}
	snap, err := load(text, tree)
	if err != nil {
		return text, res, err
	}

	removed := make(map[int]bool)
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			res.Blocked = append(res.Blocked, Blocked{ID: id, Reason: ReasonDuplicate})
			continue
		}
		seen[id] = true

		n, ok := snap.resolve(id)
		if !ok {
			res.Blocked = append(res.Blocked, Blocked{ID: id, Reason: ReasonNotFound})
			continue
		}
		if len(n.DisplayChildren()) > 0 {
			res.Blocked = append(res.Blocked, Blocked{ID: id, Reason: ReasonHasChildren})
			continue
		}
		for _, v := range outline.Group(n) {
			removed[v.LineIndex] = true
		}
		res.DeletedCount++
	}
	if len(removed) == 0 {
		return text, res, nil
	}

	lines := snap.lines()
	next, m := permute(lines, without(len(lines), removed))
	out, pruned, err := reanchor(strings.Join(next, "\n"), snap.tree, m)
	if err != nil {
		return text, res, err
	}
	res.Pruned = pruned
	return out, res, nil
}

// FlowDeleteResult reports a flow removal.
type FlowDeleteResult struct {
	RemovedLines int    `json:"removedLines"`
	Pruned       Pruned `json:"pruned"`
}

// DeleteFlowSubtree removes the flow whose root carries fid: the root line
// and every following line indented deeper than it. A root inside a hub
// takes every variant of the hub with it. Connector labels and
// flowtab references naming a removed node are pruned and the flow's
// swimlane block is removed in the same rewrite.
func DeleteFlowSubtree(text, fid string) (string, FlowDeleteResult, error) {
	var res FlowDeleteResult
	snap, err := load(text, nil)
	if err != nil {
		return text, res, err
	}

	var root *outline.Node
	for _, n := range snap.tree.Nodes {
		if n.Markers.FlowID == fid {
			root = n
			break
		}
	}
	if root == nil {
		return text, res, notFound("flow %s", fid)
	}

	group := []*outline.Node{root}
	if h := root.HubHead(); h != nil {
		group = outline.Group(h)
	}

	lines := snap.lines()
	removed := make(map[int]bool)
	for _, n := range group {
		removeBlock(lines, snap.tree.Source().OutlineEnd(), n.LineIndex, removed)
	}
	res.RemovedLines = len(removed)

	next, m := permute(lines, without(len(lines), removed))
	out, pruned, err := reanchor(strings.Join(next, "\n"), snap.tree, m)
	if err != nil {
		return text, res, err
	}
	res.Pruned = pruned
	return out, res, nil
}

// removeBlock marks line start and every following line indented deeper
// than it. Blank lines inside the block go with it; trailing ones stay.
func removeBlock(lines []string, end, start int, removed map[int]bool) {
	removed[start] = true
	last := start
	for i := start + 1; i < end; i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		if outline.Indent(lines[i]) <= outline.Indent(lines[start]) {
			break
		}
		last = i
	}
	for i := start + 1; i <= last; i++ {
		removed[i] = true
	}
}
