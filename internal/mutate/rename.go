package mutate

import (
	"strings"

	"github.com/starford/nexusmap/internal/identity"
	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/registry"
)

// RenameNode replaces the title of a node. Every variant of its hub is
// renamed with its conditions kept. Flow-node entries bound to the renamed
// lines or their descendants are rewritten to the new fingerprints in the
// same pass.
func RenameNode(text string, tree *outline.Forest, id, title string) (string, error) {
	title = outline.StripMarkers(outline.Sanitize(title))
	if title == "" {
		return text, invalid("empty title")
	}
	if _, _, ok := outline.SplitConditions(title); ok {
		return text, invalid("title %q carries a condition suffix", title)
	}

	snap, err := load(text, tree)
	if err != nil {
		return text, err
	}
	n, ok := snap.resolve(id)
	if !ok {
		return text, notFound("node %s", id)
	}
	head := n
	if h := n.HubHead(); h != nil {
		head = h
	}

	lines := snap.lines()
	for _, v := range outline.Group(head) {
		suffix := strings.TrimPrefix(v.Content, v.Title)
		lines[v.LineIndex] = outline.ReplaceText(lines[v.LineIndex], title+suffix)
	}
	out := strings.Join(lines, "\n")

	reg, found, derr := registry.Load[registry.FlowNodes](out, registry.FlowNodesBlock)
	if !found || derr != nil {
		return out, nil
	}
	renamed, err := outline.Parse(out)
	if err != nil {
		return text, err
	}
	affected := append(append([]*outline.Node(nil), outline.Group(head)...), snap.tree.Descendants(head)...)
	res := identity.ResolveFlowNodes(snap.tree, reg)
	for _, a := range affected {
		idx, ok := res.Entry(a.LineIndex)
		if !ok {
			continue
		}
		nn, ok := renamed.AtLine(a.LineIndex)
		if !ok {
			continue
		}
		reg.Entries[idx].Content = nn.Content
		reg.Entries[idx].ParentPath = renamed.ParentPath(nn)
		reg.Entries[idx].LineIndex = nn.LineIndex
	}
	return registry.Save(out, registry.FlowNodesBlock, reg)
}
