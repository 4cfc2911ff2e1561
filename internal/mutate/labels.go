package mutate

import (
	"github.com/starford/nexusmap/internal/identity"
	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/registry"
)

// SetConnectorLabel labels the edge from a node to one of its direct
// children. An empty label removes the entry.
func SetConnectorLabel(text string, tree *outline.Forest, from, to, label, color string) (string, error) {
	snap, err := load(text, tree)
	if err != nil {
		return text, err
	}
	parent, ok := snap.resolve(from)
	if !ok {
		return text, notFound("node %s", from)
	}
	child, ok := snap.resolve(to)
	if !ok {
		return text, notFound("node %s", to)
	}
	if child.Parent() != parent {
		return text, invalid("%s is not a direct child of %s", to, from)
	}

	labels, _, err := registry.Load[registry.ConnectorLabels](snap.text, registry.ConnectorLabelsBlock)
	if err != nil {
		return text, invalid("connector labels block is unreadable")
	}
	if labels == nil {
		labels = registry.ConnectorLabels{}
	}
	key := registry.ConnectorKey(parent.ID, child.ID)
	if label == "" {
		delete(labels, key)
	} else {
		entry := registry.ConnectorLabel{Label: outline.Sanitize(label), Color: color}
		if err := entry.Validate(); err != nil {
			return text, invalid("%v", err)
		}
		labels[key] = entry
	}
	return registry.Save(snap.text, registry.ConnectorLabelsBlock, labels)
}

// SetFlowNodeType types a flow node, giving it a flow-nodes entry first
// when it has none.
func SetFlowNodeType(text string, tree *outline.Forest, id string, typ registry.FlowNodeType) (string, int, error) {
	snap, err := load(text, tree)
	if err != nil {
		return text, 0, err
	}
	n, ok := snap.resolve(id)
	if !ok {
		return text, 0, notFound("node %s", id)
	}
	if !n.IsFlowNode {
		return text, 0, invalid("node %s is not a flow node", id)
	}
	sample := registry.FlowNodeEntry{RunningNumber: 1, Content: n.Content, Type: typ}
	if err := sample.Validate(); err != nil {
		return text, 0, invalid("flow node type %q", typ)
	}

	out, assigned, err := identity.EnsureRunningNumbers(snap.text, identity.FamilyFlowNodes, []int{n.LineIndex})
	if err != nil {
		return text, 0, err
	}
	reg, _, err := registry.Load[registry.FlowNodes](out, registry.FlowNodesBlock)
	if err != nil {
		return text, 0, invalid("flow-nodes block is unreadable")
	}
	rn := assigned[n.LineIndex]
	e, ok := reg.Entry(rn)
	if !ok {
		return text, 0, notFound("flow node entry %d", rn)
	}
	e.Type = typ
	out, err = registry.Save(out, registry.FlowNodesBlock, reg)
	return out, rn, err
}
