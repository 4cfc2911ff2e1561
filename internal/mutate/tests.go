package mutate

import (
	"time"

	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/registry"
)

// AddTest records a test definition bound to a flow. flowRootID must name
// a node of the current outline; flowNodeID, when set, must name a node in
// that node's subtree.
func AddTest(text string, tree *outline.Forest, name, flowRootID, flowNodeID string, now time.Time) (string, registry.TestCase, error) {
	snap, err := load(text, tree)
	if err != nil {
		return text, registry.TestCase{}, err
	}
	root, ok := snap.resolve(flowRootID)
	if !ok {
		return text, registry.TestCase{}, notFound("flow root %s", flowRootID)
	}
	nodeID := ""
	if flowNodeID != "" {
		n, ok := snap.resolve(flowNodeID)
		if !ok {
			return text, registry.TestCase{}, notFound("flow node %s", flowNodeID)
		}
		if !within(n, root) {
			return text, registry.TestCase{}, invalid("%s is not inside flow %s", flowNodeID, flowRootID)
		}
		nodeID = n.ID
	}

	store, _, err := registry.Load[registry.TestingStore](snap.text, registry.TestingStoreBlock)
	if err != nil {
		return text, registry.TestCase{}, invalid("testing-store block is unreadable")
	}
	tc := store.Add(outline.Sanitize(name), root.ID, nodeID, now)
	if err := tc.Validate(); err != nil {
		return text, registry.TestCase{}, invalid("%v", err)
	}
	out, err := registry.Save(snap.text, registry.TestingStoreBlock, store)
	if err != nil {
		return text, registry.TestCase{}, err
	}
	return out, tc, nil
}

func within(n, root *outline.Node) bool {
	for ; n != nil; n = n.Parent() {
		if n == root {
			return true
		}
	}
	return false
}
