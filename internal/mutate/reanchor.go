package mutate

import (
	"sort"

	"github.com/starford/nexusmap/internal/identity"
	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/registry"
)

// Pruned counts registry entries a mutation removed because the lines they
// were anchored to are gone.
type Pruned struct {
	ConnectorLabels int `json:"connectorLabels,omitempty"`
	Placements      int `json:"placements,omitempty"`
	References      int `json:"references,omitempty"`
	GotoTargets     int `json:"gotoTargets,omitempty"`
	Tests           int `json:"tests,omitempty"`
	FlowNodes       int `json:"flowNodes,omitempty"`
	Notes           int `json:"notes,omitempty"`
	ExpandedBlocks  int `json:"expandedBlocks,omitempty"`
	SwimlaneBlocks  int `json:"swimlaneBlocks,omitempty"`
}

// reanchor rewrites every line-anchored registry in text after the outline
// lines of old were moved or removed as described by m. Registries whose
// block failed to decode are left untouched.
func reanchor(text string, old *outline.Forest, m lineMap) (string, Pruned, error) {
	var p Pruned
	set := registry.LoadSet(text)
	removed := removedNodes(old, m)

	type save struct {
		name  string
		value any
	}
	var saves []save

	if set.Present[registry.ConnectorLabelsBlock] {
		next := registry.ConnectorLabels{}
		for key, label := range set.ConnectorLabels {
			from, to, ok := registry.SplitConnectorKey(key)
			if !ok {
				next[key] = label
				continue
			}
			nf, okf := m.nodeID(from)
			nt, okt := m.nodeID(to)
			if !okf || !okt {
				p.ConnectorLabels++
				continue
			}
			next[registry.ConnectorKey(nf, nt)] = label
		}
		saves = append(saves, save{registry.ConnectorLabelsBlock, next})
	}

	if set.Present[registry.FlowtabReferencesBlock] {
		next := registry.FlowtabReferences{}
		for key, ref := range set.References {
			nk, ok := m.nodeID(key)
			root, okr := m.nodeID(ref.RootProcessNodeID)
			if !ok || !okr {
				p.References++
				continue
			}
			ref.RootProcessNodeID = root
			if ref.TargetNodeID != "" {
				target, okt := m.nodeID(ref.TargetNodeID)
				if !okt {
					p.References++
					continue
				}
				ref.TargetNodeID = target
			}
			next[nk] = ref
		}
		saves = append(saves, save{registry.FlowtabReferencesBlock, next})
	}

	if set.Present[registry.GotoTargetsBlock] {
		next := registry.GotoTargets{}
		for key, target := range set.GotoTargets {
			nk, ok := m.nodeID(key)
			nt, okt := m.nodeID(target)
			if !ok || !okt {
				p.GotoTargets++
				continue
			}
			next[nk] = nt
		}
		saves = append(saves, save{registry.GotoTargetsBlock, next})
	}

	if set.Present[registry.TestingStoreBlock] {
		next := set.Testing
		next.Tests = nil
		for _, tc := range set.Testing.Tests {
			root, ok := m.nodeID(tc.FlowRootID)
			if !ok {
				p.Tests++
				continue
			}
			tc.FlowRootID = root
			if tc.FlowNodeID != "" {
				if id, ok := m.nodeID(tc.FlowNodeID); ok {
					tc.FlowNodeID = id
				} else {
					tc.FlowNodeID = ""
				}
			}
			next.Tests = append(next.Tests, tc)
		}
		saves = append(saves, save{registry.TestingStoreBlock, next})
	}

	if set.Present[registry.FlowNodesBlock] {
		res := identity.ResolveFlowNodes(old, set.FlowNodes)
		drop := make(map[int]bool)
		entries := set.FlowNodes.Entries
		for line, idx := range res.Lines {
			if nl, ok := m[line]; ok {
				entries[idx].LineIndex = nl
			} else {
				drop[idx] = true
			}
		}
		next := set.FlowNodes
		next.Entries = nil
		for i, e := range entries {
			if drop[i] {
				p.FlowNodes++
				continue
			}
			next.Entries = append(next.Entries, e)
		}
		saves = append(saves, save{registry.FlowNodesBlock, next})
	}

	for _, notes := range []struct {
		block  string
		family string
		value  registry.Notes
	}{
		{registry.ConditionDescriptionsBlock, outline.MarkerDescription, set.Descriptions},
		{registry.HubNotesBlock, outline.MarkerHubNote, set.HubNotes},
	} {
		if !set.Present[notes.block] {
			continue
		}
		gone := removed.numbers(notes.family)
		if len(gone) == 0 {
			continue
		}
		next := registry.Notes{}
		for k, v := range notes.value {
			next[k] = v
		}
		for _, n := range gone {
			if _, ok := next.Get(n); ok {
				next.Delete(n)
				p.Notes++
			}
		}
		saves = append(saves, save{notes.block, next})
	}

	var err error
	for _, s := range saves {
		if text, err = registry.Save(text, s.name, s.value); err != nil {
			return "", p, err
		}
	}

	for fid := range removed.flows {
		name := registry.SwimlaneBlock(fid)
		if _, ok := registry.FindBlock(text, name); ok {
			text = registry.RemoveBlock(text, name)
			p.SwimlaneBlocks++
		}
	}
	for fid, sl := range set.Swimlanes {
		if removed.flows[fid] {
			continue
		}
		name := registry.SwimlaneBlock(fid)
		next := sl
		next.Placement = make(map[string]registry.Placement, len(sl.Placement))
		for id, pl := range sl.Placement {
			nid, ok := m.nodeID(id)
			if !ok {
				p.Placements++
				continue
			}
			next.Placement[nid] = pl
		}
		if text, err = registry.Save(text, name, next); err != nil {
			return "", p, err
		}
	}

	for _, expid := range removed.numbers(outline.MarkerExpandedID) {
		for _, name := range []string{registry.ExpandedMetadataBlock(expid), registry.ExpandedGridBlock(expid)} {
			if _, ok := registry.FindBlock(text, name); ok {
				text = registry.RemoveBlock(text, name)
				p.ExpandedBlocks++
			}
		}
	}
	return text, p, nil
}

// removal describes marker numbers and flows that no surviving line
// carries any more.
type removal struct {
	byFamily map[string][]int
	flows    map[string]bool
}

func (r removal) numbers(family string) []int {
	return r.byFamily[family]
}

func removedNodes(old *outline.Forest, m lineMap) removal {
	r := removal{byFamily: map[string][]int{}, flows: map[string]bool{}}
	families := []string{outline.MarkerExpandedID, outline.MarkerDescription, outline.MarkerHubNote}
	for _, family := range families {
		for n, nodes := range old.Numbered(family) {
			if allRemoved(nodes, m) {
				r.byFamily[family] = append(r.byFamily[family], n)
			}
		}
		sort.Ints(r.byFamily[family])
	}
	flows := map[string][]*outline.Node{}
	for _, n := range old.Nodes {
		if n.Markers.FlowID != "" {
			flows[n.Markers.FlowID] = append(flows[n.Markers.FlowID], n)
		}
	}
	for fid, nodes := range flows {
		if allRemoved(nodes, m) {
			r.flows[fid] = true
		}
	}
	return r
}

func allRemoved(nodes []*outline.Node, m lineMap) bool {
	for _, n := range nodes {
		if _, ok := m[n.LineIndex]; ok {
			return false
		}
	}
	return true
}
