package identity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/registry"
)

// Fingerprint identifies a line by its content and the content of its
// ancestors.
type Fingerprint struct {
	Content    string
	ParentPath []string
}

// Key returns a comparable form of the fingerprint.
func (fp Fingerprint) Key() string {
	return strings.TrimSpace(fp.Content) + "\x00" + strings.Join(fp.ParentPath, "\x1f")
}

// FingerprintOf returns the fingerprint of n in f.
func FingerprintOf(f *outline.Forest, n *outline.Node) Fingerprint {
	return Fingerprint{Content: n.Content, ParentPath: f.ParentPath(n)}
}

// EntryFingerprint returns the fingerprint an entry was recorded with.
func EntryFingerprint(e registry.FlowNodeEntry) Fingerprint {
	return Fingerprint{Content: e.Content, ParentPath: e.ParentPath}
}

// Resolution binds flow-node entries to the lines of one parse.
type Resolution struct {
	// Lines maps a node line to the index of its entry.
	Lines map[int]int
	// Orphans lists the indices of entries no line matched.
	Orphans []int
}

// Entry returns the index of the entry bound to line i.
func (r Resolution) Entry(line int) (int, bool) {
	idx, ok := r.Lines[line]
	return idx, ok
}

// ResolveFlowNodes matches entries to nodes by fingerprint. When several
// lines share a fingerprint, the k-th line in document order takes the
// k-th entry ordered by recorded line index, then running number.
func ResolveFlowNodes(f *outline.Forest, reg registry.FlowNodes) Resolution {
	nodesByKey := make(map[string][]int)
	for _, n := range f.Nodes {
		k := FingerprintOf(f, n).Key()
		nodesByKey[k] = append(nodesByKey[k], n.LineIndex)
	}

	entriesByKey := make(map[string][]int)
	var keys []string
	for i, e := range reg.Entries {
		k := EntryFingerprint(e).Key()
		if _, seen := entriesByKey[k]; !seen {
			keys = append(keys, k)
		}
		entriesByKey[k] = append(entriesByKey[k], i)
	}

	res := Resolution{Lines: make(map[int]int)}
	for _, k := range keys {
		idxs := entriesByKey[k]
		sort.SliceStable(idxs, func(a, b int) bool {
			ea, eb := reg.Entries[idxs[a]], reg.Entries[idxs[b]]
			if ea.LineIndex != eb.LineIndex {
				return ea.LineIndex < eb.LineIndex
			}
			return ea.RunningNumber < eb.RunningNumber
		})
		lines := nodesByKey[k]
		for j, idx := range idxs {
			if j < len(lines) {
				res.Lines[lines[j]] = idx
			} else {
				res.Orphans = append(res.Orphans, idx)
			}
		}
	}
	sort.Ints(res.Orphans)
	return res
}

func ensureFlowNodes(text string, targets []int) (string, map[int]int, error) {
	f, err := outline.Parse(text)
	if err != nil {
		return text, nil, err
	}
	targets, err = checkTargets(targets, func(i int) bool {
		_, ok := f.AtLine(i)
		return ok
	})
	if err != nil {
		return text, nil, err
	}

	reg, _, err := registry.Load[registry.FlowNodes](text, registry.FlowNodesBlock)
	if err != nil {
		return text, nil, unreadable(err)
	}
	res := ResolveFlowNodes(f, reg)

	assigned := make(map[int]int, len(targets))
	changed := false
	for _, i := range targets {
		if idx, ok := res.Entry(i); ok {
			assigned[i] = reg.Entries[idx].RunningNumber
			continue
		}
		n, _ := f.AtLine(i)
		rn := reg.Allocate()
		reg.Entries = append(reg.Entries, registry.FlowNodeEntry{
			RunningNumber: rn,
			Content:       n.Content,
			ParentPath:    f.ParentPath(n),
			LineIndex:     i,
			Type:          registry.FlowStep,
		})
		assigned[i] = rn
		changed = true
	}
	if !changed {
		return text, assigned, nil
	}
	out, err := registry.Save(text, registry.FlowNodesBlock, reg)
	if err != nil {
		return text, nil, fmt.Errorf("identity: save flow nodes: %w", err)
	}
	return out, assigned, nil
}
