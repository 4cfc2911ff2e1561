package identity

import "github.com/starford/nexusmap/internal/outline"

// Rebind finds the node in to that corresponds to n from an older parse.
// A running-number marker wins when both parses carry it exactly once;
// otherwise the k-th line with n's fingerprint maps to the k-th such line
// in to.
func Rebind(from, to *outline.Forest, n *outline.Node) (*outline.Node, bool) {
	if rn := n.Markers.RunningNumber; rn > 0 {
		if nodes := to.Numbered(FamilyRunningNumber)[rn]; len(nodes) == 1 {
			return nodes[0], true
		}
	}

	key := FingerprintOf(from, n).Key()
	k := 0
	for _, x := range from.Nodes {
		if x == n {
			break
		}
		if FingerprintOf(from, x).Key() == key {
			k++
		}
	}
	for _, x := range to.Nodes {
		if FingerprintOf(to, x).Key() != key {
			continue
		}
		if k == 0 {
			return x, true
		}
		k--
	}
	return nil, false
}
