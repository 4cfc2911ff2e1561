package outline

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NodeID returns the transient id of the node on line i. It is only valid
// within one parse of one text snapshot.
func NodeID(lineIndex int) string {
	return fmt.Sprintf("node-%d", lineIndex)
}

// LineOf parses a transient node id back into its line index.
func LineOf(id string) (int, bool) {
	var n int
	if _, err := fmt.Sscanf(id, "node-%d", &n); err != nil || n < 0 || NodeID(n) != id {
		return 0, false
	}
	return n, true
}

// Node is one outline entry.
type Node struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	Title       string `json:"title"`
	RawContent  string `json:"rawContent"`
	Level       int    `json:"level"`
	VisualLevel int    `json:"visualLevel"`
	LineIndex   int    `json:"lineIndex"`
	ParentID    string `json:"parentId,omitempty"`

	Children []*Node `json:"children"`

	Icon                   string            `json:"icon,omitempty"`
	Annotation             string            `json:"annotation,omitempty"`
	DataObjectID           string            `json:"dataObjectId,omitempty"`
	DataObjectAttributeIDs []string          `json:"dataObjectAttributeIds,omitempty"`
	Conditions             map[string]string `json:"conditions,omitempty"`
	Tags                   []string          `json:"tags,omitempty"`
	IsFlowNode             bool              `json:"isFlowNode,omitempty"`
	IsFlowTab              bool              `json:"isFlowTab,omitempty"`
	IsCommon               bool              `json:"isCommon,omitempty"`

	Markers Markers `json:"-"`

	// Hub is set only on the head of a hub group.
	Hub *Hub `json:"hub,omitempty"`

	parent  *Node
	hubHead *Node
}

// Parent returns the structural parent, nil for roots.
func (n *Node) Parent() *Node { return n.parent }

// IsHub reports whether n heads a hub.
func (n *Node) IsHub() bool { return n.Hub != nil }

// HubHead returns the hub head n belongs to: n itself for heads, the head
// for other variants, nil for nodes outside any hub.
func (n *Node) HubHead() *Node {
	if n.Hub != nil {
		return n
	}
	return n.hubHead
}

// DisplayChildren returns the children used for layout. For a hub it is the
// union of every variant's children in variant order.
func (n *Node) DisplayChildren() []*Node {
	if n.Hub == nil {
		return n.Children
	}
	var out []*Node
	for _, v := range n.Hub.Variants {
		out = append(out, v.Children...)
	}
	return out
}

// Hub groups sibling lines that share a title and differ only by conditions.
// Variants[0] is the head.
type Hub struct {
	Keys     []string
	Variants []*Node
}

// MarshalJSON emits keys and the non-head variants. The head is the node
// the hub is attached to.
func (h *Hub) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Keys     []string `json:"keys"`
		Variants []*Node  `json:"variants"`
	}{Keys: h.Keys, Variants: h.Variants[1:]})
}

// Forest is the parsed outline of one text snapshot.
type Forest struct {
	Roots []*Node `json:"roots"`
	// Nodes lists every node, hub variants included, in line order.
	Nodes  []*Node `json:"-"`
	Issues []Issue `json:"issues,omitempty"`

	source *Source
	byID   map[string]*Node
	byLine map[int]*Node
}

// Source returns the normalised source the forest was built from.
func (f *Forest) Source() *Source { return f.source }

// Node looks a node up by transient id.
func (f *Forest) Node(id string) (*Node, bool) {
	n, ok := f.byID[id]
	return n, ok
}

// AtLine looks a node up by line index.
func (f *Forest) AtLine(i int) (*Node, bool) {
	n, ok := f.byLine[i]
	return n, ok
}

// Descendants returns every node below n: its children, the other variants
// of a hub head, and all of their subtrees, in line order.
func (f *Forest) Descendants(n *Node) []*Node {
	seen := make(map[*Node]bool)
	var out []*Node
	var walk func(*Node)
	walk = func(x *Node) {
		for _, c := range x.Children {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			if c.Hub != nil {
				for _, v := range c.Hub.Variants[1:] {
					if !seen[v] {
						seen[v] = true
						out = append(out, v)
						walk(v)
					}
				}
			}
			walk(c)
		}
	}
	seen[n] = true
	walk(n)
	if n.Hub != nil {
		for _, v := range n.Hub.Variants[1:] {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
				walk(v)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineIndex < out[j].LineIndex })
	return out
}

// Group returns n and, for a hub head, every variant.
func Group(n *Node) []*Node {
	if n.Hub != nil {
		return n.Hub.Variants
	}
	return []*Node{n}
}

// ParentPath returns the content of each ancestor from the root down.
func (f *Forest) ParentPath(n *Node) []string {
	var path []string
	for p := n.parent; p != nil; p = p.parent {
		path = append(path, p.Content)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	if path == nil {
		path = []string{}
	}
	return path
}

// Numbered maps each marker number of a family to the nodes carrying it.
func (f *Forest) Numbered(key string) map[int][]*Node {
	out := make(map[int][]*Node)
	for _, n := range f.Nodes {
		if num, ok := n.Markers.Number(key); ok {
			out[num] = append(out[num], n)
		}
	}
	return out
}

// Walk visits the display tree depth-first, hubs counted once.
func (f *Forest) Walk(fn func(n *Node, depth int)) {
	var visit func(*Node, int)
	visit = func(n *Node, depth int) {
		fn(n, depth)
		for _, c := range n.DisplayChildren() {
			visit(c, depth+1)
		}
	}
	for _, r := range f.Roots {
		visit(r, 0)
	}
}
