// Package outline parses the indented outline of a document into a typed
// node forest, folding condition-differentiated siblings into hubs.
package outline

import (
	"fmt"
	"strings"
)

// Parse normalises text and builds the outline forest. Structural violations
// abort the parse with a *StructuralError; ambiguous hub groups are reported
// as issues on the returned forest.
func Parse(text string) (*Forest, error) {
	src, errs := Scan(text)
	tokens, tokErrs := Tokenize(src)
	errs = append(errs, tokErrs...)
	if len(errs) > 0 {
		sortParseErrors(errs)
		return nil, &StructuralError{Errors: errs}
	}
	return build(src, tokens), nil
}

func build(src *Source, tokens []Token) *Forest {
	f := &Forest{
		source: src,
		byID:   make(map[string]*Node, len(tokens)),
		byLine: make(map[int]*Node, len(tokens)),
	}

	var (
		roots []*Node
		stack []*Node
	)
	for _, tok := range tokens {
		n := newNode(tok)
		f.Nodes = append(f.Nodes, n)
		f.byID[n.ID] = n
		f.byLine[n.LineIndex] = n

		stack = stack[:tok.Depth]
		if tok.Depth == 0 {
			roots = append(roots, n)
		} else {
			p := stack[tok.Depth-1]
			n.parent = p
			n.ParentID = p.ID
			p.Children = append(p.Children, n)
		}
		stack = append(stack, n)
	}

	f.Roots = f.fold(roots)
	f.assignVisualLevels()
	return f
}

func newNode(tok Token) *Node {
	content := StripMarkers(tok.Text)
	title, conds, _ := SplitConditions(content)
	m := tok.Markers
	return &Node{
		ID:                     NodeID(tok.LineIndex),
		Content:                content,
		Title:                  title,
		RawContent:             tok.Text,
		Level:                  tok.Depth,
		LineIndex:              tok.LineIndex,
		Icon:                   m.Icon,
		Annotation:             m.Annotation,
		DataObjectID:           m.DataObjectID,
		DataObjectAttributeIDs: m.DataObjectAttributeIDs,
		Conditions:             conds,
		Tags:                   m.Tags,
		IsFlowNode:             m.Flow,
		IsFlowTab:              m.FlowTab,
		IsCommon:               m.Common,
		Markers:                m,
	}
}

// fold rewrites each sibling list bottom-up, replacing valid hub groups by
// their head.
func (f *Forest) fold(siblings []*Node) []*Node {
	for _, n := range siblings {
		n.Children = f.fold(n.Children)
	}

	var out []*Node
	for i := 0; i < len(siblings); {
		j := i + 1
		for j < len(siblings) && siblings[j].Title == siblings[i].Title {
			j++
		}
		group := siblings[i:j]
		if len(group) > 1 {
			if hub, reason := classifyGroup(group); hub != nil {
				head := group[0]
				head.Hub = hub
				for _, v := range group[1:] {
					v.hubHead = head
				}
				out = append(out, head)
				i = j
				continue
			} else if reason != "" {
				f.Issues = append(f.Issues, Issue{
					Severity: SeverityWarning,
					Code:     CodeAmbiguousHub,
					Message:  fmt.Sprintf("siblings titled %q %s", group[0].Title, reason),
					Line:     group[0].LineIndex + 1,
				})
			}
		}
		out = append(out, group...)
		i = j
	}
	return out
}

// classifyGroup decides whether same-titled siblings form a hub. It returns
// a non-empty reason when the group looks like a hub but is ambiguous.
// Plain duplicate titles without conditions are neither.
func classifyGroup(group []*Node) (*Hub, string) {
	conditioned := 0
	for _, n := range group {
		if len(n.Conditions) > 0 {
			conditioned++
		}
	}
	switch {
	case conditioned == 0:
		return nil, ""
	case conditioned < len(group):
		return nil, "mix conditioned and unconditioned lines"
	}

	var (
		keySig string
		keys   []string
		values = make(map[string]bool, len(group))
	)
	for i, n := range group {
		set, err := NewConditionSet(n.Conditions)
		if err != nil {
			return nil, err.Error()
		}
		if i == 0 {
			keySig = set.KeySignature()
			keys = set.Keys()
		} else if set.KeySignature() != keySig {
			return nil, fmt.Sprintf("use different condition keys (%s vs %s)",
				strings.Join(keys, ","), strings.Join(set.Keys(), ","))
		}
		vs := set.ValueSignature()
		if values[vs] {
			return nil, fmt.Sprintf("repeat the condition set (%s)", set.String())
		}
		values[vs] = true
	}
	return &Hub{Keys: keys, Variants: append([]*Node(nil), group...)}, ""
}

func (f *Forest) assignVisualLevels() {
	var visit func(n *Node, level int)
	visit = func(n *Node, level int) {
		for _, v := range Group(n) {
			v.VisualLevel = level
			for _, c := range v.Children {
				visit(c, level+1)
			}
		}
	}
	for _, r := range f.Roots {
		visit(r, 0)
	}
}

func sortParseErrors(errs []*ParseError) {
	for i := 1; i < len(errs); i++ {
		for j := i; j > 0 && errs[j].Line < errs[j-1].Line; j-- {
			errs[j], errs[j-1] = errs[j-1], errs[j]
		}
	}
}
