// Package validate runs the whole-document consistency pass and condenses
// its findings into a checklist summary.
package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/nexusmap/internal/identity"
	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/registry"
)

// Options selects the tag policies enforced on top of the format rules.
type Options struct {
	// RequireActorTags demands exactly one actor tag on every #flow# line.
	RequireActorTags bool `yaml:"require_actor_tags" json:"requireActorTags"`
	// RequireUISurfaceTags demands a ui-surface tag on every expid line.
	RequireUISurfaceTags bool `yaml:"require_ui_surface_tags" json:"requireUiSurfaceTags"`
}

// Summary is the checklist view of a report.
type Summary struct {
	Errors      int     `json:"errors"`
	Warnings    int     `json:"warnings"`
	Nodes       int     `json:"nodes"`
	FlowNodes   int     `json:"flowNodes"`
	TypedFlow   int     `json:"typedFlowNodes"`
	Coverage    float64 `json:"flowTypeCoverage"`
	Hubs        int     `json:"hubs"`
	Variants    int     `json:"variants"`
	Registries  int     `json:"registries"`
	Orphans     int     `json:"orphans"`
	Ambiguities int     `json:"ambiguities"`
}

// Report is the result of validating one document.
type Report struct {
	Kind       string          `json:"kind"`
	Structural bool            `json:"structuralErrors"`
	Issues     []outline.Issue `json:"issues"`
	Summary    Summary         `json:"summary"`
}

// OK reports whether the document has no errors.
func (r *Report) OK() bool { return r.Summary.Errors == 0 }

type checker struct {
	opts   Options
	src    *outline.Source
	tree   *outline.Forest
	set    *registry.Set
	text   string
	groups map[string]string
	issues []outline.Issue
	once   map[string]bool
}

// Document validates text. It never fails: every finding, structural ones
// included, is reported as an issue.
func Document(text string, opts Options) *Report {
	text = outline.Normalize(text)
	c := &checker{
		opts: opts,
		text: text,
		set:  registry.LoadSet(text),
		once: map[string]bool{},
	}
	c.src, _ = outline.Scan(text)
	c.groups = c.set.TagStore.GroupOf()

	tree, err := outline.Parse(text)
	var se *outline.StructuralError
	switch {
	case errors.As(err, &se):
		for _, pe := range se.Errors {
			c.add(outline.SeverityError, structuralCode(pe.Kind), pe.Line+1, "%s", pe.Message)
		}
	case err != nil:
		c.add(outline.SeverityError, CodeUnclosedCodeBlock, 0, "%v", err)
	default:
		c.tree = tree
		c.issues = append(c.issues, tree.Issues...)
	}

	for _, de := range c.set.Errors {
		c.add(outline.SeverityError, CodeInvalidJSON, 0, "invalid JSON in %s: %v", de.Block, de.Err)
	}

	c.checkLines()
	c.checkExpandedAttributes()
	c.checkSwimlanes()
	c.checkPayloads()
	if c.tree != nil {
		c.checkReferences()
		c.checkDuplicates()
	}
	return c.report()
}

func structuralCode(kind outline.ErrorKind) string {
	switch kind {
	case outline.KindTabIndentation:
		return CodeTabIndentation
	case outline.KindOddIndentation:
		return CodeOddIndentation
	case outline.KindIndentJumpTooLarge:
		return CodeIndentJump
	case outline.KindMultipleSeparators:
		return CodeMultipleSeparators
	}
	return CodeUnclosedCodeBlock
}

func (c *checker) add(sev outline.Severity, code string, line int, format string, args ...any) {
	c.issues = append(c.issues, outline.Issue{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
	})
}

// addOnce reports an issue keyed by key at most once per document.
func (c *checker) addOnce(key string, sev outline.Severity, code string, format string, args ...any) {
	if c.once[key] {
		return
	}
	c.once[key] = true
	c.add(sev, code, 0, format, args...)
}

func (c *checker) requireTagStore() bool {
	if c.set.Present[registry.TagStoreBlock] {
		return true
	}
	c.addOnce("tag-store", outline.SeverityError, CodeMissingTagStore,
		"missing %s block, required when lines use tags", registry.TagStoreBlock)
	return false
}

func (c *checker) requireGroup(id string) {
	if c.set.TagStore.HasGroup(id) {
		return
	}
	c.addOnce("group:"+id, outline.SeverityError, CodeMissingTagGroup, "tag-store is missing required group %q", id)
}

func (c *checker) actorTags(tags []string) []string {
	var out []string
	for _, id := range tags {
		if registry.IsActorTag(id, c.groups) {
			out = append(out, id)
		}
	}
	return out
}

// checkLines runs the per-line format and tag rules over the outline.
func (c *checker) checkLines() {
	for i := 0; i < c.src.OutlineEnd(); i++ {
		if !c.src.IsNodeLine(i) {
			continue
		}
		line := c.src.Lines[i]
		ln := i + 1
		m := outline.ParseMarkers(line)
		title := outline.StripMarkers(line)

		if actorPrefixRe.MatchString(title) {
			c.add(outline.SeverityError, CodeActorPrefixInTitle, ln,
				"title encodes an actor prefix; use actor tags and swimlanes instead")
		}

		if len(m.Tags) > 0 && c.requireTagStore() {
			for _, id := range m.Tags {
				if _, ok := c.groups[id]; !ok {
					c.add(outline.SeverityError, CodeUnknownTagID, ln, "unknown tag id %q", id)
				}
			}
		}

		if m.Flow && c.opts.RequireActorTags {
			if c.requireTagStore() {
				c.requireGroup(registry.GroupActors)
			}
			switch actors := c.actorTags(m.Tags); {
			case len(actors) == 0:
				c.add(outline.SeverityError, CodeMissingActorTag, ln, "#flow# line has no actor tag")
			case len(actors) > 1:
				c.add(outline.SeverityError, CodeMultipleActorTags, ln,
					"#flow# line has several actor tags: %s", strings.Join(actors, ", "))
			}
		}
		if m.Flow && timeframeRe.MatchString(title) {
			c.add(outline.SeverityWarning, CodeCrossTimeframe, ln,
				"#flow# line signals a cross-timeframe wait; split long-running work into its own flow")
		}

		if len(m.DataObjectAttributeIDs) > 0 {
			c.checkAttributes(m.DataObjectID, m.DataObjectAttributeIDs, ln, "line")
		} else if m.DataObjectID != "" && c.set.Present[registry.DataObjectsBlock] {
			if _, ok := c.set.DataObjects.Object(m.DataObjectID); !ok {
				c.add(outline.SeverityWarning, CodeUnknownDataObject, ln, "unknown data object %q", m.DataObjectID)
			}
		}

		if m.ExpandedID > 0 && c.opts.RequireUISurfaceTags {
			if c.requireTagStore() {
				c.requireGroup(registry.GroupUISurface)
			}
			surface := false
			for _, id := range m.Tags {
				if c.groups[id] == registry.GroupUISurface {
					surface = true
				}
			}
			if !surface {
				c.add(outline.SeverityError, CodeMissingUISurfaceTag, ln, "expanded node has no ui-surface tag")
			}
		}
	}
}

// checkAttributes validates a data-object binding. where names the
// binding site for messages.
func (c *checker) checkAttributes(doID string, attrs []string, line int, where string) {
	if doID == "" {
		c.add(outline.SeverityError, CodeDoAttrsWithoutDo, line, "%s lists data-object attributes without a data object", where)
		return
	}
	obj, ok := c.set.DataObjects.Object(doID)
	if !ok {
		if c.set.Present[registry.DataObjectsBlock] {
			c.add(outline.SeverityWarning, CodeUnknownDataObject, line, "%s references unknown data object %q", where, doID)
		}
		return
	}
	allowed := obj.AttributeIDs()
	for _, a := range attrs {
		if !allowed[a] {
			c.add(outline.SeverityWarning, CodeUnknownAttributeID, line,
				"%s references unknown attribute %q of data object %q", where, a, doID)
		}
	}
}

func (c *checker) checkExpandedAttributes() {
	for _, id := range c.set.ExpandedIDs() {
		if meta, ok := c.set.Expanded[id]; ok && len(meta.DataObjectAttributeIDs) > 0 {
			c.checkAttributes(meta.DataObjectID, meta.DataObjectAttributeIDs, 0, registry.ExpandedMetadataBlock(id))
		}
		for k, g := range c.set.Grids[id] {
			if len(g.DataObjectAttributeIDs) > 0 {
				where := fmt.Sprintf("%s grid node #%d", registry.ExpandedGridBlock(id), k+1)
				c.checkAttributes(g.DataObjectID, g.DataObjectAttributeIDs, 0, where)
			}
		}
	}
}

// checkSwimlanes compares lane labels with the actor tags of placed nodes
// and rejects stored connectors.
func (c *checker) checkSwimlanes() {
	for _, b := range registry.Blocks(c.text) {
		if _, ok := registry.FlowIDFromSwimlane(b.Name); ok && registry.HasConnectorsField(b.Body) {
			c.add(outline.SeverityError, CodeSwimlaneConnectors, 0,
				"%s stores connectors; connectors are derived from the outline", b.Name)
		}
	}

	for _, fid := range sortedKeys(c.set.Swimlanes) {
		sl := c.set.Swimlanes[fid]
		block := registry.SwimlaneBlock(fid)
		for _, nodeID := range sortedKeys(sl.Placement) {
			label := sl.LaneLabel(sl.Placement[nodeID].LaneID)
			expected, ok := ExpectedActor(label)
			if !ok {
				continue
			}
			line, ok := outline.LineOf(nodeID)
			if !ok || line >= len(c.src.Lines) {
				continue
			}
			actors := c.actorTags(outline.ParseMarkers(c.src.Lines[line]).Tags)
			switch {
			case len(actors) == 0:
				c.add(outline.SeverityWarning, CodeSwimlaneMissingActor, line+1,
					"%s places %s in lane %q but the node has no actor tag", block, nodeID, label)
			case len(actors) == 1 && actors[0] != expected:
				c.add(outline.SeverityWarning, CodeSwimlaneActorMismatch, line+1,
					"%s places %s in lane %q (implies %s) but its actor tag is %q", block, nodeID, label, expected, actors[0])
			}
		}
	}
}

type validatable interface {
	Validate() error
}

// checkPayloads runs the registry shape rules.
func (c *checker) checkPayloads() {
	bad := func(block string, err error) {
		c.add(outline.SeverityWarning, CodeInvalidRegistryEntry, 0, "%s: %v", block, err)
	}
	check := func(block string, v validatable) {
		if err := v.Validate(); err != nil {
			bad(block, err)
		}
	}

	for _, e := range c.set.FlowNodes.Entries {
		check(registry.FlowNodesBlock, e)
	}
	for _, key := range sortedKeys(c.set.ConnectorLabels) {
		if err := c.set.ConnectorLabels[key].Validate(); err != nil {
			bad(registry.ConnectorLabelsBlock, fmt.Errorf("%s: %w", key, err))
		}
	}
	for _, id := range c.set.ExpandedIDs() {
		if meta, ok := c.set.Expanded[id]; ok {
			check(registry.ExpandedMetadataBlock(id), meta)
		}
		for _, g := range c.set.Grids[id] {
			check(registry.ExpandedGridBlock(id), g)
		}
	}
	for _, fid := range sortedKeys(c.set.Swimlanes) {
		check(registry.SwimlaneBlock(fid), c.set.Swimlanes[fid])
	}
	for _, o := range c.set.DataObjects.Objects {
		check(registry.DataObjectsBlock, o)
		for _, r := range o.Data.Relations {
			check(registry.DataObjectsBlock, r)
		}
	}
	for _, key := range sortedKeys(c.set.References) {
		if err := c.set.References[key].Validate(); err != nil {
			bad(registry.FlowtabReferencesBlock, fmt.Errorf("%s: %w", key, err))
		}
	}
	for _, tc := range c.set.Testing.Tests {
		check(registry.TestingStoreBlock, tc)
	}
	if c.set.Present[registry.TagStoreBlock] {
		check(registry.TagStoreBlock, c.set.TagStore)
	}
	for _, id := range c.set.PinnedTags.TagIDs {
		if _, ok := c.groups[id]; !ok {
			c.add(outline.SeverityWarning, CodeUnknownTagID, 0, "%s names unknown tag %q", registry.PinnedTagsBlock, id)
		}
	}
}

func (c *checker) dangling(block, format string, args ...any) {
	c.add(outline.SeverityWarning, CodeDanglingReference, 0, block+": "+format, args...)
}

func (c *checker) node(id string) (*outline.Node, bool) {
	return c.tree.Node(id)
}

// checkReferences reports registry entries naming lines or numbers that no
// longer exist.
func (c *checker) checkReferences() {
	for _, key := range sortedKeys(c.set.ConnectorLabels) {
		from, to, ok := registry.SplitConnectorKey(key)
		if !ok {
			c.dangling(registry.ConnectorLabelsBlock, "malformed key %q", key)
			continue
		}
		parent, okf := c.node(from)
		child, okt := c.node(to)
		if !okf || !okt {
			c.dangling(registry.ConnectorLabelsBlock, "%s names a missing node", key)
			continue
		}
		if child.Parent() != parent {
			c.add(outline.SeverityWarning, CodeConnectorNotEdge, child.LineIndex+1,
				"%s labels %s, which is not a direct parent to child edge", registry.ConnectorLabelsBlock, key)
		}
	}

	flows := map[string]bool{}
	for _, n := range c.tree.Nodes {
		if n.Markers.FlowID != "" {
			flows[n.Markers.FlowID] = true
		}
	}
	for _, fid := range sortedKeys(c.set.Swimlanes) {
		block := registry.SwimlaneBlock(fid)
		if !flows[fid] {
			c.dangling(block, "no line carries fid %s", fid)
		}
		for _, id := range sortedKeys(c.set.Swimlanes[fid].Placement) {
			if _, ok := c.node(id); !ok {
				c.dangling(block, "placement names missing node %s", id)
			}
		}
	}

	for _, id := range c.set.ExpandedIDs() {
		if _, ok := identity.Lookup(c.tree, identity.FamilyExpanded, id); !ok {
			c.dangling(registry.ExpandedMetadataBlock(id), "no line carries expid %d", id)
		}
	}

	for _, key := range sortedKeys(c.set.References) {
		ref := c.set.References[key]
		for _, id := range append([]string{key}, ref.NodeIDs()...) {
			if _, ok := c.node(id); !ok {
				c.dangling(registry.FlowtabReferencesBlock, "%s names missing node %s", key, id)
			}
		}
	}
	for _, key := range sortedKeys(c.set.GotoTargets) {
		for _, id := range []string{key, c.set.GotoTargets[key]} {
			if _, ok := c.node(id); !ok {
				c.dangling(registry.GotoTargetsBlock, "%s names missing node %s", key, id)
			}
		}
	}
	for _, tc := range c.set.Testing.Tests {
		if _, ok := c.node(tc.FlowRootID); !ok {
			c.dangling(registry.TestingStoreBlock, "%s names missing flow root %s", tc.ID, tc.FlowRootID)
		}
		if tc.FlowNodeID != "" {
			if _, ok := c.node(tc.FlowNodeID); !ok {
				c.dangling(registry.TestingStoreBlock, "%s names missing flow node %s", tc.ID, tc.FlowNodeID)
			}
		}
	}

	res := identity.ResolveFlowNodes(c.tree, c.set.FlowNodes)
	for _, idx := range res.Orphans {
		e := c.set.FlowNodes.Entries[idx]
		c.dangling(registry.FlowNodesBlock, "entry %d (%q) matches no line", e.RunningNumber, e.Content)
	}
	for _, n := range c.tree.Nodes {
		if n.IsFlowNode && c.set.Present[registry.FlowNodesBlock] {
			if _, ok := res.Entry(n.LineIndex); !ok {
				c.add(outline.SeverityWarning, CodeUntypedFlowNode, n.LineIndex+1, "flow node %q has no type entry", n.Content)
			}
		}
	}

	for _, notes := range []struct {
		block  string
		family string
		value  registry.Notes
	}{
		{registry.ConditionDescriptionsBlock, identity.FamilyDescription, c.set.Descriptions},
		{registry.HubNotesBlock, identity.FamilyHubNote, c.set.HubNotes},
	} {
		numbered := c.tree.Numbered(notes.family)
		for _, key := range sortedKeys(notes.value) {
			var n int
			if _, err := fmt.Sscanf(key, "%d", &n); err != nil || len(numbered[n]) == 0 {
				c.dangling(notes.block, "no line carries %s %s", notes.family, key)
			}
		}
	}

	for _, d := range c.set.DataObjects.DanglingRelations() {
		c.dangling(registry.DataObjectsBlock, "relation %s targets a missing object", d)
	}
}

func (c *checker) checkDuplicates() {
	for _, family := range identity.MarkerFamilies {
		numbered := c.tree.Numbered(family)
		for _, n := range identity.Duplicates(c.tree, family) {
			lines := make([]string, 0, len(numbered[n]))
			for _, node := range numbered[n] {
				lines = append(lines, fmt.Sprint(node.LineIndex+1))
			}
			c.add(outline.SeverityError, CodeDuplicateNumber, numbered[n][0].LineIndex+1,
				"%s %s is carried by lines %s", family, identity.FormatNumber(family, n), strings.Join(lines, ", "))
		}
	}
}

func (c *checker) report() *Report {
	r := &Report{Kind: c.set.Kind(), Issues: c.issues, Structural: c.tree == nil}
	if r.Issues == nil {
		r.Issues = []outline.Issue{}
	}
	sort.SliceStable(r.Issues, func(i, j int) bool {
		a, b := r.Issues[i], r.Issues[j]
		if a.Severity != b.Severity {
			return a.Severity == outline.SeverityError
		}
		return a.Line < b.Line
	})

	s := &r.Summary
	for _, is := range r.Issues {
		switch {
		case is.Severity == outline.SeverityError:
			s.Errors++
		default:
			s.Warnings++
		}
		switch is.Code {
		case CodeDanglingReference:
			s.Orphans++
		case outline.CodeAmbiguousHub:
			s.Ambiguities++
		}
	}
	s.Registries = len(c.set.Present)
	if c.tree == nil {
		return r
	}

	res := identity.ResolveFlowNodes(c.tree, c.set.FlowNodes)
	for _, n := range c.tree.Nodes {
		s.Nodes++
		if n.IsHub() {
			s.Hubs++
			s.Variants += len(n.Hub.Variants)
		}
		if n.IsFlowNode {
			s.FlowNodes++
			if _, ok := res.Entry(n.LineIndex); ok {
				s.TypedFlow++
			}
		}
	}
	if s.FlowNodes > 0 {
		s.Coverage = float64(s.TypedFlow) / float64(s.FlowNodes)
	}
	return r
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
