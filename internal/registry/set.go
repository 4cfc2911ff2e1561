package registry

import (
	"encoding/json"
	"sort"
	"strings"
)

// Set is every registry decoded from one text snapshot. Each block decodes
// on its own; a malformed block leaves its registry empty and is recorded
// in Errors.
type Set struct {
	Header          Header
	Counters        Counters
	FlowNodes       FlowNodes
	ConnectorLabels ConnectorLabels
	Expanded        map[int]ExpandedMetadata
	Grids           map[int][]GridNode
	Swimlanes       map[string]Swimlane
	DataObjects     DataObjects
	References      FlowtabReferences
	GotoTargets     GotoTargets
	Testing         TestingStore
	PinnedTags      PinnedTags
	TagStore        TagStore
	Descriptions    Notes
	HubNotes        Notes

	// Present records which named blocks exist and decoded.
	Present map[string]bool
	Errors  []*DecodeError
}

// LoadSet decodes every known registry block in text.
func LoadSet(text string) *Set {
	s := &Set{
		Counters:        Counters{},
		ConnectorLabels: ConnectorLabels{},
		Expanded:        map[int]ExpandedMetadata{},
		Grids:           map[int][]GridNode{},
		Swimlanes:       map[string]Swimlane{},
		References:      FlowtabReferences{},
		GotoTargets:     GotoTargets{},
		Descriptions:    Notes{},
		HubNotes:        Notes{},
		Present:         map[string]bool{},
	}

	for _, b := range Blocks(text) {
		var target any
		switch {
		case b.Name == HeaderBlock:
			target = &s.Header
		case b.Name == CountersBlock:
			target = &s.Counters
		case b.Name == FlowNodesBlock:
			target = &s.FlowNodes
		case b.Name == ConnectorLabelsBlock:
			target = &s.ConnectorLabels
		case b.Name == DataObjectsBlock:
			target = &s.DataObjects
		case b.Name == FlowtabReferencesBlock:
			target = &s.References
		case b.Name == GotoTargetsBlock:
			target = &s.GotoTargets
		case b.Name == TestingStoreBlock:
			target = &s.Testing
		case b.Name == PinnedTagsBlock:
			target = &s.PinnedTags
		case b.Name == TagStoreBlock:
			target = &s.TagStore
		case b.Name == ConditionDescriptionsBlock:
			target = &s.Descriptions
		case b.Name == HubNotesBlock:
			target = &s.HubNotes
		case strings.HasPrefix(b.Name, ExpandedMetadataPrefix):
			id, ok := ExpandedIDFromBlock(b.Name, ExpandedMetadataPrefix)
			if !ok {
				continue
			}
			var m ExpandedMetadata
			if s.decode(b, &m) {
				s.Expanded[id] = m
			}
			continue
		case strings.HasPrefix(b.Name, ExpandedGridPrefix):
			id, ok := ExpandedIDFromBlock(b.Name, ExpandedGridPrefix)
			if !ok {
				continue
			}
			var g []GridNode
			if s.decode(b, &g) {
				s.Grids[id] = g
			}
			continue
		case strings.HasPrefix(b.Name, SwimlanePrefix):
			fid, _ := FlowIDFromSwimlane(b.Name)
			var sl Swimlane
			if s.decode(b, &sl) {
				s.Swimlanes[fid] = sl
			}
			continue
		default:
			continue
		}
		s.decode(b, target)
	}
	s.fillNil()
	return s
}

func (s *Set) decode(b Block, target any) bool {
	if err := json.Unmarshal([]byte(b.Body), target); err != nil {
		s.Errors = append(s.Errors, &DecodeError{Block: b.Name, Err: err})
		return false
	}
	s.Present[b.Name] = true
	return true
}

// fillNil restores empty maps a "null" body may have cleared.
func (s *Set) fillNil() {
	if s.Counters == nil {
		s.Counters = Counters{}
	}
	if s.ConnectorLabels == nil {
		s.ConnectorLabels = ConnectorLabels{}
	}
	if s.References == nil {
		s.References = FlowtabReferences{}
	}
	if s.GotoTargets == nil {
		s.GotoTargets = GotoTargets{}
	}
	if s.Descriptions == nil {
		s.Descriptions = Notes{}
	}
	if s.HubNotes == nil {
		s.HubNotes = Notes{}
	}
}

// Kind returns the document kind, "note" by default.
func (s *Set) Kind() string {
	if s.Header.Kind == "" {
		return KindNote
	}
	return s.Header.Kind
}

// ExpandedIDs returns every expid with a metadata or grid block, sorted.
func (s *Set) ExpandedIDs() []int {
	seen := make(map[int]bool)
	for id := range s.Expanded {
		seen[id] = true
	}
	for id := range s.Grids {
		seen[id] = true
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
