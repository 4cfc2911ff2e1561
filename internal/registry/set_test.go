package registry

import (
	"testing"
	"time"
)

const setDoc = "A <!-- expid:2 -->\n" +
	"  B #flow# <!-- fid:flowtab-1 -->\n" +
	"---\n" +
	"\n```nexus-doc\n{\"kind\":\"diagram\",\"version\":1}\n```\n" +
	"\n```flow-nodes\n{\"nextRunningNumber\":2,\"entries\":[{\"runningNumber\":1,\"content\":\"B\",\"parentPath\":[\"A\"],\"lineIndex\":1,\"type\":\"branch\"}]}\n```\n" +
	"\n```flow-connector-labels\n{not json\n```\n" +
	"\n```expanded-metadata-2\n{\"widthMultiplier\":3}\n```\n" +
	"\n```flowtab-swimlane-flowtab-1\n{\"lanes\":[{\"id\":\"l1\",\"label\":\"Staff\"}],\"stages\":[],\"placement\":{\"node-1\":{\"laneId\":\"l1\",\"stage\":0}}}\n```\n"

func TestLoadSet_IsolatesDecodeErrors(t *testing.T) {
	s := LoadSet(setDoc)
	if len(s.Errors) != 1 || s.Errors[0].Block != ConnectorLabelsBlock {
		t.Fatalf("errors = %v", s.Errors)
	}
	if s.ConnectorLabels == nil || len(s.ConnectorLabels) != 0 {
		t.Errorf("corrupt connector labels should degrade to empty, got %v", s.ConnectorLabels)
	}
	if e, ok := s.FlowNodes.Entry(1); !ok || e.Type != FlowBranch {
		t.Errorf("flow-node entry = %+v", e)
	}
	if s.Expanded[2].Width() != 3 || s.Expanded[2].Height() != 1 {
		t.Errorf("expanded = %+v", s.Expanded[2])
	}
	if sl, ok := s.Swimlanes["flowtab-1"]; !ok || sl.Placement["node-1"].LaneID != "l1" {
		t.Errorf("swimlane = %+v", s.Swimlanes)
	}
	if s.Kind() != KindDiagram || DocumentKind(setDoc) != KindDiagram {
		t.Errorf("kind = %q", s.Kind())
	}
	if ids := s.ExpandedIDs(); len(ids) != 1 || ids[0] != 2 {
		t.Errorf("expanded ids = %v", ids)
	}
}

func TestDocumentKind_DefaultsToNote(t *testing.T) {
	if k := DocumentKind("A\n"); k != KindNote {
		t.Errorf("kind = %q", k)
	}
}

func TestFlowNodes_AllocateNeverReuses(t *testing.T) {
	r := FlowNodes{Entries: []FlowNodeEntry{{RunningNumber: 3, Content: "x"}}}
	if n := r.Allocate(); n != 4 {
		t.Errorf("first = %d, want 4", n)
	}
	r.Entries = nil
	if n := r.Allocate(); n != 5 {
		t.Errorf("second = %d, want 5", n)
	}
}

func TestValidate_Payloads(t *testing.T) {
	if err := (FlowNodeEntry{RunningNumber: 1, Content: "x", Type: "jump"}).Validate(); err == nil {
		t.Error("unknown flow type should fail")
	}
	if err := (FlowNodeEntry{RunningNumber: 1, Content: "x"}).Validate(); err != nil {
		t.Errorf("empty type is allowed: %v", err)
	}
	if err := (ConnectorLabel{Label: "yes", Color: "red"}).Validate(); err == nil {
		t.Error("non-hex colour should fail")
	}
	if err := (ExpandedMetadata{WidthMultiplier: 9}).Validate(); err == nil {
		t.Error("width 9 should fail")
	}
	if err := (GridNode{Key: "g1", DataObjectAttributeIDs: []string{"a"}}).Validate(); err == nil {
		t.Error("doattrs without do should fail")
	}
	sl := Swimlane{
		Lanes:     []Lane{{ID: "l1"}},
		Placement: map[string]Placement{"node-1": {LaneID: "l2"}},
	}
	if err := sl.Validate(); err == nil {
		t.Error("placement in unknown lane should fail")
	}
	if err := (FlowtabReference{Kind: ReferenceInner, RootProcessNodeID: "node-1"}).Validate(); err == nil {
		t.Error("inner reference without target should fail")
	}
}

func TestHasConnectorsField(t *testing.T) {
	if !HasConnectorsField(`{"lanes":[],"connectors":[]}`) {
		t.Error("connectors key not detected")
	}
	if HasConnectorsField(`{"lanes":[]}`) {
		t.Error("false positive")
	}
}

func TestConnectorKey(t *testing.T) {
	from, to, ok := SplitConnectorKey(ConnectorKey("node-1", "node-4"))
	if !ok || from != "node-1" || to != "node-4" {
		t.Errorf("split = %q %q %v", from, to, ok)
	}
	if _, _, ok := SplitConnectorKey("node-1"); ok {
		t.Error("key without separator should not split")
	}
}

func TestTestingStore_Add(t *testing.T) {
	var s TestingStore
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := s.Add("happy path", "node-1", "", now)
	b := s.Add("edge", "node-1", "node-3", now)
	if a.ID != "test-1" || b.ID != "test-2" || s.NextID != 3 {
		t.Errorf("ids = %s %s next=%d", a.ID, b.ID, s.NextID)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestTestingStore_AddSkipsPastStoredIDs(t *testing.T) {
	// nextId lags behind a hand-edited test-5.
	s := TestingStore{NextID: 2, Tests: []TestCase{
		{ID: "test-1", Name: "a", FlowRootID: "node-1"},
		{ID: "test-5", Name: "b", FlowRootID: "node-1"},
	}}
	tc := s.Add("c", "node-1", "", time.Now())
	if tc.ID != "test-6" || s.NextID != 7 {
		t.Errorf("id = %s next=%d, want test-6 next=7", tc.ID, s.NextID)
	}
}

func TestDataObjects(t *testing.T) {
	d := DataObjects{Objects: []DataObject{{ID: "do-1", Name: "Applicant"}}}
	o := d.Add("Order")
	if o.ID != "do-2" {
		t.Errorf("id = %s", o.ID)
	}
	d.Objects[0].Data.Relations = []Relation{{Name: "orders", To: "do-9"}}
	if got := d.DanglingRelations(); len(got) != 1 {
		t.Errorf("dangling = %v", got)
	}
	if !d.Objects[0].AttributeIDs()[ObjectNameAttributeID] {
		t.Error("object name attribute missing")
	}
}
