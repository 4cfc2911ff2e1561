package layout

import (
	"testing"

	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/registry"
)

func parse(t *testing.T, text string) (*outline.Forest, *registry.Set) {
	t.Helper()
	f, err := outline.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f, registry.LoadSet(text)
}

func TestCompute_ParentCentredOnChildren(t *testing.T) {
	f, set := parse(t, "A\n  B\n  C\n  D\n")
	g := Compute(f, set)

	a, b, d := g.Rects["node-0"], g.Rects["node-1"], g.Rects["node-3"]
	if a.X != 0 || b.X != NodeWidth+ColumnGap {
		t.Errorf("columns: a=%+v b=%+v", a, b)
	}
	if b.Y != 0 || d.Y != 2*(NodeHeight+RowGap) {
		t.Errorf("stacking: b=%+v d=%+v", b, d)
	}
	if want := (b.Y + d.Bottom() - NodeHeight) / 2; a.Y != want {
		t.Errorf("parent y = %d, want %d", a.Y, want)
	}
	if g.Width != b.Right() || g.Height != d.Bottom() {
		t.Errorf("bounds = %dx%d", g.Width, g.Height)
	}
}

func TestCompute_HubVariantsShareSlot(t *testing.T) {
	f, set := parse(t, "A\n  C (Status=Open)\n    X\n  C (Status=Closed)\n    Y\n")
	g := Compute(f, set)

	if g.Rects["node-1"] != g.Rects["node-3"] {
		t.Errorf("variants differ: %+v vs %+v", g.Rects["node-1"], g.Rects["node-3"])
	}
	x, y := g.Rects["node-2"], g.Rects["node-4"]
	if x.X != y.X || x.Y == y.Y {
		t.Errorf("hub children should stack in one column: %+v %+v", x, y)
	}
}

func TestCompute_ExpandedMultipliers(t *testing.T) {
	text := "A <!-- expid:1 -->\nB <!-- expid:2 -->\n---\n" +
		"```expanded-metadata-1\n{\"widthMultiplier\":3,\"heightMultiplier\":2}\n```\n"
	f, set := parse(t, text)
	g := Compute(f, set)

	a, b := g.Rects["node-0"], g.Rects["node-1"]
	if a.W != 3*NodeWidth || a.H != 2*NodeHeight {
		t.Errorf("expanded = %+v", a)
	}
	if b.W != NodeWidth || b.H != NodeHeight {
		t.Errorf("no metadata = %+v", b)
	}
	if b.Y != a.Bottom()+RowGap {
		t.Errorf("b.Y = %d, want below a", b.Y)
	}
}

func TestCompute_TallParentPushesCursor(t *testing.T) {
	text := "A <!-- expid:1 -->\n  B\nC\n---\n" +
		"```expanded-metadata-1\n{\"heightMultiplier\":4}\n```\n"
	f, set := parse(t, text)
	g := Compute(f, set)

	a, c := g.Rects["node-0"], g.Rects["node-2"]
	if c.Y < a.Bottom() {
		t.Errorf("C overlaps A: a=%+v c=%+v", a, c)
	}
}

func TestSwimlane_Placement(t *testing.T) {
	text := "Flow #flowtab# <!-- fid:flowtab-1 -->\n" +
		"  Submit #flow#\n" +
		"    Review #flow#\n" +
		"  Note\n" +
		"  Pay #flow#\n" +
		"---\n" +
		"```flowtab-swimlane-flowtab-1\n" +
		`{"lanes":[{"id":"a","label":"Applicant"},{"id":"s","label":"Staff"}],` +
		`"stages":[{"id":"1","label":"Intake"},{"id":"2","label":"Decision"}],` +
		`"placement":{"node-2":{"laneId":"s","stage":1},"node-4":{"laneId":"gone","stage":1}}}` +
		"\n```\n"
	f, set := parse(t, text)
	g, ok := Swimlane(f, set, "flowtab-1")
	if !ok {
		t.Fatal("flow not found")
	}
	if len(g.Lanes) != 2 || len(g.Stages) != 2 || g.RootID != "node-0" {
		t.Fatalf("grid = %+v", g)
	}
	if _, ok := g.Cells["node-3"]; ok {
		t.Error("non-flow line placed")
	}

	submit, review, pay := g.Cells["node-1"], g.Cells["node-2"], g.Cells["node-4"]
	if review.Y < g.Lanes[1].Rect.Y || review.X <= submit.X {
		t.Errorf("review = %+v, lanes %+v", review, g.Lanes)
	}
	// Unknown lane falls back to the first lane at depth stage.
	if pay.X != submit.X || pay.Y <= submit.Y {
		t.Errorf("pay = %+v submit = %+v", pay, submit)
	}
	if g.Lanes[0].Rect.H != 2*(NodeHeight+RowGap)+RowGap {
		t.Errorf("lane 0 height = %d", g.Lanes[0].Rect.H)
	}
}

func TestSwimlane_WithoutRegistry(t *testing.T) {
	f, set := parse(t, "Flow #flowtab# <!-- fid:flowtab-2 -->\n  A #flow#\n    B #flow#\n")
	g, ok := Swimlane(f, set, "flowtab-2")
	if !ok {
		t.Fatal("flow not found")
	}
	if len(g.Lanes) != 1 || g.Cells["node-1"].X != g.Cells["node-2"].X {
		t.Errorf("single stage grid = %+v", g)
	}
	if _, ok := Swimlane(f, set, "flowtab-9"); ok {
		t.Error("unknown fid should report false")
	}
}
