package outline

import (
	"errors"
	"testing"
)

func TestParse_ExampleScenario(t *testing.T) {
	input := "A\n  B #flow#\n  C (Status=Open)\n  C (Status=Closed)\n---\n"
	f, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Roots) != 1 || f.Roots[0].Content != "A" {
		t.Fatalf("roots = %+v", f.Roots)
	}
	a := f.Roots[0]
	if len(a.Children) != 2 {
		t.Fatalf("A children = %d, want 2 (B and hub C)", len(a.Children))
	}
	b, c := a.Children[0], a.Children[1]
	if b.Content != "B" || !b.IsFlowNode {
		t.Errorf("B = %+v", b)
	}
	if !c.IsHub() {
		t.Fatal("C should be a hub")
	}
	if len(c.Hub.Variants) != 2 {
		t.Fatalf("variants = %d, want 2", len(c.Hub.Variants))
	}
	if c.Hub.Variants[0].Conditions["Status"] != "Open" || c.Hub.Variants[1].Conditions["Status"] != "Closed" {
		t.Errorf("variant conditions = %v / %v", c.Hub.Variants[0].Conditions, c.Hub.Variants[1].Conditions)
	}
	for _, v := range c.Hub.Variants {
		if v.Title != "C" {
			t.Errorf("variant title = %q", v.Title)
		}
		if v.HubHead() != c {
			t.Errorf("variant %s head mismatch", v.ID)
		}
	}
	if len(f.Issues) != 0 {
		t.Errorf("unexpected issues: %+v", f.Issues)
	}
}

func TestParse_TransientIDsAndParents(t *testing.T) {
	f, err := Parse("Root\n  Child\n    Grandchild\n  Sibling\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	gc, ok := f.Node("node-2")
	if !ok {
		t.Fatal("node-2 missing")
	}
	if gc.ParentID != "node-1" || gc.Level != 2 {
		t.Errorf("grandchild = parent %q level %d", gc.ParentID, gc.Level)
	}
	path := f.ParentPath(gc)
	if len(path) != 2 || path[0] != "Root" || path[1] != "Child" {
		t.Errorf("parent path = %v", path)
	}
}

func TestParse_TabIndentation(t *testing.T) {
	_, err := Parse("A\n\tB\n")
	var se *StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructuralError, got %v", err)
	}
	if !se.Has(KindTabIndentation) {
		t.Errorf("errors = %v", se)
	}
}

func TestParse_IndentJump(t *testing.T) {
	_, err := Parse("A\n      B\n")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Kind != KindIndentJumpTooLarge || pe.Line != 1 {
		t.Errorf("error = %+v", pe)
	}
}

func TestParse_OddIndentation(t *testing.T) {
	_, err := Parse("A\n   B\n     C\n---\n")
	var se *StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructuralError, got %v", err)
	}
	if len(se.Errors) != 2 {
		t.Fatalf("errors = %v", se)
	}
	for i, pe := range se.Errors {
		if pe.Kind != KindOddIndentation || pe.Line != i+1 {
			t.Errorf("error %d = %+v", i, pe)
		}
	}
}

func TestParse_FirstLineIndented(t *testing.T) {
	_, err := Parse("  A\n")
	var se *StructuralError
	if !errors.As(err, &se) || !se.Has(KindIndentJumpTooLarge) {
		t.Fatalf("expected indent jump, got %v", err)
	}
}

func TestParse_UnclosedBlock(t *testing.T) {
	_, err := Parse("A\n---\n```flow-nodes\n{}\n")
	var se *StructuralError
	if !errors.As(err, &se) || !se.Has(KindUnclosedBlock) {
		t.Fatalf("expected unclosed block, got %v", err)
	}
}

func TestParse_MultipleSeparators(t *testing.T) {
	_, err := Parse("A\n---\n```x\n{}\n```\n---\n")
	var se *StructuralError
	if !errors.As(err, &se) || !se.Has(KindMultipleSeparators) {
		t.Fatalf("expected multiple separators, got %v", err)
	}
}

func TestParse_SeparatorInsideFenceIgnored(t *testing.T) {
	f, err := Parse("A\n---\n```notes\n---\n```\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Source().Separator != 1 {
		t.Errorf("separator = %d", f.Source().Separator)
	}
}

func TestParse_CRLFNormalized(t *testing.T) {
	f, err := Parse("A\r\n  B\r\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Roots) != 1 || len(f.Roots[0].Children) != 1 || f.Roots[0].Children[0].Content != "B" {
		t.Errorf("unexpected tree after CRLF normalisation")
	}
}

func TestParse_AmbiguousHubMixed(t *testing.T) {
	f, err := Parse("A\n  C\n  C (Status=Open)\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Issues) != 1 || f.Issues[0].Code != CodeAmbiguousHub {
		t.Fatalf("issues = %+v", f.Issues)
	}
	for _, c := range f.Roots[0].Children {
		if c.IsHub() {
			t.Error("ambiguous group must not form a hub")
		}
	}
}

func TestParse_AmbiguousHubKeyMismatch(t *testing.T) {
	f, err := Parse("C (Status=Open)\nC (Kind=Draft)\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Issues) != 1 {
		t.Fatalf("issues = %+v", f.Issues)
	}
	if len(f.Roots) != 2 {
		t.Errorf("roots = %d, want 2 separate nodes", len(f.Roots))
	}
}

func TestParse_AmbiguousHubDuplicateValues(t *testing.T) {
	f, err := Parse("C (Status=Open)\nC (Status=Open)\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Issues) != 1 || f.Issues[0].Code != CodeAmbiguousHub {
		t.Fatalf("issues = %+v", f.Issues)
	}
}

func TestParse_DuplicateTitlesWithoutConditions(t *testing.T) {
	f, err := Parse("X\nX\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Issues) != 0 || len(f.Roots) != 2 {
		t.Errorf("plain duplicates: issues=%v roots=%d", f.Issues, len(f.Roots))
	}
}

func TestHub_DisplayChildrenUnion(t *testing.T) {
	f, err := Parse("C (Status=Open)\n  D\nC (Status=Closed)\n  E\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	hub := f.Roots[0]
	if !hub.IsHub() {
		t.Fatal("expected hub")
	}
	kids := hub.DisplayChildren()
	if len(kids) != 2 || kids[0].Content != "D" || kids[1].Content != "E" {
		t.Errorf("display children = %v", kids)
	}
	e, _ := f.Node("node-3")
	if e.ParentID != "node-2" {
		t.Errorf("E parent = %q, want its own variant", e.ParentID)
	}
	if e.VisualLevel != 1 {
		t.Errorf("E visual level = %d", e.VisualLevel)
	}
}

func TestDescendants_IncludesVariantSubtrees(t *testing.T) {
	f, err := Parse("A\n  B\n  C (S=1)\n    X\n  C (S=2)\n    Y\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	desc := f.Descendants(f.Roots[0])
	if len(desc) != 5 {
		t.Fatalf("descendants = %d, want 5", len(desc))
	}
	for i, want := range []int{1, 2, 3, 4, 5} {
		if desc[i].LineIndex != want {
			t.Errorf("desc[%d] line = %d, want %d", i, desc[i].LineIndex, want)
		}
	}
}

func TestRender_RoundTrip(t *testing.T) {
	inputs := []string{
		"A\n  B #flow#\n  C (Status=Open)\n  C (Status=Closed)\n---\n",
		"Root <!-- rn:1 -->\n\n  Child <!-- tags:a,b --> <!-- expid:2 -->\n---\n\n```flow-nodes\n{}\n```\n",
		"Only\n",
	}
	for _, in := range inputs {
		f, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got := Render(f); got != in {
			t.Errorf("Render = %q, want %q", got, in)
		}
	}
}

func TestLineOf(t *testing.T) {
	if n, ok := LineOf("node-12"); !ok || n != 12 {
		t.Errorf("LineOf(node-12) = %d, %v", n, ok)
	}
	for _, bad := range []string{"node-x", "node-3x", "n-1", "node--1", "node-03"} {
		if _, ok := LineOf(bad); ok {
			t.Errorf("LineOf(%q) should fail", bad)
		}
	}
}
