package index

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/nexusmap/internal/apperr"
	"github.com/starford/nexusmap/internal/validate"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "nexusmap-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

const sample = "Checkout\n  Pay #flow# <!-- tags:actor-staff -->\n  Ship #flow#\n---\n" +
	"```process-goto-targets\n{\"node-1\":\"node-9\"}\n```\n"

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"documents", "nodes", "issues"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestIndexFile_Projection(t *testing.T) {
	db := testDB(t)
	report, err := IndexFile(db, "flows/checkout.md", []byte(sample), validate.Options{})
	if err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if report.Summary.FlowNodes != 2 {
		t.Errorf("report = %+v", report.Summary)
	}

	d, err := db.GetDocument("flows/checkout.md")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if d.Title != "Checkout" || d.Kind != "note" || d.Nodes != 3 || d.FlowNodes != 2 {
		t.Errorf("document = %+v", d)
	}
	if d.Warnings == 0 {
		t.Error("dangling goto target should be counted")
	}

	issues, err := db.Issues("flows/checkout.md", "")
	if err != nil {
		t.Fatalf("Issues: %v", err)
	}
	found := false
	for _, is := range issues {
		if is.Code == validate.CodeDanglingReference {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %+v", issues)
	}
}

func TestBuild_StructuralDocumentHasNoNodes(t *testing.T) {
	d, nodes, issues, _ := Build("broken.md", []byte("A\n\tB\n"), validate.Options{})
	if len(nodes) != 0 || d.Errors == 0 || len(issues) == 0 {
		t.Errorf("d=%+v nodes=%d issues=%d", d, len(nodes), len(issues))
	}
	if d.Title != "broken" {
		t.Errorf("title = %q, want file stem", d.Title)
	}
}

func TestUpsertReplacesRows(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDocument(DocumentRow{Path: "up.md", Checksum: "1", UpdatedAt: now},
		[]NodeRow{{NodeID: "node-0", Line: 1, Content: "alpha"}},
		[]IssueRow{{Severity: "warning", Code: "X"}})
	_ = db.UpsertDocument(DocumentRow{Path: "up.md", Checksum: "2", UpdatedAt: now},
		[]NodeRow{{NodeID: "node-0", Line: 1, Content: "beta"}}, nil)

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	if res, _ := db.Search("alpha", 10); len(res) != 0 {
		t.Errorf("stale node still searchable: %+v", res)
	}
	if issues, _ := db.Issues("up.md", ""); len(issues) != 0 {
		t.Errorf("stale issues: %+v", issues)
	}
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	if _, err := IndexFile(db, "del.md", []byte(sample), validate.Options{}); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteDocument("del.md"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := db.GetDocument("del.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if issues, _ := db.Issues("del.md", ""); len(issues) != 0 {
		t.Errorf("issues left behind: %+v", issues)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestListDocuments_KindFilterAndPaging(t *testing.T) {
	db := testDB(t)
	grid := "Screen\n---\n```nexus-doc\n{\"kind\":\"grid\"}\n```\n"
	for _, p := range []string{"a.md", "b.md", "c.md"} {
		if _, err := IndexFile(db, p, []byte(sample), validate.Options{}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := IndexFile(db, "g.md", []byte(grid), validate.Options{}); err != nil {
		t.Fatal(err)
	}

	rows, total, err := db.ListDocuments(2, 1, "")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if total != 4 || len(rows) != 2 || rows[0].Path != "b.md" {
		t.Errorf("page = %+v total %d", rows, total)
	}

	rows, total, _ = db.ListDocuments(0, 0, "grid")
	if total != 1 || rows[0].Path != "g.md" {
		t.Errorf("grid filter = %+v", rows)
	}
}

func TestIssues_SeverityFilter(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "x.md", UpdatedAt: time.Now()}, nil, []IssueRow{
		{Severity: "error", Code: "A", Line: 2},
		{Severity: "warning", Code: "B", Line: 1},
	})
	errs, _ := db.Issues("", "error")
	if len(errs) != 1 || errs[0].Code != "A" || errs[0].Path != "x.md" {
		t.Errorf("errors = %+v", errs)
	}
	all, _ := db.Issues("", "")
	if len(all) != 2 || all[0].Code != "B" {
		t.Errorf("ordering by line = %+v", all)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	if _, err := IndexFile(db, "s.md", []byte("Root\n  uniqueword step #flow#\n"), validate.Options{}); err != nil {
		t.Fatal(err)
	}
	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" || results[0].NodeID != "node-1" || results[0].Line != 2 {
		t.Errorf("search results = %+v, want node-1 of s.md", results)
	}
}
