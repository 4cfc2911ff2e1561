package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/nexusmap/internal/checksum"
	"github.com/starford/nexusmap/internal/docservice"
	"github.com/starford/nexusmap/internal/engine"
	"github.com/starford/nexusmap/internal/testutil"
	"github.com/starford/nexusmap/internal/validate"
)

// testEnv sets up a temp vault, SQLite index, service and router.
// An empty authToken means auth is disabled.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sse http.Handler) http.Handler {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	svc := docservice.NewService(store, db, engine.New())
	return NewRouter(svc, authEnabled, token, sse)
}

func do(t *testing.T, router http.Handler, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func create(t *testing.T, router http.Handler, path, content string) DocumentDetail {
	t.Helper()
	w := do(t, router, http.MethodPost, "/documents", CreateDocumentRequest{Path: path, Content: content})
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s = %d, body = %s", path, w.Code, w.Body.String())
	}
	var d DocumentDetail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	return d
}

func TestCreateAndGetDocument(t *testing.T) {
	router := testEnv(t, "")
	created := create(t, router, "maps/checkout.md", testutil.SampleDocument)
	if created.Summary.FlowNodes != 2 {
		t.Errorf("summary = %+v", created.Summary)
	}

	w := do(t, router, http.MethodGet, "/documents/maps/checkout.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if got := w.Header().Get("ETag"); got != checksum.ETag(created.Checksum) {
		t.Errorf("ETag = %q", got)
	}
	var d DocumentDetail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if d.Path != "maps/checkout.md" || d.Content != testutil.SampleDocument {
		t.Errorf("detail = %+v", d)
	}

	// Encoded slashes resolve to the same document.
	if w := do(t, router, http.MethodGet, "/documents/maps%2Fcheckout.md", nil); w.Code != http.StatusOK {
		t.Errorf("encoded path = %d", w.Code)
	}
}

func TestCreateDuplicate(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "dup.md", "A\n")
	w := do(t, router, http.MethodPost, "/documents", CreateDocumentRequest{Path: "dup.md", Content: "B\n"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	router := testEnv(t, "")
	if w := do(t, router, http.MethodPost, "/documents", CreateDocumentRequest{Path: "x.md"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing content = %d", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/documents", CreateDocumentRequest{Path: "../x.md", Content: "A"}); w.Code != http.StatusBadRequest {
		t.Errorf("escaping path = %d", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/documents", CreateDocumentRequest{Path: "x.txt", Content: "A"}); w.Code != http.StatusBadRequest {
		t.Errorf("wrong extension = %d", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	router := testEnv(t, "")
	created := create(t, router, "lock.md", "v1\n")

	w := do(t, router, http.MethodPut, "/documents/lock.md", UpdateDocumentRequest{Content: "v2\n"},
		"If-Match", checksum.ETag(created.Checksum))
	if w.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPut, "/documents/lock.md", UpdateDocumentRequest{Content: "v3\n"},
		"If-Match", created.Checksum)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale checksum = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPut, "/documents/lock.md", UpdateDocumentRequest{Content: "v3\n"})
	if w.Code != http.StatusOK {
		t.Errorf("update without If-Match = %d, want 200", w.Code)
	}
}

func TestDeleteDocument(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "bye.md", "gone\n")

	if w := do(t, router, http.MethodDelete, "/documents/bye.md", nil); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/documents/bye.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodDelete, "/documents/bye.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestListDocuments(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "a.md", "A\n")
	create(t, router, "b.md", "B\n")

	w := do(t, router, http.MethodGet, "/documents?limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp DocumentListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || len(resp.Documents) != 2 || resp.Documents[0].Path != "a.md" {
		t.Errorf("list = %+v", resp)
	}
}

func TestTreeLayoutAndValidate(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "m.md", testutil.SampleDocument)
	create(t, router, "broken.md", "A\n\tB\n")

	w := do(t, router, http.MethodGet, "/tree/m.md", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"roots"`) {
		t.Errorf("tree = %d %s", w.Code, w.Body.String())
	}
	if w := do(t, router, http.MethodGet, "/tree/broken.md", nil); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("structural tree = %d, want 422", w.Code)
	}

	w = do(t, router, http.MethodGet, "/layout/m.md", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"node-4"`) {
		t.Errorf("layout = %d %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/validate/broken.md", nil)
	var report validate.Report
	_ = json.Unmarshal(w.Body.Bytes(), &report)
	if w.Code != http.StatusOK || !report.Structural {
		t.Errorf("validate = %d %+v", w.Code, report)
	}

	w = do(t, router, http.MethodPost, "/validate", ValidateTextRequest{Content: "A <!-- rn:1 -->\nB <!-- rn:1 -->\n"})
	_ = json.Unmarshal(w.Body.Bytes(), &report)
	if report.Summary.Errors != 1 {
		t.Errorf("raw validate = %+v", report)
	}
}

func TestSwimlaneEndpoint(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "f.md", "Flow #flowtab# <!-- fid:flowtab-1 -->\n  A #flow#\n")

	if w := do(t, router, http.MethodGet, "/swimlanes/flowtab-1/f.md", nil); w.Code != http.StatusOK {
		t.Errorf("swimlane = %d %s", w.Code, w.Body.String())
	}
	if w := do(t, router, http.MethodGet, "/swimlanes/flowtab-7/f.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown flow = %d, want 404", w.Code)
	}
}

func TestMutateEndpoint(t *testing.T) {
	router := testEnv(t, "")
	created := create(t, router, "m.md", testutil.SampleDocument)

	w := do(t, router, http.MethodPost, "/mutate/m.md", engine.Mutation{Op: engine.OpToggleFlowFlag, ID: "node-1"},
		"If-Match", checksum.ETag(created.Checksum))
	if w.Code != http.StatusOK {
		t.Fatalf("mutate = %d %s", w.Code, w.Body.String())
	}
	var res MutationResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Changed || res.Revision == "" || w.Header().Get("ETag") != checksum.ETag(res.Checksum) {
		t.Errorf("result = %+v", res)
	}

	w = do(t, router, http.MethodPost, "/mutate/m.md", engine.Mutation{Op: engine.OpToggleFlowFlag, ID: "node-1"},
		"If-Match", checksum.ETag(created.Checksum))
	if w.Code != http.StatusConflict {
		t.Errorf("stale mutate = %d, want 409", w.Code)
	}

	if w := do(t, router, http.MethodPost, "/mutate/m.md", engine.Mutation{Op: "explode"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown op = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/mutate/none.md", engine.Mutation{Op: engine.OpToggleFlowFlag, ID: "node-1"}); w.Code != http.StatusNotFound {
		t.Errorf("missing doc = %d, want 404", w.Code)
	}
}

func TestMutateEndpoint_AddTest(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "t.md", testutil.SampleDocument)

	w := do(t, router, http.MethodPost, "/mutate/t.md",
		engine.Mutation{Op: engine.OpAddTest, Name: "pay succeeds", FlowRootID: "node-1", FlowNodeID: "node-2"})
	if w.Code != http.StatusOK {
		t.Fatalf("add test = %d %s", w.Code, w.Body.String())
	}
	var res struct {
		Changed bool `json:"changed"`
		Result  struct {
			ID         string `json:"id"`
			FlowRootID string `json:"flowRootId"`
			FlowNodeID string `json:"flowNodeId"`
		} `json:"result"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Changed || res.Result.ID != "test-1" || res.Result.FlowRootID != "node-1" || res.Result.FlowNodeID != "node-2" {
		t.Errorf("result = %s", w.Body.String())
	}

	w = do(t, router, http.MethodPost, "/mutate/t.md",
		engine.Mutation{Op: engine.OpAddTest, Name: "ghost", FlowRootID: "node-42"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown flow root = %d, want 404", w.Code)
	}
}

func TestSearchAndIssues(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, "find.md", "Uniquetoken step\n  B <!-- rn:1 -->\n  C <!-- rn:1 -->\n")

	w := do(t, router, http.MethodGet, "/search?q=uniquetoken", nil)
	var sr SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &sr)
	if w.Code != http.StatusOK || len(sr.Results) != 1 || sr.Results[0].NodeID != "node-0" {
		t.Errorf("search = %d %+v", w.Code, sr)
	}
	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodGet, "/issues?severity=error", nil)
	var ir IssuesResponse
	_ = json.Unmarshal(w.Body.Bytes(), &ir)
	if len(ir.Issues) != 1 || ir.Issues[0].Code != validate.CodeDuplicateNumber {
		t.Errorf("issues = %+v", ir)
	}
}

func TestAuthMiddleware(t *testing.T) {
	router := testEnv(t, "secret123")

	if w := do(t, router, http.MethodGet, "/documents", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/documents", nil, "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/documents", nil, "Authorization", "Bearer secret123"); w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	sse := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		<-r.Context().Done()
	})
	router := testEnvWithSSE(t, true, "tok", sse)

	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d", w.Code)
	}
}
