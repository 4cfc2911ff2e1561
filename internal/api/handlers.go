package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/nexusmap/internal/checksum"
	"github.com/starford/nexusmap/internal/docservice"
	"github.com/starford/nexusmap/internal/engine"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the wildcard tail of the URL.
// Supports encoded slashes (e.g. flows%2Fcheckout.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func requirePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return "", false
	}
	return path, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List indexed documents
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			kind	query		string	false	"Filter by document kind"
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.List(r.Context(), limit, offset, q.Get("kind"))
	if err != nil {
		writeError(w, "list documents", "", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a document with its validation summary
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	doc, err := h.svc.Get(r.Context(), path)
	if err != nil {
		writeError(w, "get document", path, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Create a new document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	true	"Document to create"
//	@Success		201		{object}	DocumentDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and content are required"))
		return
	}
	doc, err := h.svc.Create(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		writeError(w, "create document", req.Path, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(doc.Checksum))
	writeJSON(w, http.StatusCreated, doc)
}

// UpdateDocument handles PUT /api/documents/*.
//
//	@Summary		Replace a document with optimistic concurrency
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			path		path		string					true	"Document path"
//	@Param			If-Match	header		string					false	"Checksum for optimistic concurrency"
//	@Param			body		body		UpdateDocumentRequest	true	"New content"
//	@Success		200			{object}	DocumentDetail
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [put]
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	var req UpdateDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	doc, err := h.svc.Update(r.Context(), path, []byte(req.Content), checksum.FromETag(r.Header.Get("If-Match")))
	if err != nil {
		writeError(w, "update document", path, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/*.
//
//	@Summary		Delete a document
//	@Tags			documents
//	@Param			path	path	string	true	"Document path"
//	@Success		204		"Document deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), path); err != nil {
		writeError(w, "delete document", path, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tree handles GET /api/tree/*.
//
//	@Summary		Parsed outline of a document
//	@Tags			outline
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tree/{path} [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	f, err := h.svc.Tree(r.Context(), path)
	if err != nil {
		writeError(w, "tree", path, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Layout handles GET /api/layout/*.
//
//	@Summary		Diagram geometry of a document
//	@Tags			outline
//	@Produce		json
//	@Param			path	path	string	true	"Document path"
//	@Security		BearerAuth
//	@Router			/layout/{path} [get]
func (h *Handler) Layout(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	g, err := h.svc.Layout(r.Context(), path)
	if err != nil {
		writeError(w, "layout", path, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Swimlane handles GET /api/swimlanes/{fid}/*.
//
//	@Summary		Lane by stage grid of one flow tab
//	@Tags			outline
//	@Produce		json
//	@Param			fid		path	string	true	"Flow tab id"
//	@Param			path	path	string	true	"Document path"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/swimlanes/{fid}/{path} [get]
func (h *Handler) Swimlane(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	g, err := h.svc.Swimlane(r.Context(), path, chi.URLParam(r, "fid"))
	if err != nil {
		writeError(w, "swimlane", path, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// ValidateDocument handles GET /api/validate/*.
//
//	@Summary		Validate a stored document
//	@Tags			validation
//	@Produce		json
//	@Param			path	path	string	true	"Document path"
//	@Security		BearerAuth
//	@Router			/validate/{path} [get]
func (h *Handler) ValidateDocument(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Validate(r.Context(), path)
	if err != nil {
		writeError(w, "validate", path, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ValidateText handles POST /api/validate.
//
//	@Summary		Validate unsaved document text
//	@Tags			validation
//	@Accept			json
//	@Produce		json
//	@Param			body	body	ValidateTextRequest	true	"Document text"
//	@Security		BearerAuth
//	@Router			/validate [post]
func (h *Handler) ValidateText(w http.ResponseWriter, r *http.Request) {
	var req ValidateTextRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ValidateText(req.Content))
}

// Mutate handles POST /api/mutate/*.
//
//	@Summary		Apply one structural mutation as a single buffer transaction
//	@Tags			mutations
//	@Accept			json
//	@Produce		json
//	@Param			path		path		string			true	"Document path"
//	@Param			If-Match	header		string			false	"Checksum for optimistic concurrency"
//	@Param			body		body		engine.Mutation	true	"Mutation"
//	@Success		200			{object}	MutationResult
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/mutate/{path} [post]
func (h *Handler) Mutate(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	var m engine.Mutation
	if !decodeBody(w, r, &m) {
		return
	}
	res, err := h.svc.Mutate(r.Context(), path, m, checksum.FromETag(r.Header.Get("If-Match")))
	if err != nil {
		writeError(w, "mutate", path, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(res.Checksum))
	writeJSON(w, http.StatusOK, res)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across outline nodes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", "", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Issues handles GET /api/issues.
//
//	@Summary		Indexed validation findings
//	@Tags			validation
//	@Produce		json
//	@Param			path		query		string	false	"Restrict to one document"
//	@Param			severity	query		string	false	"error or warning"
//	@Success		200			{object}	IssuesResponse
//	@Security		BearerAuth
//	@Router			/issues [get]
func (h *Handler) Issues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	issues, err := h.svc.Issues(r.Context(), q.Get("path"), q.Get("severity"))
	if err != nil {
		writeError(w, "issues", q.Get("path"), err)
		return
	}
	writeJSON(w, http.StatusOK, IssuesResponse{Issues: issues})
}
