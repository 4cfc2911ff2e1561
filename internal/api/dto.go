package api

import (
	"github.com/starford/nexusmap/internal/docservice"
	"github.com/starford/nexusmap/internal/index"
)

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Path    string `json:"path" example:"flows/checkout.md" validate:"required"`
	Content string `json:"content" example:"Checkout\n  Cart #flow#\n---\n" validate:"required"`
}

// UpdateDocumentRequest is the request body for replacing a document.
type UpdateDocumentRequest struct {
	Content string `json:"content" validate:"required"`
}

// ValidateTextRequest carries unsaved document text.
type ValidateTextRequest struct {
	Content string `json:"content" validate:"required"`
}

// DocumentDetail is the full document response type.
type DocumentDetail = docservice.DocumentDetail

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem = docservice.DocumentListItem

// MutationResult is the response of POST /mutate.
type MutationResult = docservice.MutationResult

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps node search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// IssuesResponse wraps indexed validation findings.
type IssuesResponse struct {
	Issues []index.IssueRow `json:"issues" validate:"required"`
}
