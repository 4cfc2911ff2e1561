package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/nexusmap/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents CRUD. The document path is the wildcard tail.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.UpdateDocument)
	r.Delete("/documents/*", h.DeleteDocument)

	// Derived views and edits.
	r.Get("/tree/*", h.Tree)
	r.Get("/layout/*", h.Layout)
	r.Get("/swimlanes/{fid}/*", h.Swimlane)
	r.Get("/validate/*", h.ValidateDocument)
	r.Post("/validate", h.ValidateText)
	r.Post("/mutate/*", h.Mutate)

	r.Get("/search", h.Search)
	r.Get("/issues", h.Issues)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
