package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// vaultRoot is used to resolve the attachments directory.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler, vaultRoot string) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(vaultRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListDirectory)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.PutNote)
	r.Delete("/notes/*", h.DeleteItem)

	// Frontmatter properties.
	r.Get("/properties", h.GetProperties)

	// Body and frontmatter edits.
	r.Post("/ops/replace", h.ReplaceText)
	r.Post("/ops/insert", h.InsertText)
	r.Post("/ops/append-section", h.AppendToSection)
	r.Post("/ops/properties", h.UpdateProperties)

	// Search and relations.
	r.Get("/search", h.Search)
	r.Get("/related", h.FindRelated)

	// Daily notes and templates.
	r.Get("/daily", h.GetDailyNote)
	r.Get("/templates", h.ListTemplates)
	r.Post("/templates/render", h.RenderTemplate)

	// Attachments upload (auth-protected).
	r.Post("/attachments", ah.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
