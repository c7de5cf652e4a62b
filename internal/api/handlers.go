package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/edit"
	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/search"
	"github.com/starford/ansuz/internal/section"
)

const maxNoteBody = 10 << 20 // 10 MB

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL (everything after /api/notes/).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
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

// writeServiceError maps service-layer errors to HTTP statuses. Edit and
// section addressing failures are client errors: the message already names
// the anchor or header that could not be resolved.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		editErr     *edit.TargetNotFoundError
		fmErr       *frontmatter.ParseError
		secNotFound *section.NotFoundError
		secLevel    *section.LevelMismatchError
		secAmbig    *section.AmbiguousError
	)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.As(err, &editErr),
		errors.As(err, &fmErr),
		errors.As(err, &secNotFound),
		errors.As(err, &secLevel),
		errors.As(err, &secAmbig),
		errors.Is(err, section.ErrLevelMissing),
		errors.Is(err, section.ErrLevelInvalid),
		errors.Is(err, section.ErrTextEmpty):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxNoteBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// ListDirectory handles GET /api/notes.
//
//	@Summary		List files and directories in the vault
//	@Tags			notes
//	@Produce		json
//	@Param			dir			query		string	false	"Directory relative to vault root"
//	@Param			recursive	query		bool	false	"Recurse, returning only .md files"
//	@Param			limit		query		int		false	"Page size (default 50)"
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{object}	DirectoryListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListDirectory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	recursive := q.Get("recursive") == "true"
	dir := q.Get("dir")
	if dir == "" {
		dir = "."
	}

	items, err := h.svc.ListDirectory(r.Context(), dir, recursive, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DirectoryListResponse{Items: items})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a single note by path
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// PutNote handles PUT /api/notes/*.
//
//	@Summary		Create or update a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			path		path		string			true	"Note path"
//	@Param			If-Match	header		string			false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		PutNoteRequest	true	"Note content, frontmatter, and mode"
//	@Success		200			{object}	NoteDetail
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [put]
func (h *Handler) PutNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req PutNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	note, err := h.svc.CreateOrUpdate(r.Context(), path, req.Content, req.Frontmatter, req.Mode, ifMatch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteItem handles DELETE /api/notes/*.
//
//	@Summary		Delete a note or a directory (recursively)
//	@Tags			notes
//	@Param			path	path	string	true	"Note or directory path"
//	@Success		204		"Item deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [delete]
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if _, err := h.svc.DeleteItem(r.Context(), path); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProperties handles GET /api/properties.
//
//	@Summary		Read a note's frontmatter properties in file order
//	@Tags			properties
//	@Produce		json
//	@Param			path	query		string	true	"Note path"
//	@Success		200		{object}	map[string]any
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/properties [get]
func (h *Handler) GetProperties(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	props, err := h.svc.Properties(r.Context(), path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

// UpdateProperties handles POST /api/ops/properties.
//
//	@Summary		Update frontmatter properties without touching the body
//	@Tags			properties
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UpdatePropertiesRequest	true	"Properties to set and keys to remove"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/properties [post]
func (h *Handler) UpdateProperties(w http.ResponseWriter, r *http.Request) {
	var req UpdatePropertiesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.UpdateProperties(r.Context(), req.Path, req.Properties, req.Remove)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ReplaceText handles POST /api/ops/replace.
//
//	@Summary		Replace literal text in a note body
//	@Tags			edits
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ReplaceTextRequest	true	"Find and replacement text"
//	@Success		200		{object}	NoteDetail
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/replace [post]
func (h *Handler) ReplaceText(w http.ResponseWriter, r *http.Request) {
	var req ReplaceTextRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" || req.Find == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and find are required"))
		return
	}
	replaceAll := true
	if req.ReplaceAll != nil {
		replaceAll = *req.ReplaceAll
	}
	note, err := h.svc.ReplaceText(r.Context(), req.Path, req.Find, req.Replace, replaceAll)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// InsertText handles POST /api/ops/insert.
//
//	@Summary		Insert text before or after a literal anchor
//	@Tags			edits
//	@Accept			json
//	@Produce		json
//	@Param			body	body		InsertTextRequest	true	"Anchor and text to insert"
//	@Success		200		{object}	NoteDetail
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/insert [post]
func (h *Handler) InsertText(w http.ResponseWriter, r *http.Request) {
	var req InsertTextRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" || req.Target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and target are required"))
		return
	}
	newlineBefore := true
	if req.NewlineBefore != nil {
		newlineBefore = *req.NewlineBefore
	}
	note, err := h.svc.InsertText(r.Context(), req.Path, req.Target, req.Content, req.Position, newlineBefore)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// AppendToSection handles POST /api/ops/append-section.
//
//	@Summary		Append text to a Markdown section
//	@Tags			edits
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AppendSectionRequest	true	"Section header with # markers and text to append"
//	@Success		200		{object}	NoteDetail
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/append-section [post]
func (h *Handler) AppendToSection(w http.ResponseWriter, r *http.Request) {
	var req AppendSectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" || req.SectionHeader == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and section_header are required"))
		return
	}
	note, err := h.svc.AppendToSection(r.Context(), req.Path, req.SectionHeader, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Search handles GET /api/search.
//
//	@Summary		Literal text search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Literal text to find"
//	@Param			scope	query		string	false	"Comma-separated: content,filename,tags"
//	@Param			path	query		string	false	"Path prefix filter"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	var scopes []string
	if raw := r.URL.Query().Get("scope"); raw != "" {
		scopes = strings.Split(raw, ",")
	}
	results, err := h.svc.Search(r.Context(), search.Query{
		Text:       q,
		Scope:      search.ParseScope(scopes),
		PathFilter: r.URL.Query().Get("path"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []SearchHit{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// FindRelated handles GET /api/related.
//
//	@Summary		Find notes related by shared tags or wikilinks
//	@Tags			search
//	@Produce		json
//	@Param			path	query		string	true	"Source note path"
//	@Param			on		query		string	false	"Comma-separated criteria: tags,links"
//	@Success		200		{object}	SearchResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/related [get]
func (h *Handler) FindRelated(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	var on []string
	if raw := r.URL.Query().Get("on"); raw != "" {
		on = strings.Split(raw, ",")
	}
	results, err := h.svc.FindRelated(r.Context(), path, on)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []SearchHit{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// GetDailyNote handles GET /api/daily.
//
//	@Summary		Get the daily note for a date
//	@Tags			notes
//	@Produce		json
//	@Param			date	query		string	false	"'today' (default), 'yesterday', 'tomorrow', or YYYY-MM-DD"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/daily [get]
func (h *Handler) GetDailyNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.DailyNote(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ListTemplates handles GET /api/templates.
//
//	@Summary		List .md templates in the templates directory
//	@Tags			templates
//	@Produce		json
//	@Success		200	{object}	DirectoryListResponse
//	@Security		BearerAuth
//	@Router			/templates [get]
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListTemplates(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DirectoryListResponse{Items: items})
}

// RenderTemplate handles POST /api/templates/render.
//
//	@Summary		Create a note from a template
//	@Tags			templates
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenderTemplateRequest	true	"Destination, template, and variables"
//	@Success		201		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/render [post]
func (h *Handler) RenderTemplate(w http.ResponseWriter, r *http.Request) {
	var req RenderTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" || req.TemplatePath == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and template_path are required"))
		return
	}
	note, err := h.svc.CreateFromTemplate(r.Context(), req.Path, req.TemplatePath, req.Variables)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}
