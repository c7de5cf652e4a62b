package api

import (
	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/noteservice"
)

// PutNoteRequest is the request body for creating or updating a note.
// Frontmatter key order is preserved as sent.
type PutNoteRequest struct {
	Content     string           `json:"content"`
	Frontmatter *frontmatter.Map `json:"frontmatter,omitempty"`
	Mode        string           `json:"mode,omitempty"` // overwrite (default), append, prepend
}

// ReplaceTextRequest is the request body for POST /ops/replace.
type ReplaceTextRequest struct {
	Path       string `json:"path"`
	Find       string `json:"find"`
	Replace    string `json:"replace"`
	ReplaceAll *bool  `json:"replace_all,omitempty"` // default true
}

// InsertTextRequest is the request body for POST /ops/insert.
type InsertTextRequest struct {
	Path          string `json:"path"`
	Target        string `json:"target"`
	Content       string `json:"content"`
	Position      string `json:"position,omitempty"`       // after (default), before
	NewlineBefore *bool  `json:"newline_before,omitempty"` // default true
}

// AppendSectionRequest is the request body for POST /ops/append-section.
type AppendSectionRequest struct {
	Path          string `json:"path"`
	SectionHeader string `json:"section_header"`
	Text          string `json:"text"`
}

// UpdatePropertiesRequest is the request body for POST /ops/properties.
type UpdatePropertiesRequest struct {
	Path       string           `json:"path"`
	Properties *frontmatter.Map `json:"properties,omitempty"`
	Remove     []string         `json:"remove,omitempty"`
}

// RenderTemplateRequest is the request body for POST /templates/render.
type RenderTemplateRequest struct {
	Path         string            `json:"path"`
	TemplatePath string            `json:"template_path"`
	Variables    map[string]string `json:"variables,omitempty"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// DirectoryItem is one entry of a directory listing (aliased from the domain layer).
type DirectoryItem = models.DirectoryItem

// SearchHit is one search or related-notes result (aliased from the domain layer).
type SearchHit = noteservice.SearchHit

// DirectoryListResponse wraps directory listings.
type DirectoryListResponse struct {
	Items []DirectoryItem `json:"items"`
}

// SearchResponse wraps search and related-notes results.
type SearchResponse struct {
	Results []SearchHit `json:"results"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Filename      string `json:"filename"`
	Size          int64  `json:"size"`
	URL           string `json:"url"`
	MarkdownImage string `json:"markdownImage"`
}
