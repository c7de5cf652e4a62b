// Package models defines the domain types for Ansuz.
package models

import (
	"time"

	"github.com/starford/ansuz/internal/frontmatter"
)

// Note is the parsed form of a Markdown file: path, ordered frontmatter,
// and the body after the closing fence. Notes are built from raw bytes
// for a single operation and re-serialized afterwards; no note survives
// between calls.
type Note struct {
	Path        string           `json:"path"`
	Frontmatter *frontmatter.Map `json:"frontmatter,omitempty"`
	Body        string           `json:"body"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DirectoryItem is one entry of a vault directory listing.
type DirectoryItem struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	IsFile bool   `json:"is_file"`
	Size   int64  `json:"size,omitempty"`
}
