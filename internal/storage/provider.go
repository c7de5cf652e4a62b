// Package storage defines the vault file-system abstraction. All paths
// are relative to the vault root and validated against traversal before
// any filesystem access.
package storage

import "github.com/starford/ansuz/internal/models"

// Provider is the interface for vault file operations. The note engine
// never touches the filesystem directly; every read-modify-write cycle
// goes through a Provider.
type Provider interface {
	// List walks dir (relative to vault root) recursively and returns
	// metadata for every .md file.
	List(dir string) ([]models.NoteMetadata, error)
	// ListDir returns the immediate children of dir: files and directories.
	ListDir(dir string) ([]models.DirectoryItem, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// DeleteAll removes path recursively (file or directory).
	DeleteAll(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// IsDir reports whether path exists and is a directory.
	IsDir(path string) bool
	// Exists reports whether path exists.
	Exists(path string) bool
}
