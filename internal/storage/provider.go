// Package storage reads and writes the Markdown notes of a vault.
package storage

import "github.com/starford/tasksort/internal/models"

// Provider is the interface for vault file operations. Paths are relative to
// the vault root and use forward slashes.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of a note. Missing files yield an error
	// matching apperr.ErrNotFound.
	Read(path string) ([]byte, error)
	// Write atomically replaces the content of path, creating parent
	// folders as needed.
	Write(path string, content []byte) error
	// Exists reports whether path names a regular file.
	Exists(path string) (bool, error)
}
