// Package models defines the domain types shared by the tasksort packages.
package models

import "time"

// Note identifies a Markdown file in the vault.
type Note struct {
	Path  string `json:"path"`
	Title string `json:"title,omitempty"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
