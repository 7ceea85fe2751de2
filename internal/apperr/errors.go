// Package apperr holds the sentinel errors shared across layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalid       = errors.New("invalid")
	ErrCancelled     = errors.New("cancelled by user")
	ErrEmptyNote     = errors.New("note is empty")
	ErrNoTasks       = errors.New("no tasks found")
)

// DuplicateContentError reports raw content that appears more than once where
// a unique match was needed. It satisfies errors.Is(err, ErrConflict).
type DuplicateContentError struct {
	RawContent string
	Count      int
}

func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("conflict: %d paragraphs share content %q", e.Count, e.RawContent)
}

func (e *DuplicateContentError) Is(target error) bool {
	return target == ErrConflict
}
