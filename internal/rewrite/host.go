// Package rewrite re-sorts the tasks of a note in place: it classifies and
// sorts them, backs them up, deletes the originals and writes each status
// bucket back at the top of the note as a single block of text.
package rewrite

import (
	"context"

	"github.com/starford/tasksort/internal/document"
	"github.com/starford/tasksort/internal/models"
)

// Host is the note store the engine reads and mutates. Implementations must
// resolve paragraphs by ID at call time; line indices returned by
// ReadParagraphs are stale after any InsertText or RemoveParagraphs.
type Host interface {
	ReadParagraphs(ctx context.Context, note models.Note) ([]models.Paragraph, error)
	// ActiveRange returns the span of the note that holds its working body.
	ActiveRange(ctx context.Context, note models.Note) (document.Range, error)
	// InsertText inserts text (possibly several lines) before atLine.
	InsertText(ctx context.Context, note models.Note, text string, atLine int) error
	RemoveParagraphs(ctx context.Context, note models.Note, paras []models.Paragraph) error
	// GetOrCreateNote finds a note by title within folder, creating it when
	// missing. A freshly created note may not be readable immediately.
	GetOrCreateNote(ctx context.Context, title, folder string) (models.Note, error)
}

// Prompter asks the user for choices the caller left open. Implementations
// return apperr.ErrCancelled when the user backs out.
type Prompter interface {
	PromptChoice(ctx context.Context, title string, options []string) (string, error)
	PromptYesNo(ctx context.Context, message string) (bool, error)
}
