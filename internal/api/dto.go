package api

import (
	"github.com/starford/tasksort/internal/index"
	"github.com/starford/tasksort/internal/models"
	"github.com/starford/tasksort/internal/noteservice"
	"github.com/starford/tasksort/internal/rewrite"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// BlockDTO is one block with the line span it covers.
type BlockDTO struct {
	Start      int                `json:"start" example:"4"`
	End        int                `json:"end" example:"9"`
	Paragraphs []models.Paragraph `json:"paragraphs" validate:"required"`
}

// BlocksResponse wraps a note's segmentation.
type BlocksResponse struct {
	Path   string     `json:"path" example:"projects/launch.md" validate:"required"`
	Blocks []BlockDTO `json:"blocks" validate:"required"`
}

// SortRequest is the request body for resorting a note's tasks.
type SortRequest = noteservice.SortRequest

// SortResponse reports what a resort moved.
type SortResponse = rewrite.Result

// TaskListResponse wraps indexed tasks.
type TaskListResponse struct {
	Tasks []index.TaskRow `json:"tasks" validate:"required"`
}

func toBlockDTO(b []models.Paragraph) BlockDTO {
	dto := BlockDTO{Paragraphs: b}
	if len(b) > 0 {
		dto.Start = b[0].LineIndex
		dto.End = b[len(b)-1].LineIndex + 1
	}
	return dto
}
