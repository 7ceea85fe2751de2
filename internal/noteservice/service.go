// Package noteservice is the use-case layer shared by the HTTP API, the MCP
// server and the CLI.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/tasksort/internal/apperr"
	"github.com/starford/tasksort/internal/blocks"
	"github.com/starford/tasksort/internal/document"
	"github.com/starford/tasksort/internal/index"
	"github.com/starford/tasksort/internal/models"
	"github.com/starford/tasksort/internal/parser"
	"github.com/starford/tasksort/internal/rewrite"
	"github.com/starford/tasksort/internal/storage"
	"github.com/starford/tasksort/internal/vault"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string             `json:"path"`
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	Checksum    string             `json:"checksum"`
	Tags        []string           `json:"tags"`
	Frontmatter map[string]any     `json:"frontmatter,omitempty"`
	Paragraphs  []models.Paragraph `json:"paragraphs"`
	Active      ActiveRange        `json:"active"`
}

// ActiveRange is the JSON form of document.Range.
type ActiveRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage, index and rewrite operations.
type Service struct {
	store    storage.Provider
	db       index.NoteIndex
	vault    *vault.Vault
	defaults rewrite.Options
	logger   *slog.Logger
}

// NewService creates a new note service. defaults fill in whatever a sort
// request leaves unset.
func NewService(store storage.Provider, db index.NoteIndex, v *vault.Vault, defaults rewrite.Options, logger *slog.Logger) *Service {
	return &Service{store: store, db: db, vault: v, defaults: defaults, logger: logger}
}

// GetNote reads a note and returns it with its paragraphs.
func (s *Service) GetNote(ctx context.Context, path string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	doc, err := s.vault.Document(ctx, path)
	if err != nil {
		return nil, err
	}
	active := doc.ActiveRange()
	return &NoteDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    document.Checksum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		Paragraphs:  nonNilSlice(doc.Paragraphs()),
		Active:      ActiveRange{Start: active.Start, End: active.End},
	}, nil
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, tag)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Blocks segments the note body (frontmatter excluded) into blocks.
func (s *Service) Blocks(ctx context.Context, path string) ([]blocks.Block, error) {
	doc, err := s.vault.Document(ctx, path)
	if err != nil {
		return nil, err
	}
	paras := doc.Paragraphs()
	return blocks.Segment(paras[doc.FrontmatterLines():]), nil
}

// BlockAt returns the block around line.
func (s *Service) BlockAt(ctx context.Context, path string, line int, opts blocks.AroundOptions) (blocks.Block, error) {
	doc, err := s.vault.Document(ctx, path)
	if err != nil {
		return nil, err
	}
	b := blocks.BlockAt(doc.Paragraphs(), doc.ActiveRange(), line, opts)
	if b == nil {
		return nil, fmt.Errorf("line %d outside %s (%d lines): %w", line, path, doc.Len(), apperr.ErrInvalid)
	}
	return b, nil
}

// SortRequest carries the per-call sort choices. Nil and zero fields fall
// back to the configured defaults. A HeadingLevel outside 1-5 is rejected
// with apperr.ErrInvalid.
type SortRequest struct {
	Fields         []string               `json:"fields,omitempty"`
	IncludeHeading *bool                  `json:"include_heading,omitempty"`
	Subheadings    *bool                  `json:"subheadings,omitempty"`
	Separator      *bool                  `json:"separator,omitempty"`
	HeadingLevel   int                    `json:"heading_level,omitempty"`
	Types          []models.ParagraphType `json:"types,omitempty"`
	Backup         *bool                  `json:"backup,omitempty"`
}

// SortTasks resorts the tasks of path. prompt may be nil; with a prompter
// attached, unset fields and flags are asked for instead of defaulted.
func (s *Service) SortTasks(ctx context.Context, path string, req SortRequest, prompt rewrite.Prompter) (*rewrite.Result, error) {
	unlock := s.vault.Lock(path)
	defer unlock()

	e := rewrite.New(s.vault, prompt, s.logger)
	return e.Resort(ctx, models.Note{Path: path}, s.options(req, prompt != nil))
}

func (s *Service) options(req SortRequest, interactive bool) rewrite.Options {
	d := s.defaults
	opts := rewrite.Options{
		Fields:         req.Fields,
		IncludeHeading: req.IncludeHeading,
		Subheadings:    req.Subheadings,
		Separator:      d.Separator,
		HeadingLevel:   d.HeadingLevel,
		Types:          req.Types,
		Backup:         d.Backup,
	}
	if !interactive {
		if len(opts.Fields) == 0 {
			opts.Fields = d.Fields
		}
		if opts.IncludeHeading == nil {
			opts.IncludeHeading = d.IncludeHeading
		}
		if opts.Subheadings == nil {
			opts.Subheadings = d.Subheadings
		}
	}
	if req.Separator != nil {
		opts.Separator = *req.Separator
	}
	if req.HeadingLevel != 0 {
		opts.HeadingLevel = req.HeadingLevel
	}
	if req.Backup != nil {
		opts.Backup.Enabled = *req.Backup
	}
	return opts
}

// ListTasks queries the task index.
func (s *Service) ListTasks(_ context.Context, f index.TaskFilter) ([]index.TaskRow, error) {
	return s.db.ListTasks(f)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
