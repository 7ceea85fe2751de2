// Package vault implements the rewrite host on top of the note store and the
// SQLite index.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"unicode"

	"github.com/starford/tasksort/internal/apperr"
	"github.com/starford/tasksort/internal/document"
	"github.com/starford/tasksort/internal/index"
	"github.com/starford/tasksort/internal/models"
	"github.com/starford/tasksort/internal/storage"
)

type entry struct {
	doc *document.Document
	sum string
}

// Vault serves notes as paragraph documents. Parsed documents are cached
// and reused while the file on disk keeps the same checksum, so paragraph
// IDs stay stable across calls. A cached document is never changed in place.
type Vault struct {
	store  storage.Provider
	idx    index.NoteIndex
	logger *slog.Logger

	mu    sync.Mutex
	docs  map[string]*entry
	locks map[string]*sync.Mutex
}

// New creates a Vault.
func New(store storage.Provider, idx index.NoteIndex, logger *slog.Logger) *Vault {
	return &Vault{
		store:  store,
		idx:    idx,
		logger: logger,
		docs:   make(map[string]*entry),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Lock holds the note-level lock for path until the returned func is called.
// Callers wrap multi-step rewrites in it so only one runs per note.
func (v *Vault) Lock(path string) func() {
	v.mu.Lock()
	l, ok := v.locks[path]
	if !ok {
		l = &sync.Mutex{}
		v.locks[path] = l
	}
	v.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Document returns the current document for path. The result is shared with
// other callers and must not be modified; writers go through InsertText and
// RemoveParagraphs, which edit a copy and swap it in.
func (v *Vault) Document(ctx context.Context, path string) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.load(path)
}

// load must be called with v.mu held.
func (v *Vault) load(p string) (*document.Document, error) {
	data, err := v.store.Read(p)
	if err != nil {
		return nil, err
	}
	sum := document.Checksum(data)
	if e, ok := v.docs[p]; ok && e.sum == sum {
		return e.doc, nil
	}
	doc := document.Parse(data)
	v.docs[p] = &entry{doc: doc, sum: sum}
	return doc, nil
}

// save must be called with v.mu held. A failed write drops the cached
// document so the next load starts from disk.
func (v *Vault) save(p string, doc *document.Document) error {
	data := doc.Bytes()
	if err := v.store.Write(p, data); err != nil {
		delete(v.docs, p)
		return err
	}
	v.docs[p] = &entry{doc: doc, sum: document.Checksum(data)}
	if err := index.IndexFile(v.idx, p, data, v.logger); err != nil {
		v.logger.Warn("vault: reindex failed", slog.String("path", p), slog.String("error", err.Error()))
	}
	return nil
}

// ReadParagraphs returns the note's paragraphs with current line indices.
func (v *Vault) ReadParagraphs(ctx context.Context, note models.Note) ([]models.Paragraph, error) {
	doc, err := v.Document(ctx, note.Path)
	if err != nil {
		return nil, err
	}
	return doc.Paragraphs(), nil
}

// ActiveRange returns the working body of the note.
func (v *Vault) ActiveRange(ctx context.Context, note models.Note) (document.Range, error) {
	doc, err := v.Document(ctx, note.Path)
	if err != nil {
		return document.Range{}, err
	}
	return doc.ActiveRange(), nil
}

// InsertText writes text before line atLine and persists the note.
func (v *Vault) InsertText(ctx context.Context, note models.Note, text string, atLine int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	cur, err := v.load(note.Path)
	if err != nil {
		return err
	}
	doc := cur.Clone()
	if _, err := doc.Insert(text, atLine); err != nil {
		return err
	}
	if err := v.save(note.Path, doc); err != nil {
		return fmt.Errorf("vault: insert into %s: %w", note.Path, err)
	}
	return nil
}

// RemoveParagraphs deletes paras, matched by ID, and persists the note.
func (v *Vault) RemoveParagraphs(ctx context.Context, note models.Note, paras []models.Paragraph) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	cur, err := v.load(note.Path)
	if err != nil {
		return err
	}
	doc := cur.Clone()
	ids := make([]string, len(paras))
	for i, p := range paras {
		ids[i] = p.ID
	}
	if err := doc.Remove(ids...); err != nil {
		return err
	}
	if err := v.save(note.Path, doc); err != nil {
		return fmt.Errorf("vault: remove from %s: %w", note.Path, err)
	}
	return nil
}

// GetOrCreateNote finds the note titled title in folder through the index.
// When the index has no match, the note is created as folder/<slug>.md.
func (v *Vault) GetOrCreateNote(ctx context.Context, title, folder string) (models.Note, error) {
	if err := ctx.Err(); err != nil {
		return models.Note{}, err
	}
	folder = strings.Trim(folder, "/")

	row, err := v.idx.FindByTitle(title, folder)
	if err == nil {
		return models.Note{Path: row.Path, Title: row.Title}, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return models.Note{}, fmt.Errorf("vault: find %q: %w", title, err)
	}

	p := path.Join(folder, Slug(title)+".md")
	v.mu.Lock()
	defer v.mu.Unlock()

	exists, err := v.store.Exists(p)
	if err != nil {
		return models.Note{}, err
	}
	if !exists {
		doc := document.Parse([]byte("# " + title + "\n"))
		if err := v.save(p, doc); err != nil {
			return models.Note{}, fmt.Errorf("vault: create %s: %w", p, err)
		}
		v.logger.Info("vault: created note", slog.String("path", p), slog.String("title", title))
	}
	return models.Note{Path: p, Title: title}, nil
}

// Slug turns a title into a file name: lower case, runs of anything other
// than letters and digits collapsed to a single dash.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "untitled"
	}
	return s
}
