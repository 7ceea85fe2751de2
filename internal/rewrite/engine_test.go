package rewrite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/tasksort/internal/apperr"
	"github.com/starford/tasksort/internal/document"
	"github.com/starford/tasksort/internal/models"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// memHost keeps notes as in-memory documents and records every mutation.
type memHost struct {
	docs  map[string]*document.Document
	calls []string

	failRemoveFor models.ParagraphType
	failInsert    bool
	failBackup    bool
	hiddenReads   int // reads of a freshly created note that report not found
}

func newMemHost(notes map[string]string) *memHost {
	h := &memHost{docs: map[string]*document.Document{}}
	for p, body := range notes {
		h.docs[p] = document.Parse([]byte(body))
	}
	return h
}

func (h *memHost) doc(note models.Note) (*document.Document, error) {
	d, ok := h.docs[note.Path]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return d, nil
}

func (h *memHost) ReadParagraphs(_ context.Context, note models.Note) ([]models.Paragraph, error) {
	d, err := h.doc(note)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(note.Path, "backups/") && h.hiddenReads > 0 {
		h.hiddenReads--
		return nil, apperr.ErrNotFound
	}
	return d.Paragraphs(), nil
}

func (h *memHost) ActiveRange(_ context.Context, note models.Note) (document.Range, error) {
	d, err := h.doc(note)
	if err != nil {
		return document.Range{}, err
	}
	return d.ActiveRange(), nil
}

func (h *memHost) InsertText(_ context.Context, note models.Note, text string, atLine int) error {
	if h.failInsert && !strings.HasPrefix(note.Path, "backups/") {
		return errors.New("disk full")
	}
	d, err := h.doc(note)
	if err != nil {
		return err
	}
	h.calls = append(h.calls, fmt.Sprintf("insert %s@%d", note.Path, atLine))
	_, err = d.Insert(text, atLine)
	return err
}

func (h *memHost) RemoveParagraphs(_ context.Context, note models.Note, paras []models.Paragraph) error {
	d, err := h.doc(note)
	if err != nil {
		return err
	}
	if len(paras) > 0 && paras[0].Type == h.failRemoveFor {
		return errors.New("remove refused")
	}
	ids := make([]string, len(paras))
	for i, p := range paras {
		ids[i] = p.ID
	}
	h.calls = append(h.calls, fmt.Sprintf("remove %s x%d", note.Path, len(paras)))
	return d.Remove(ids...)
}

func (h *memHost) GetOrCreateNote(_ context.Context, title, folder string) (models.Note, error) {
	if h.failBackup {
		return models.Note{}, errors.New("backup store offline")
	}
	p := path.Join(folder, title+".md")
	if _, ok := h.docs[p]; !ok {
		h.docs[p] = document.Parse([]byte("# " + title + "\n"))
	}
	return models.Note{Path: p, Title: title}, nil
}

func (h *memHost) text(p string) string {
	return string(h.docs[p].Bytes())
}

// scriptedPrompter answers from fixed values.
type scriptedPrompter struct {
	choice string
	yes    bool
	err    error
	asked  []string
}

func (s *scriptedPrompter) PromptChoice(_ context.Context, title string, options []string) (string, error) {
	s.asked = append(s.asked, title)
	if s.err != nil {
		return "", s.err
	}
	if s.choice == "" {
		return options[0], nil
	}
	return s.choice, nil
}

func (s *scriptedPrompter) PromptYesNo(_ context.Context, message string) (bool, error) {
	s.asked = append(s.asked, message)
	return s.yes, s.err
}

const projectNote = `# Project
Intro line
* [ ] b task
- [x] done one
* [ ] !!! urgent #work
* [>] later @alice
* [-] dropped
* [ ] (A) letter
## Notes
text stays

## Done
- [x] archived
`

func boolp(b bool) *bool { return &b }

func plain(fields ...string) Options {
	return Options{Fields: fields, IncludeHeading: boolp(false), Subheadings: boolp(false)}
}

func rawLines(s string) []string {
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	slices.Sort(lines)
	return lines
}

func TestResort_OrdersBucketsOpenFirst(t *testing.T) {
	h := newMemHost(map[string]string{"p.md": projectNote})
	e := New(h, nil, quiet)

	res, err := e.Resort(context.Background(), models.Note{Path: "p.md"}, plain("-priority", "content"))
	require.NoError(t, err)

	want := `# Project
* [ ] !!! urgent #work
* [ ] (A) letter
* [ ] b task
* [>] later @alice
- [x] done one
* [-] dropped
Intro line
## Notes
text stays

## Done
- [x] archived
`
	assert.Equal(t, want, h.text("p.md"))
	assert.Equal(t, 3, res.Moved[models.TypeOpen])
	assert.Equal(t, 1, res.Moved[models.TypeCancelled])
	assert.False(t, res.BackedUp)
}

func TestResort_RoundTripKeepsRawContent(t *testing.T) {
	h := newMemHost(map[string]string{"p.md": projectNote})
	e := New(h, nil, quiet)

	_, err := e.Resort(context.Background(), models.Note{Path: "p.md"}, plain("content"))
	require.NoError(t, err)
	assert.Equal(t, rawLines(projectNote), rawLines(h.text("p.md")))
}

func TestResort_DeletesBeforeInserting(t *testing.T) {
	h := newMemHost(map[string]string{"p.md": projectNote})
	e := New(h, nil, quiet)

	_, err := e.Resort(context.Background(), models.Note{Path: "p.md"}, plain("content"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"remove p.md x3", "remove p.md x1", "remove p.md x1", "remove p.md x1",
		"insert p.md@1", "insert p.md@1", "insert p.md@1", "insert p.md@1",
	}, h.calls)
}

func TestResort_HeadingsSubheadingsAndSeparator(t *testing.T) {
	h := newMemHost(map[string]string{"p.md": projectNote})
	e := New(h, nil, quiet)

	opts := Options{
		Fields:         []string{"hashtags", "content"},
		IncludeHeading: boolp(true),
		Subheadings:    boolp(true),
		Separator:      true,
		Types:          []models.ParagraphType{models.TypeOpen},
	}
	_, err := e.Resort(context.Background(), models.Note{Path: "p.md"}, opts)
	require.NoError(t, err)

	want := `# Project
### Open Tasks
#### #work
* [ ] !!! urgent #work
#### Other
* [ ] (A) letter
* [ ] b task
---
Intro line
- [x] done one
* [>] later @alice
* [-] dropped
## Notes
text stays

## Done
- [x] archived
`
	assert.Equal(t, want, h.text("p.md"))
}

func TestResort_DuplicatesStayInPlace(t *testing.T) {
	note := "* [ ] same\n* [ ] z\n* [ ] same\n"
	h := newMemHost(map[string]string{"d.md": note})
	e := New(h, nil, quiet)

	res, err := e.Resort(context.Background(), models.Note{Path: "d.md"}, plain("-content"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, "* [ ] z\n* [ ] same\n* [ ] same\n", h.text("d.md"))
	assert.Equal(t, rawLines(note), rawLines(h.text("d.md")))
}

func TestResort_ArchiveSectionUntouched(t *testing.T) {
	h := newMemHost(map[string]string{"p.md": projectNote})
	e := New(h, nil, quiet)

	_, err := e.Resort(context.Background(), models.Note{Path: "p.md"},
		Options{Fields: []string{"content"}, IncludeHeading: boolp(false), Subheadings: boolp(false),
			Types: []models.ParagraphType{models.TypeDone}})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(h.text("p.md"), "## Done\n- [x] archived\n"))
}

func TestResort_PromptsForMissingOptions(t *testing.T) {
	h := newMemHost(map[string]string{"p.md": projectNote})
	p := &scriptedPrompter{yes: false}
	e := New(h, p, quiet)

	res, err := e.Resort(context.Background(), models.Note{Path: "p.md"}, Options{})
	require.NoError(t, err)
	assert.Len(t, p.asked, 3)
	assert.Equal(t, []string{"-priority", "content"}, res.Fields)
}

func TestResort_CancelledLeavesNoteUntouched(t *testing.T) {
	h := newMemHost(map[string]string{"p.md": projectNote})
	e := New(h, &scriptedPrompter{err: apperr.ErrCancelled}, quiet)

	_, err := e.Resort(context.Background(), models.Note{Path: "p.md"}, Options{})
	assert.ErrorIs(t, err, apperr.ErrCancelled)
	assert.Equal(t, projectNote, h.text("p.md"))
	assert.Empty(t, h.calls)
}

func TestResort_NoPrompterNeedsFields(t *testing.T) {
	h := newMemHost(map[string]string{"p.md": projectNote})
	_, err := New(h, nil, quiet).Resort(context.Background(), models.Note{Path: "p.md"}, Options{})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestResort_ValidationErrors(t *testing.T) {
	h := newMemHost(map[string]string{"empty.md": "", "plain.md": "# T\njust text\n"})
	e := New(h, nil, quiet)

	_, err := e.Resort(context.Background(), models.Note{Path: "empty.md"}, plain("content"))
	assert.ErrorIs(t, err, apperr.ErrEmptyNote)

	_, err = e.Resort(context.Background(), models.Note{Path: "plain.md"}, plain("content"))
	assert.ErrorIs(t, err, apperr.ErrNoTasks)

	_, err = e.Resort(context.Background(), models.Note{Path: "missing.md"}, plain("content"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.Resort(context.Background(), models.Note{Path: "plain.md"},
		Options{Fields: []string{"content"}, Types: []models.ParagraphType{models.TypeText}})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	h = newMemHost(map[string]string{"p.md": projectNote})
	deep := plain("content")
	deep.HeadingLevel = 9
	_, err = New(h, nil, quiet).Resort(context.Background(), models.Note{Path: "p.md"}, deep)
	assert.ErrorIs(t, err, apperr.ErrInvalid)
	assert.Equal(t, projectNote, h.text("p.md"))
}

func TestResort_PrioritySubheadings(t *testing.T) {
	h := newMemHost(map[string]string{"p.md": projectNote})
	e := New(h, nil, quiet)

	opts := plain("-priority", "content")
	opts.Subheadings = boolp(true)
	opts.HeadingLevel = 2
	opts.Types = []models.ParagraphType{models.TypeOpen}
	_, err := e.Resort(context.Background(), models.Note{Path: "p.md"}, opts)
	require.NoError(t, err)

	want := `# Project
### 3
* [ ] !!! urgent #work
### 1
* [ ] (A) letter
### Other
* [ ] b task
Intro line
`
	assert.True(t, strings.HasPrefix(h.text("p.md"), want), h.text("p.md"))
	assert.NotContains(t, h.text("p.md"), "-1")
}

func TestResort_DeleteFailureSkipsBucket(t *testing.T) {
	h := newMemHost(map[string]string{"p.md": projectNote})
	h.failRemoveFor = models.TypeScheduled
	e := New(h, nil, quiet)

	res, err := e.Resort(context.Background(), models.Note{Path: "p.md"}, plain("content"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped[models.TypeScheduled])
	assert.NotContains(t, res.Moved, models.TypeScheduled)
	assert.Equal(t, rawLines(projectNote), rawLines(h.text("p.md")))
}

func TestResort_InsertFailureAborts(t *testing.T) {
	h := newMemHost(map[string]string{"p.md": projectNote})
	h.failInsert = true
	_, err := New(h, nil, quiet).Resort(context.Background(), models.Note{Path: "p.md"}, plain("content"))
	assert.Error(t, err)
}

func TestResort_BackupWritesRawLines(t *testing.T) {
	defer func(f func() time.Time) { timeNow = f }(timeNow)
	timeNow = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	h := newMemHost(map[string]string{"p.md": projectNote})
	h.hiddenReads = 2
	e := New(h, nil, quiet)

	opts := plain("content")
	opts.Backup = BackupOptions{Enabled: true, Title: "Sort backup", Folder: "backups", Attempts: 4, Backoff: time.Millisecond}
	res, err := e.Resort(context.Background(), models.Note{Path: "p.md"}, opts)
	require.NoError(t, err)
	assert.True(t, res.BackedUp)

	backup := h.text("backups/Sort backup.md")
	assert.True(t, strings.HasPrefix(backup, "# Sort backup\n## p.md 2026-01-02T03:04:05Z\n"), backup)
	for _, raw := range []string{"* [ ] b task", "- [x] done one", "* [>] later @alice", "* [-] dropped"} {
		assert.Contains(t, backup, raw+"\n")
	}
}

func TestResort_BackupFailureIsNotFatal(t *testing.T) {
	h := newMemHost(map[string]string{"p.md": projectNote})
	h.failBackup = true
	e := New(h, nil, quiet)

	opts := plain("content")
	opts.Backup = BackupOptions{Enabled: true, Title: "Sort backup", Folder: "backups", Attempts: 2, Backoff: time.Millisecond}
	res, err := e.Resort(context.Background(), models.Note{Path: "p.md"}, opts)
	require.NoError(t, err)
	assert.False(t, res.BackedUp)
	assert.Equal(t, 3, res.Moved[models.TypeOpen])
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := retry(context.Background(), 5, time.Millisecond,
		func(err error) bool { return errors.Is(err, apperr.ErrNotFound) },
		func() error { calls++; return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetry_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 3, time.Millisecond,
		func(error) bool { return true },
		func() error { calls++; return apperr.ErrNotFound })
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 3, calls)
}
