package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/starford/tasksort/internal/apperr"
	"github.com/starford/tasksort/internal/models"
	"github.com/starford/tasksort/internal/sorting"
	"github.com/starford/tasksort/internal/tasks"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// BackupOptions configure the copy of moved tasks kept before deletion.
type BackupOptions struct {
	Enabled  bool
	Title    string
	Folder   string
	Attempts int
	Backoff  time.Duration
}

// Options control a Resort run. Nil pointers and empty Fields are asked for
// through the Prompter.
type Options struct {
	Fields         []string
	IncludeHeading *bool
	Subheadings    *bool
	Separator      bool
	// HeadingLevel is the level of the per-status heading; subheadings go
	// one level deeper. Zero means 3; anything outside 1-5 is rejected.
	HeadingLevel int
	// Types limits which status buckets are moved. Defaults to all four.
	Types  []models.ParagraphType
	Backup BackupOptions
}

// Result summarises a Resort run.
type Result struct {
	Fields     []string                     `json:"fields"`
	Moved      map[models.ParagraphType]int `json:"moved"`
	Skipped    map[models.ParagraphType]int `json:"skipped,omitempty"`
	Duplicates int                          `json:"duplicates"`
	BackedUp   bool                         `json:"backed_up"`
}

// Engine runs the resort pipeline against a Host.
type Engine struct {
	host   Host
	prompt Prompter
	logger *slog.Logger
}

// New creates an Engine. prompt may be nil when callers always pass complete
// Options.
func New(host Host, prompt Prompter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{host: host, prompt: prompt, logger: logger}
}

// bucket is one status group moving through the pipeline.
type bucket struct {
	typ     models.ParagraphType
	tasks   []tasks.Task
	deleted bool
}

// Resort classifies, sorts, backs up, deletes and reinserts the tasks of
// note. Steps run strictly in that order; all deletions finish before the
// first insertion. A failed insertion aborts the run and may leave it half
// done.
func (e *Engine) Resort(ctx context.Context, note models.Note, opts Options) (*Result, error) {
	paras, err := e.host.ReadParagraphs(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("rewrite: read %s: %w", note.Path, err)
	}
	if len(paras) == 0 {
		return nil, apperr.ErrEmptyNote
	}
	active, err := e.host.ActiveRange(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("rewrite: active range %s: %w", note.Path, err)
	}

	opts, err = e.resolveOptions(ctx, opts)
	if err != nil {
		return nil, err
	}

	classified := tasks.Classify(paras[active.Start:active.End], e.logger)
	res := &Result{
		Fields:  opts.Fields,
		Moved:   make(map[models.ParagraphType]int),
		Skipped: make(map[models.ParagraphType]int),
	}

	var buckets []*bucket
	for _, tt := range models.TaskTypes {
		if !slices.Contains(opts.Types, tt) || len(classified[tt]) == 0 {
			continue
		}
		unique, dups := e.dropDuplicates(classified[tt])
		res.Duplicates += dups
		buckets = append(buckets, &bucket{typ: tt, tasks: sorting.SortBy(unique, opts.Fields)})
	}
	if len(buckets) == 0 {
		return nil, apperr.ErrNoTasks
	}

	if opts.Backup.Enabled {
		if err := e.backup(ctx, note, buckets, opts.Backup); err != nil {
			e.logger.Warn("resort: backup failed, continuing",
				slog.String("path", note.Path),
				slog.String("error", err.Error()))
		} else {
			res.BackedUp = true
		}
	}

	for _, b := range buckets {
		if err := e.deleteBucket(ctx, note, b); err != nil {
			e.logger.Warn("resort: delete failed, leaving bucket in place",
				slog.String("path", note.Path),
				slog.String("type", string(b.typ)),
				slog.String("error", err.Error()))
			res.Skipped[b.typ] = len(b.tasks)
			continue
		}
		b.deleted = true
	}

	active, err = e.host.ActiveRange(ctx, note)
	if err != nil {
		return res, fmt.Errorf("rewrite: active range %s: %w", note.Path, err)
	}

	// Every bucket goes in at the same anchor, so writing them in reverse
	// leaves open tasks on top.
	for i := len(buckets) - 1; i >= 0; i-- {
		b := buckets[i]
		if !b.deleted {
			continue
		}
		text := renderBucket(b, opts)
		if err := e.host.InsertText(ctx, note, text, active.Start); err != nil {
			return res, fmt.Errorf("rewrite: insert %s tasks into %s: %w", b.typ, note.Path, err)
		}
		res.Moved[b.typ] = len(b.tasks)
		e.logger.Debug("resort: reinserted bucket",
			slog.String("path", note.Path),
			slog.String("type", string(b.typ)),
			slog.Int("tasks", len(b.tasks)))
	}

	e.logger.Info("resort: done",
		slog.String("path", note.Path),
		slog.String("fields", strings.Join(opts.Fields, ",")),
		slog.Int("duplicates", res.Duplicates))
	return res, nil
}

// dropDuplicates keeps the first task for each raw content. Later copies
// stay where they are in the note.
func (e *Engine) dropDuplicates(ts []tasks.Task) ([]tasks.Task, int) {
	seen := make(map[string]int, len(ts))
	out := make([]tasks.Task, 0, len(ts))
	for _, t := range ts {
		seen[t.RawContent]++
		if seen[t.RawContent] > 1 {
			continue
		}
		out = append(out, t)
	}
	dups := 0
	for raw, n := range seen {
		if n < 2 {
			continue
		}
		dups += n - 1
		err := &apperr.DuplicateContentError{RawContent: raw, Count: n}
		e.logger.Warn("resort: duplicate task left in place", slog.String("error", err.Error()))
	}
	return out, dups
}

// deleteBucket matches each task to a live paragraph by exact raw content,
// first match wins, and removes them in one host call.
func (e *Engine) deleteBucket(ctx context.Context, note models.Note, b *bucket) error {
	paras, err := e.host.ReadParagraphs(ctx, note)
	if err != nil {
		return err
	}
	active, err := e.host.ActiveRange(ctx, note)
	if err != nil {
		return err
	}

	claimed := make(map[string]struct{}, len(b.tasks))
	victims := make([]models.Paragraph, 0, len(b.tasks))
	for _, t := range b.tasks {
		p, ok := firstMatch(paras[active.Start:active.End], t.RawContent, claimed)
		if !ok {
			return fmt.Errorf("task %q: %w", t.RawContent, apperr.ErrNotFound)
		}
		claimed[p.ID] = struct{}{}
		victims = append(victims, p)
	}
	return e.host.RemoveParagraphs(ctx, note, victims)
}

func firstMatch(paras []models.Paragraph, raw string, claimed map[string]struct{}) (models.Paragraph, bool) {
	for _, p := range paras {
		if p.RawContent != raw {
			continue
		}
		if _, taken := claimed[p.ID]; taken {
			continue
		}
		return p, true
	}
	return models.Paragraph{}, false
}

// backup appends the raw lines of every bucket to the backup note.
func (e *Engine) backup(ctx context.Context, note models.Note, buckets []*bucket, opts BackupOptions) error {
	var target models.Note
	var end int
	// A just-created note can lag behind the host's lookup.
	err := retry(ctx, opts.Attempts, opts.Backoff,
		func(err error) bool { return errors.Is(err, apperr.ErrNotFound) },
		func() error {
			n, err := e.host.GetOrCreateNote(ctx, opts.Title, opts.Folder)
			if err != nil {
				return err
			}
			ps, err := e.host.ReadParagraphs(ctx, n)
			if err != nil {
				return err
			}
			target, end = n, len(ps)
			return nil
		})
	if err != nil {
		return fmt.Errorf("backup note %q: %w", opts.Title, err)
	}

	lines := []string{fmt.Sprintf("## %s %s", note.Path, timeNow().Format(time.RFC3339))}
	for _, b := range buckets {
		for _, t := range b.tasks {
			lines = append(lines, t.RawContent)
		}
	}
	return e.host.InsertText(ctx, target, strings.Join(lines, "\n"), end)
}

func (e *Engine) resolveOptions(ctx context.Context, opts Options) (Options, error) {
	if len(opts.Types) == 0 {
		opts.Types = slices.Clone(models.TaskTypes)
	}
	for _, tt := range opts.Types {
		if !tt.IsTask() {
			return opts, fmt.Errorf("rewrite: %q is not a task type: %w", tt, apperr.ErrInvalid)
		}
	}
	switch {
	case opts.HeadingLevel == 0:
		opts.HeadingLevel = 3
	case opts.HeadingLevel < 1 || opts.HeadingLevel > 5:
		return opts, fmt.Errorf("rewrite: heading level %d outside 1-5: %w", opts.HeadingLevel, apperr.ErrInvalid)
	}

	if len(sorting.ParseKeys(opts.Fields)) == 0 {
		if e.prompt == nil {
			return opts, fmt.Errorf("rewrite: sort fields are required: %w", apperr.ErrInvalid)
		}
		labels := make([]string, len(sorting.Presets))
		for i, p := range sorting.Presets {
			labels[i] = p.Label
		}
		choice, err := e.prompt.PromptChoice(ctx, "Sort tasks by", labels)
		if err != nil {
			return opts, err
		}
		preset, ok := sorting.PresetByLabel(choice)
		if !ok {
			return opts, fmt.Errorf("rewrite: unknown sort order %q: %w", choice, apperr.ErrInvalid)
		}
		opts.Fields = preset.Fields
	}

	var err error
	if opts.IncludeHeading, err = e.askBool(ctx, opts.IncludeHeading, "Add a heading above each task group?"); err != nil {
		return opts, err
	}
	if opts.Subheadings, err = e.askBool(ctx, opts.Subheadings,
		fmt.Sprintf("Add a subheading whenever %q changes?", sorting.ParseKeys(opts.Fields)[0].Field)); err != nil {
		return opts, err
	}
	return opts, nil
}

func (e *Engine) askBool(ctx context.Context, v *bool, question string) (*bool, error) {
	if v != nil {
		return v, nil
	}
	if e.prompt == nil {
		f := false
		return &f, nil
	}
	yes, err := e.prompt.PromptYesNo(ctx, question)
	if err != nil {
		return nil, err
	}
	return &yes, nil
}
