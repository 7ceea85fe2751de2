package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/starford/tasksort/internal/apperr"
	"github.com/starford/tasksort/internal/blocks"
	"github.com/starford/tasksort/internal/models"
	"github.com/starford/tasksort/internal/noteservice"
	"github.com/starford/tasksort/internal/prompt"
)

// Sort resorts the tasks of note, asking on the terminal for any choice req
// leaves open. Cancelling at a prompt is not an error.
func Sort(ctx context.Context, note string, req noteservice.SortRequest, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.setup(newLogger(os.Stderr, app.config.App.LogLevel))
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.svc.SortTasks(ctx, note, req, prompt.NewTerminal(app.stdin, app.stdout))
	switch {
	case errors.Is(err, apperr.ErrCancelled):
		fmt.Fprintln(app.stdout, "Sort cancelled, note left unchanged.")
		return nil
	case errors.Is(err, apperr.ErrNoTasks):
		fmt.Fprintf(app.stdout, "No tasks to sort in %s.\n", note)
		return nil
	case err != nil:
		return err
	}

	fmt.Fprintf(app.stdout, "Sorted %s by %s\n", note, strings.Join(res.Fields, ", "))
	for _, tt := range models.TaskTypes {
		if n := res.Moved[tt]; n > 0 {
			fmt.Fprintf(app.stdout, "  %-10s %d moved\n", tt, n)
		}
		if n := res.Skipped[tt]; n > 0 {
			fmt.Fprintf(app.stdout, "  %-10s %d left in place\n", tt, n)
		}
	}
	if res.Duplicates > 0 {
		fmt.Fprintf(app.stdout, "  %d duplicate tasks left in place\n", res.Duplicates)
	}
	if res.BackedUp {
		fmt.Fprintf(app.stdout, "  backup written to %q\n", app.config.Sort.Backup.Title)
	}
	return nil
}

// PrintBlocks writes every block of note, one "line: raw" row per paragraph.
func PrintBlocks(ctx context.Context, note string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.setup(newLogger(os.Stderr, app.config.App.LogLevel))
	if err != nil {
		return err
	}
	defer rt.Close()

	bs, err := rt.svc.Blocks(ctx, note)
	if err != nil {
		return err
	}
	for i, b := range bs {
		if i > 0 {
			fmt.Fprintln(app.stdout)
		}
		printBlock(app, b)
	}
	return nil
}

// PrintBlockAt writes the block around line of note.
func PrintBlockAt(ctx context.Context, note string, line int, around blocks.AroundOptions, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.setup(newLogger(os.Stderr, app.config.App.LogLevel))
	if err != nil {
		return err
	}
	defer rt.Close()

	b, err := rt.svc.BlockAt(ctx, note, line, around)
	if err != nil {
		return err
	}
	printBlock(app, b)
	return nil
}

func printBlock(app *application, b blocks.Block) {
	if len(b) == 0 {
		return
	}
	first, last := b[0], b[len(b)-1]
	fmt.Fprintf(app.stdout, "# lines %d-%d\n", first.LineIndex, last.LineIndex)
	for _, p := range b {
		fmt.Fprintf(app.stdout, "%4d  %-9s %s\n", p.LineIndex, p.Type, p.RawContent)
	}
}

// ParseTypes turns a comma separated list into task types.
func ParseTypes(s string) ([]models.ParagraphType, error) {
	var out []models.ParagraphType
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t := models.ParagraphType(part)
		if !t.IsTask() {
			return nil, fmt.Errorf("%q is not a task type, want one of %v: %w", part, models.TaskTypes, apperr.ErrInvalid)
		}
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, nil
}
