// Package tasks classifies task paragraphs by status and extracts the
// priority, hashtag and mention annotations used for sorting.
package tasks

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/starford/tasksort/internal/apperr"
	"github.com/starford/tasksort/internal/models"
)

var (
	hashtagRe     = regexp.MustCompile(`\B#([A-Za-z0-9_]+)\b`)
	mentionRe     = regexp.MustCompile(`\B@([A-Za-z0-9_]+)\b`)
	exclamationRe = regexp.MustCompile(`\B!+\B`)
	parensRe      = regexp.MustCompile(`^\s*\(([A-Za-z])\)`)
)

// NoPriority marks a task without a priority annotation.
const NoPriority = -1

// Task is a task paragraph with its extracted annotations.
type Task struct {
	models.Paragraph
	Priority       int      `json:"priority"`
	Hashtags       []string `json:"hashtags"`
	Mentions       []string `json:"mentions"`
	Exclamations   []string `json:"exclamations"`
	ParensPriority []string `json:"parens_priority"`
}

// Field implements sorting.Fielder.
func (t Task) Field(name string) (any, bool) {
	switch name {
	case "priority":
		return t.Priority, true
	case "hashtags":
		return t.Hashtags, true
	case "mentions":
		return t.Mentions, true
	case "exclamations":
		return t.Exclamations, true
	case "parensPriority", "parens_priority":
		return t.ParensPriority, true
	}
	return t.Paragraph.Field(name)
}

// Buckets maps each task type to its tasks in note order.
type Buckets map[models.ParagraphType][]Task

// Count returns the total number of tasks across all buckets.
func (b Buckets) Count() int {
	n := 0
	for _, ts := range b {
		n += len(ts)
	}
	return n
}

// Extract derives a Task from a task paragraph.
func Extract(p models.Paragraph) (Task, error) {
	if !p.Type.IsTask() {
		return Task{}, fmt.Errorf("tasks: paragraph type %q is not a task: %w", p.Type, apperr.ErrInvalid)
	}
	if !utf8.ValidString(p.Content) {
		return Task{}, fmt.Errorf("tasks: line %d has malformed content: %w", p.LineIndex, apperr.ErrInvalid)
	}

	t := Task{
		Paragraph:      p,
		Hashtags:       submatches(hashtagRe, p.Content),
		Mentions:       submatches(mentionRe, p.Content),
		Exclamations:   exclamationRe.FindAllString(p.Content, -1),
		ParensPriority: submatches(parensRe, p.Content),
		Priority:       NoPriority,
	}
	if t.Exclamations == nil {
		t.Exclamations = []string{}
	}
	switch {
	case len(t.Exclamations) > 0:
		t.Priority = len(t.Exclamations[0])
	case len(t.ParensPriority) > 0:
		letter := strings.ToUpper(t.ParensPriority[0])
		t.ParensPriority[0] = letter
		t.Priority = int(letter[0]-'A') + 1
	}
	return t, nil
}

func submatches(re *regexp.Regexp, s string) []string {
	out := []string{}
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

// Classify buckets the task paragraphs by type. Paragraphs whose extraction
// fails are logged and left out; other paragraphs are ignored.
func Classify(paragraphs []models.Paragraph, logger *slog.Logger) Buckets {
	out := make(Buckets, len(models.TaskTypes))
	for _, tt := range models.TaskTypes {
		out[tt] = []Task{}
	}
	for _, p := range paragraphs {
		if !p.Type.IsTask() {
			continue
		}
		t, err := Extract(p)
		if err != nil {
			logger.Warn("classify: skipping paragraph",
				slog.Int("line", p.LineIndex),
				slog.String("error", err.Error()))
			continue
		}
		out[p.Type] = append(out[p.Type], t)
	}
	return out
}
