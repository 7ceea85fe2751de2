package index

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/tasksort/internal/document"
	"github.com/starford/tasksort/internal/models"
	"github.com/starford/tasksort/internal/parser"
	"github.com/starford/tasksort/internal/sorting"
	"github.com/starford/tasksort/internal/tasks"
)

// TaskRow represents a row in the tasks table.
type TaskRow struct {
	Path     string               `json:"path"`
	Line     int                  `json:"line"`
	Type     models.ParagraphType `json:"type"`
	Priority int                  `json:"priority"`
	Content  string               `json:"content"`
	Raw      string               `json:"raw"`
	Hashtags []string             `json:"hashtags"`
	Mentions []string             `json:"mentions"`
}

// Field exposes the row to the sorting package.
func (t TaskRow) Field(name string) (any, bool) {
	switch name {
	case "path":
		return t.Path, true
	case "line", "lineIndex", "line_index":
		return t.Line, true
	case "type":
		return t.Type, true
	case "priority":
		return t.Priority, true
	case "content":
		return t.Content, true
	case "raw", "rawContent", "raw_content":
		return t.Raw, true
	case "hashtags":
		return t.Hashtags, true
	case "mentions":
		return t.Mentions, true
	}
	return nil, false
}

// TaskFilter narrows ListTasks. Zero fields match everything.
type TaskFilter struct {
	Path    string
	Type    models.ParagraphType
	Hashtag string
	Mention string
	// Query matches task content: FTS5 syntax when built with sqlite_fts5,
	// a substring otherwise.
	Query string
	// Sort holds sorting selectors such as "-priority". Without it rows come
	// back by path and line.
	Sort  []string
	Limit int
}

// ListTasks returns the indexed tasks matching f.
func (db *DB) ListTasks(f TaskFilter) ([]TaskRow, error) {
	var where []string
	var args []any
	if f.Path != "" {
		where = append(where, `t.path = ?`)
		args = append(args, f.Path)
	}
	if f.Type != "" {
		where = append(where, `t.type = ?`)
		args = append(args, string(f.Type))
	}
	if f.Hashtag != "" {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(t.hashtags) WHERE json_each.value = ? COLLATE NOCASE)`)
		args = append(args, strings.TrimPrefix(f.Hashtag, "#"))
	}
	if f.Mention != "" {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(t.mentions) WHERE json_each.value = ? COLLATE NOCASE)`)
		args = append(args, strings.TrimPrefix(f.Mention, "@"))
	}
	if f.Query != "" {
		clause, arg := ftsMatch(f.Query)
		where = append(where, clause)
		args = append(args, arg)
	}

	q := `SELECT t.path, t.line, t.type, t.priority, t.content, t.raw, t.hashtags, t.mentions FROM tasks t`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY t.path, t.line`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list tasks: %w", err)
	}
	defer rows.Close()

	out := []TaskRow{}
	for rows.Next() {
		var t TaskRow
		var typ, hashtags, mentions string
		if err := rows.Scan(&t.Path, &t.Line, &typ, &t.Priority, &t.Content, &t.Raw, &hashtags, &mentions); err != nil {
			return nil, err
		}
		t.Type = models.ParagraphType(typ)
		_ = json.Unmarshal([]byte(hashtags), &t.Hashtags)
		_ = json.Unmarshal([]byte(mentions), &t.Mentions)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(f.Sort) > 0 {
		out = sorting.SortBy(out, f.Sort)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// BuildRows parses a note file into its index rows. Tasks are taken from the
// whole body, archive sections included.
func BuildRows(path string, data []byte, logger *slog.Logger) (NoteRow, []TaskRow, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return NoteRow{}, nil, err
	}
	paras := parser.Paragraphs(data)
	buckets := tasks.Classify(paras[min(res.FrontmatterLines, len(paras)):], logger)

	var rows []TaskRow
	for _, tt := range models.TaskTypes {
		for _, t := range buckets[tt] {
			rows = append(rows, TaskRow{
				Path:     path,
				Line:     t.LineIndex,
				Type:     t.Type,
				Priority: t.Priority,
				Content:  t.Content,
				Raw:      t.RawContent,
				Hashtags: t.Hashtags,
				Mentions: t.Mentions,
			})
		}
	}
	note := NoteRow{
		Path:     path,
		Title:    res.Title,
		Checksum: document.Checksum(data),
		Tags:     res.Tags,
	}
	return note, rows, nil
}
