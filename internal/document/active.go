package document

import (
	"strings"

	"github.com/starford/tasksort/internal/models"
)

// Range is a half-open [Start, End) span of line indices.
type Range struct {
	Start int
	End   int
}

// Contains reports whether line falls inside the range.
func (r Range) Contains(line int) bool {
	return line >= r.Start && line < r.End
}

// archiveHeadings name the trailing sections that hold finished work.
var archiveHeadings = map[string]struct{}{
	"done":      {},
	"cancelled": {},
	"canceled":  {},
}

// ActiveRange returns the part of a note that tasks are read from and
// written to: after frontmatter and an opening H1 title, and before a
// "Done" or "Cancelled" archive heading.
func ActiveRange(paras []models.Paragraph, frontLines int) Range {
	n := len(paras)
	start := min(max(frontLines, 0), n)
	if start < n && paras[start].Type == models.TypeTitle && paras[start].HeadingLevel == 1 {
		start++
	}
	end := n
	for i := start; i < n; i++ {
		p := paras[i]
		if p.Type != models.TypeTitle || p.HeadingLevel > 2 {
			continue
		}
		if _, ok := archiveHeadings[strings.ToLower(strings.TrimSpace(p.Content))]; ok {
			end = i
			break
		}
	}
	return Range{Start: start, End: end}
}

// ActiveRange returns the active span of the document.
func (d *Document) ActiveRange() Range {
	return ActiveRange(d.Paragraphs(), d.frontLines)
}
