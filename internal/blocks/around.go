package blocks

import (
	"github.com/starford/tasksort/internal/document"
	"github.com/starford/tasksort/internal/models"
)

// AroundOptions tune BlockAt.
type AroundOptions struct {
	// FromStartOfSection walks back to the start of the enclosing section
	// before collecting, and ignores indentation going forward.
	FromStartOfSection bool
	// Tight stops at separators and empty lines as well as headings.
	Tight bool
}

// BlockAt returns the block containing the paragraph at index. A heading
// collects everything down to the next heading of the same or higher level;
// any other paragraph collects what follows it at the same or deeper
// indentation, up to the next heading. Out-of-range indices give nil.
func BlockAt(paras []models.Paragraph, active document.Range, index int, opts AroundOptions) Block {
	if index < 0 || index >= len(paras) {
		return nil
	}

	start := index
	if opts.FromStartOfSection {
		start = sectionStart(paras, active.Start, index)
	}

	limit := len(paras)
	if active.Contains(start) {
		limit = active.End
	}

	first := paras[start]
	out := Block{first}
	for i := start + 1; i < limit; i++ {
		p := paras[i]
		if opts.Tight && (p.Type == models.TypeSeparator || p.Content == "") {
			break
		}
		if first.Type == models.TypeTitle {
			if p.Type == models.TypeTitle && p.HeadingLevel <= first.HeadingLevel {
				break
			}
		} else {
			if p.Type == models.TypeTitle {
				break
			}
			if !opts.FromStartOfSection && p.Indents < first.Indents {
				break
			}
		}
		out = append(out, p)
	}
	return out
}

// sectionStart scans backwards from index for the line that opens its
// section. Separators, empty lines and H1 headings close the previous
// section; a lower-level heading opens this one.
func sectionStart(paras []models.Paragraph, floor, index int) int {
	for i := index - 1; i >= floor; i-- {
		p := paras[i]
		switch {
		case p.Type == models.TypeSeparator, p.Content == "":
			return i + 1
		case p.Type == models.TypeTitle && p.HeadingLevel == 1:
			return i + 1
		case p.Type == models.TypeTitle:
			return i
		}
	}
	if index > floor {
		return floor
	}
	return index
}
