// Package document holds a note's paragraphs in an arena addressed by stable
// IDs. Line positions are derived on demand, so callers never carry indices
// across mutations.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/starford/tasksort/internal/apperr"
	"github.com/starford/tasksort/internal/models"
	"github.com/starford/tasksort/internal/parser"
)

// Document is the mutable paragraph list of one note.
type Document struct {
	order      []string
	paras      map[string]models.Paragraph
	frontLines int
}

// Parse builds a Document from raw file content.
func Parse(data []byte) *Document {
	res, _ := parser.Parse(data)
	d := &Document{paras: make(map[string]models.Paragraph)}
	if res != nil {
		d.frontLines = res.FrontmatterLines
	}
	for _, p := range parser.Paragraphs(data) {
		d.add(len(d.order), p)
	}
	return d
}

func (d *Document) add(at int, p models.Paragraph) {
	p.ID = ulid.Make().String()
	d.paras[p.ID] = p
	d.order = append(d.order, "")
	copy(d.order[at+1:], d.order[at:])
	d.order[at] = p.ID
}

// Clone returns an independent copy. Paragraph IDs are kept.
func (d *Document) Clone() *Document {
	return &Document{
		order:      slices.Clone(d.order),
		paras:      maps.Clone(d.paras),
		frontLines: d.frontLines,
	}
}

// Len returns the number of paragraphs.
func (d *Document) Len() int { return len(d.order) }

// FrontmatterLines returns how many leading lines belong to frontmatter.
func (d *Document) FrontmatterLines() int { return d.frontLines }

// Paragraphs returns a snapshot of the paragraphs with current line indices.
func (d *Document) Paragraphs() []models.Paragraph {
	out := make([]models.Paragraph, len(d.order))
	for i, id := range d.order {
		p := d.paras[id]
		p.LineIndex = i
		out[i] = p
	}
	return out
}

// Position resolves a paragraph ID to its current line.
func (d *Document) Position(id string) (int, bool) {
	if _, ok := d.paras[id]; !ok {
		return 0, false
	}
	for i, oid := range d.order {
		if oid == id {
			return i, true
		}
	}
	return 0, false
}

// Insert splits text into lines and inserts them before line atLine. An
// atLine past the end appends. It returns the new paragraphs.
func (d *Document) Insert(text string, atLine int) ([]models.Paragraph, error) {
	if atLine < 0 {
		return nil, fmt.Errorf("document: insert at negative line %d", atLine)
	}
	if atLine > len(d.order) {
		atLine = len(d.order)
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	out := make([]models.Paragraph, 0, len(lines))
	for i, l := range lines {
		p := parser.ParseLine(l)
		d.add(atLine+i, p)
		p = d.paras[d.order[atLine+i]]
		p.LineIndex = atLine + i
		out = append(out, p)
	}
	if atLine < d.frontLines {
		d.frontLines += len(lines)
	}
	return out, nil
}

// Remove deletes the paragraphs with the given IDs. Unknown IDs are reported
// and nothing is removed.
func (d *Document) Remove(ids ...string) error {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := d.paras[id]; !ok {
			return fmt.Errorf("document: paragraph %q: %w", id, apperr.ErrNotFound)
		}
		drop[id] = struct{}{}
	}
	front := d.frontLines
	kept := d.order[:0]
	for i, id := range d.order {
		if _, ok := drop[id]; ok {
			if i < front {
				d.frontLines--
			}
			delete(d.paras, id)
			continue
		}
		kept = append(kept, id)
	}
	d.order = kept
	return nil
}

// Bytes renders the document back to file content.
func (d *Document) Bytes() []byte {
	lines := make([]string, len(d.order))
	for i, id := range d.order {
		lines[i] = d.paras[id].RawContent
	}
	return parser.Render(lines)
}

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
