// Package blocks groups note paragraphs into contiguous blocks delimited by
// separators, empty lines and heading-level transitions.
package blocks

import (
	"math"

	"github.com/starford/tasksort/internal/models"
)

// Block is a contiguous run of paragraphs.
type Block []models.Paragraph

// segmenter is the fold state threaded through Segment.
type segmenter struct {
	blocks             []Block
	current            Block
	lowestHeadingLevel int
}

func newSegmenter() *segmenter {
	return &segmenter{lowestHeadingLevel: math.MaxInt}
}

func (s *segmenter) flush() {
	if len(s.current) > 0 {
		s.blocks = append(s.blocks, s.current)
	}
	s.current = nil
	s.lowestHeadingLevel = math.MaxInt
}

func (s *segmenter) step(p models.Paragraph) {
	switch {
	case p.Type == models.TypeEmpty || p.Type == models.TypeSeparator:
		s.flush()
		s.blocks = append(s.blocks, Block{p})

	case p.Type == models.TypeTitle && p.HeadingLevel <= s.lowestHeadingLevel:
		s.flush()
		s.current = Block{p}
		s.lowestHeadingLevel = p.HeadingLevel

	default:
		s.current = append(s.current, p)
		if p.Type == models.TypeTitle {
			s.lowestHeadingLevel = min(s.lowestHeadingLevel, p.HeadingLevel)
		}
	}
}

// Segment splits paragraphs into blocks. Empty lines and separators become
// singleton blocks; a heading at or above the highest level seen in the
// current block starts a new one. Concatenating the result reproduces the
// input.
func Segment(paragraphs []models.Paragraph) []Block {
	s := newSegmenter()
	for _, p := range paragraphs {
		s.step(p)
	}
	s.flush()
	return s.blocks
}

// Flatten concatenates blocks back into a paragraph list.
func Flatten(bs []Block) []models.Paragraph {
	var out []models.Paragraph
	for _, b := range bs {
		out = append(out, b...)
	}
	return out
}
