package parser

import (
	"regexp"
	"strings"

	"github.com/starford/tasksort/internal/models"
)

var (
	separatorRe = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})\s*$`)
	headingRe   = regexp.MustCompile(`^(#{1,6})(?:\s+(.*?))?\s*$`)
	checkboxRe  = regexp.MustCompile(`^[*+-]\s+\[([ xX>-])\](?:\s+(.*))?$`)
	bulletRe    = regexp.MustCompile(`^([*+-])\s+(.*)$`)
	numberedRe  = regexp.MustCompile(`^\d+[.)]\s+(.*)$`)
	quoteRe     = regexp.MustCompile(`^>\s?(.*)$`)
)

// SplitLines breaks file content into lines. A single trailing newline does
// not produce an extra empty line.
func SplitLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Paragraphs classifies every line of data. IDs are left empty; callers that
// need stable identities assign them.
func Paragraphs(data []byte) []models.Paragraph {
	lines := SplitLines(data)
	out := make([]models.Paragraph, len(lines))
	for i, l := range lines {
		out[i] = ParseLine(l)
		out[i].LineIndex = i
	}
	return out
}

// ParseLine classifies a single raw line.
func ParseLine(raw string) models.Paragraph {
	p := models.Paragraph{RawContent: raw}
	if strings.TrimSpace(raw) == "" {
		p.Type = models.TypeEmpty
		return p
	}

	trimmed := strings.TrimLeft(raw, " \t")
	p.Indents = countIndents(raw[:len(raw)-len(trimmed)])
	trimmed = strings.TrimRight(trimmed, " \t")

	if p.Indents == 0 && separatorRe.MatchString(trimmed) {
		p.Type = models.TypeSeparator
		p.Content = trimmed
		return p
	}
	if m := headingRe.FindStringSubmatch(trimmed); m != nil && p.Indents == 0 {
		p.Type = models.TypeTitle
		p.HeadingLevel = len(m[1])
		p.Content = m[2]
		return p
	}
	if m := checkboxRe.FindStringSubmatch(trimmed); m != nil {
		p.Type = checkboxType(m[1])
		p.Content = m[2]
		return p
	}
	if m := bulletRe.FindStringSubmatch(trimmed); m != nil {
		// "* item" is a task without a checkbox; "-" and "+" are plain lists.
		if m[1] == "*" {
			p.Type = models.TypeOpen
		} else {
			p.Type = models.TypeList
		}
		p.Content = m[2]
		return p
	}
	if m := numberedRe.FindStringSubmatch(trimmed); m != nil {
		p.Type = models.TypeList
		p.Content = m[1]
		return p
	}
	if m := quoteRe.FindStringSubmatch(trimmed); m != nil {
		p.Type = models.TypeQuote
		p.Content = m[1]
		return p
	}
	p.Type = models.TypeText
	p.Content = trimmed
	return p
}

func checkboxType(mark string) models.ParagraphType {
	switch mark {
	case "x", "X":
		return models.TypeDone
	case ">":
		return models.TypeScheduled
	case "-":
		return models.TypeCancelled
	}
	return models.TypeOpen
}

// countIndents counts one level per tab and per pair of spaces.
func countIndents(ws string) int {
	n, spaces := 0, 0
	for _, r := range ws {
		switch r {
		case '\t':
			n++
		case ' ':
			spaces++
		}
	}
	return n + spaces/2
}
