package models

// ParagraphType classifies a single line of a note.
type ParagraphType string

// Paragraph types. The first four are task types.
const (
	TypeOpen      ParagraphType = "open"
	TypeScheduled ParagraphType = "scheduled"
	TypeDone      ParagraphType = "done"
	TypeCancelled ParagraphType = "cancelled"
	TypeTitle     ParagraphType = "title"
	TypeText      ParagraphType = "text"
	TypeQuote     ParagraphType = "quote"
	TypeList      ParagraphType = "list"
	TypeSeparator ParagraphType = "separator"
	TypeEmpty     ParagraphType = "empty"
)

// TaskTypes lists the task-bearing paragraph types in canonical order.
var TaskTypes = []ParagraphType{TypeOpen, TypeScheduled, TypeDone, TypeCancelled}

// IsTask reports whether t is one of the task types.
func (t ParagraphType) IsTask() bool {
	switch t {
	case TypeOpen, TypeScheduled, TypeDone, TypeCancelled:
		return true
	}
	return false
}

// Valid reports whether t is a known paragraph type.
func (t ParagraphType) Valid() bool {
	switch t {
	case TypeOpen, TypeScheduled, TypeDone, TypeCancelled,
		TypeTitle, TypeText, TypeQuote, TypeList, TypeSeparator, TypeEmpty:
		return true
	}
	return false
}

// Paragraph is one line of a note as seen at read time.
//
// LineIndex is only meaningful until the next insertion or removal on the
// note; ID stays stable for as long as the paragraph exists.
type Paragraph struct {
	ID           string        `json:"id"`
	Type         ParagraphType `json:"type"`
	Content      string        `json:"content"`
	RawContent   string        `json:"raw_content"`
	LineIndex    int           `json:"line_index"`
	HeadingLevel int           `json:"heading_level,omitempty"`
	Indents      int           `json:"indents"`
}

// IsBlank reports whether the paragraph has no visible content.
func (p Paragraph) IsBlank() bool {
	return p.Type == TypeEmpty || p.Content == ""
}

// Field returns the named attribute for multi-key sorting.
func (p Paragraph) Field(name string) (any, bool) {
	switch name {
	case "type":
		return p.Type, true
	case "content":
		return p.Content, true
	case "rawContent", "raw_content":
		return p.RawContent, true
	case "lineIndex", "line_index":
		return p.LineIndex, true
	case "headingLevel", "heading_level":
		if p.Type != TypeTitle {
			return nil, false
		}
		return p.HeadingLevel, true
	case "indents":
		return p.Indents, true
	}
	return nil, false
}
