// Package parser turns raw Markdown notes into frontmatter, tags, a title and
// a flat list of line paragraphs.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	// FrontmatterLines is the number of leading lines (delimiters included)
	// taken up by frontmatter; zero when there is none.
	FrontmatterLines int
	Body             string
	Tags             []string
	Title            string
}

// Parse extracts frontmatter, body, tags and title from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, n, body := splitFrontmatter(data)
	return &Result{
		Frontmatter:      fm,
		FrontmatterLines: n,
		Body:             body,
		Tags:             extractTags(body, fm),
		Title:            deriveTitle(fm, body),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- lines)
// from the body. Frontmatter must start on the first line so that line
// numbers stay aligned with the paragraph list. Invalid YAML is treated as
// body.
func splitFrontmatter(data []byte) (map[string]any, int, string) {
	const delim = "---"
	text := string(data)
	lines := strings.Split(text, "\n")
	if len(lines) < 2 || strings.TrimRight(lines[0], "\r") != delim {
		return nil, 0, text
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == delim {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, 0, text
	}

	yamlBlock := strings.Join(lines[1:end], "\n")
	var fm map[string]any
	if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
		return nil, 0, text
	}
	if fm == nil {
		fm = map[string]any{}
	}
	body := strings.Join(lines[end+1:], "\n")
	return fm, end + 1, body
}

// extractTags collects #tags from the frontmatter "tags" list and the body.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if raw, ok := fm["tags"].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// Render joins raw paragraph lines back into file content, keeping a single
// trailing newline.
func Render(lines []string) []byte {
	var b bytes.Buffer
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.Bytes()
}
