package document

import (
	"errors"
	"testing"

	"github.com/starford/tasksort/internal/apperr"
	"github.com/starford/tasksort/internal/models"
)

const sample = "---\ntitle: Sample\n---\n# Sample\n* [ ] one\n* [ ] two\n\n## Done\n- [x] old\n"

func TestParse_AssignsUniqueIDs(t *testing.T) {
	d := Parse([]byte(sample))
	if d.Len() != 9 {
		t.Fatalf("len = %d, want 9", d.Len())
	}
	seen := map[string]bool{}
	for _, p := range d.Paragraphs() {
		if p.ID == "" || seen[p.ID] {
			t.Fatalf("bad or duplicate id %q", p.ID)
		}
		seen[p.ID] = true
	}
	if d.FrontmatterLines() != 3 {
		t.Errorf("frontmatter lines = %d, want 3", d.FrontmatterLines())
	}
}

func TestBytes_RoundTrip(t *testing.T) {
	d := Parse([]byte(sample))
	if got := string(d.Bytes()); got != sample {
		t.Errorf("Bytes = %q, want %q", got, sample)
	}
}

func TestInsert_KeepsIDsStable(t *testing.T) {
	d := Parse([]byte(sample))
	before := d.Paragraphs()
	two := before[5]

	inserted, err := d.Insert("### Tasks\n* [ ] zero", 4)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if len(inserted) != 2 || inserted[0].Type != models.TypeTitle || inserted[1].LineIndex != 5 {
		t.Fatalf("unexpected inserted paragraphs: %+v", inserted)
	}
	pos, ok := d.Position(two.ID)
	if !ok || pos != 7 {
		t.Errorf("position of %q = %d,%v, want 7", two.Content, pos, ok)
	}
}

func TestInsert_PastEndAppends(t *testing.T) {
	d := Parse([]byte("a\n"))
	if _, err := d.Insert("b", 99); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := string(d.Bytes()); got != "a\nb\n" {
		t.Errorf("Bytes = %q", got)
	}
	if _, err := d.Insert("c", -1); err == nil {
		t.Error("expected error for negative line")
	}
}

func TestRemove(t *testing.T) {
	d := Parse([]byte(sample))
	ps := d.Paragraphs()
	if err := d.Remove(ps[4].ID, ps[5].ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := string(d.Bytes()); got != "---\ntitle: Sample\n---\n# Sample\n\n## Done\n- [x] old\n" {
		t.Errorf("Bytes = %q", got)
	}
	if _, ok := d.Position(ps[4].ID); ok {
		t.Error("removed paragraph still resolvable")
	}
}

func TestRemove_UnknownIDIsNotFound(t *testing.T) {
	d := Parse([]byte(sample))
	err := d.Remove(d.Paragraphs()[4].ID, "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if d.Len() != 9 {
		t.Errorf("partial removal happened: len = %d", d.Len())
	}
}

func TestActiveRange(t *testing.T) {
	d := Parse([]byte(sample))
	r := d.ActiveRange()
	if r.Start != 4 || r.End != 7 {
		t.Errorf("range = %+v, want {4 7}", r)
	}
	if !r.Contains(4) || r.Contains(7) {
		t.Errorf("Contains is not half-open: %+v", r)
	}
}

func TestActiveRange_PlainNote(t *testing.T) {
	d := Parse([]byte("* [ ] a\n* [ ] b\n"))
	r := d.ActiveRange()
	if r.Start != 0 || r.End != 2 {
		t.Errorf("range = %+v, want {0 2}", r)
	}
}

func TestChecksum(t *testing.T) {
	if Checksum([]byte("a")) == Checksum([]byte("b")) {
		t.Error("different content should not share a checksum")
	}
}

func TestClone_IsIndependent(t *testing.T) {
	d := Parse([]byte(sample))
	ids := d.Paragraphs()
	c := d.Clone()

	if _, err := c.Insert("* [ ] extra", 4); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := c.Remove(ids[5].ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := string(d.Bytes()); got != sample {
		t.Errorf("original changed: %q", got)
	}
	if pos, ok := c.Position(ids[4].ID); !ok || pos != 5 {
		t.Errorf("clone lost ID %s: pos=%d ok=%v", ids[4].ID, pos, ok)
	}
	if c.FrontmatterLines() != d.FrontmatterLines() {
		t.Error("frontmatter lines not copied")
	}
}
