package vault

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/tasksort/internal/index"
	"github.com/starford/tasksort/internal/models"
	"github.com/starford/tasksort/internal/rewrite"
	"github.com/starford/tasksort/internal/testutil"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const inbox = `# Inbox
* [ ] water plants
* [x] pay rent
* [ ] !! call bank @mia
`

func newVault(t *testing.T, notes map[string]string) (*Vault, string, *index.DB) {
	t.Helper()
	dir, store := testutil.TestVault(t, notes)
	db := testutil.TestDB(t)
	if err := index.Sync(db, store, quiet); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return New(store, db, quiet), dir, db
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Sort Backup":     "sort-backup",
		"  Weekly: plan ": "weekly-plan",
		"Ünïcode 2":       "ünïcode-2",
		"!!!":             "untitled",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReadParagraphs_StableIDs(t *testing.T) {
	v, _, _ := newVault(t, map[string]string{"inbox.md": inbox})
	ctx := context.Background()
	note := models.Note{Path: "inbox.md"}

	first, err := v.ReadParagraphs(ctx, note)
	if err != nil {
		t.Fatalf("ReadParagraphs: %v", err)
	}
	second, _ := v.ReadParagraphs(ctx, note)
	if len(first) != 4 || first[1].ID != second[1].ID {
		t.Errorf("IDs should survive an unchanged file: %v vs %v", first[1].ID, second[1].ID)
	}
}

func TestExternalEditReloads(t *testing.T) {
	v, dir, _ := newVault(t, map[string]string{"inbox.md": inbox})
	ctx := context.Background()
	note := models.Note{Path: "inbox.md"}

	_, _ = v.ReadParagraphs(ctx, note)
	_ = os.WriteFile(filepath.Join(dir, "inbox.md"), []byte("# Inbox\n* [ ] only\n"), 0o644)

	paras, err := v.ReadParagraphs(ctx, note)
	if err != nil {
		t.Fatalf("ReadParagraphs: %v", err)
	}
	if len(paras) != 2 || paras[1].RawContent != "* [ ] only" {
		t.Errorf("stale document served: %+v", paras)
	}
}

func TestInsertAndRemovePersist(t *testing.T) {
	v, _, db := newVault(t, map[string]string{"inbox.md": inbox})
	ctx := context.Background()
	note := models.Note{Path: "inbox.md"}

	if err := v.InsertText(ctx, note, "## Today\n* [ ] new one", 1); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	paras, _ := v.ReadParagraphs(ctx, note)
	if err := v.RemoveParagraphs(ctx, note, []models.Paragraph{paras[3]}); err != nil {
		t.Fatalf("RemoveParagraphs: %v", err)
	}

	doc, _ := v.Document(ctx, "inbox.md")
	want := "# Inbox\n## Today\n* [ ] new one\n* [x] pay rent\n* [ ] !! call bank @mia\n"
	if got := string(doc.Bytes()); got != want {
		t.Errorf("content = %q, want %q", got, want)
	}

	rows, _ := db.ListTasks(index.TaskFilter{Path: "inbox.md"})
	if len(rows) != 3 {
		t.Errorf("index should follow writes, got %d tasks", len(rows))
	}
}

func TestRemoveUnknownParagraph(t *testing.T) {
	v, _, _ := newVault(t, map[string]string{"inbox.md": inbox})
	err := v.RemoveParagraphs(context.Background(), models.Note{Path: "inbox.md"},
		[]models.Paragraph{{ID: "nope"}})
	if err == nil {
		t.Fatal("expected error for unknown paragraph")
	}
}

func TestGetOrCreateNote(t *testing.T) {
	v, _, _ := newVault(t, map[string]string{"archive/existing.md": "# Sort Backup\n"})
	ctx := context.Background()

	found, err := v.GetOrCreateNote(ctx, "sort backup", "archive")
	if err != nil {
		t.Fatalf("GetOrCreateNote: %v", err)
	}
	if found.Path != "archive/existing.md" {
		t.Errorf("expected existing note, got %q", found.Path)
	}

	created, err := v.GetOrCreateNote(ctx, "Sort Backup", "/backups/")
	if err != nil {
		t.Fatalf("GetOrCreateNote: %v", err)
	}
	if created.Path != "backups/sort-backup.md" {
		t.Errorf("path = %q", created.Path)
	}
	again, _ := v.GetOrCreateNote(ctx, "Sort Backup", "backups")
	if again.Path != created.Path {
		t.Errorf("second lookup created %q", again.Path)
	}
}

func TestResortThroughVault(t *testing.T) {
	v, _, _ := newVault(t, map[string]string{"inbox.md": inbox})
	ctx := context.Background()
	yes, no := true, false

	e := rewrite.New(v, nil, quiet)
	res, err := e.Resort(ctx, models.Note{Path: "inbox.md"}, rewrite.Options{
		Fields:         []string{"-priority", "content"},
		IncludeHeading: &yes,
		Subheadings:    &no,
		Backup: rewrite.BackupOptions{
			Enabled: true, Title: "Sort Backup", Folder: "backups", Attempts: 3, Backoff: time.Millisecond,
		},
	})
	if err != nil {
		t.Fatalf("Resort: %v", err)
	}
	if !res.BackedUp {
		t.Error("expected backup")
	}

	doc, _ := v.Document(ctx, "inbox.md")
	want := "# Inbox\n### Open Tasks\n* [ ] !! call bank @mia\n* [ ] water plants\n### Completed Tasks\n* [x] pay rent\n"
	if got := string(doc.Bytes()); got != want {
		t.Errorf("content =\n%s\nwant\n%s", got, want)
	}

	backup, err := v.Document(ctx, "backups/sort-backup.md")
	if err != nil {
		t.Fatalf("backup note: %v", err)
	}
	if !strings.Contains(string(backup.Bytes()), "* [x] pay rent\n") {
		t.Errorf("backup missing tasks: %q", backup.Bytes())
	}
}

func TestLockSerialisesPerNote(t *testing.T) {
	v, _, _ := newVault(t, map[string]string{"inbox.md": inbox})

	var mu sync.Mutex
	inside, maxInside := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := v.Lock("inbox.md")
			defer unlock()
			mu.Lock()
			inside++
			maxInside = max(maxInside, inside)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside)
	}
}

func TestReadersSeeSnapshotsDuringWrites(t *testing.T) {
	v, _, _ := newVault(t, map[string]string{"inbox.md": inbox})
	ctx := context.Background()
	note := models.Note{Path: "inbox.md"}

	held, err := v.Document(ctx, "inbox.md")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	before := string(held.Bytes())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if err := v.InsertText(ctx, note, "* [ ] added", 1); err != nil {
				t.Errorf("InsertText: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			doc, err := v.Document(ctx, "inbox.md")
			if err != nil {
				t.Errorf("Document: %v", err)
				return
			}
			paras := doc.Paragraphs()
			_ = blocksOf(paras, doc.ActiveRange().Start)
		}
	}()
	wg.Wait()

	if got := string(held.Bytes()); got != before {
		t.Errorf("a document handed out earlier changed:\n%s", got)
	}
	paras, _ := v.ReadParagraphs(ctx, note)
	if len(paras) != 104 {
		t.Errorf("paragraphs = %d, want 104", len(paras))
	}
}

// blocksOf walks paras the way read-only callers do.
func blocksOf(paras []models.Paragraph, from int) int {
	n := 0
	for _, p := range paras[from:] {
		if p.Type.IsTask() {
			n++
		}
	}
	return n
}
