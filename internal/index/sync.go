package index

import (
	"log/slog"

	"github.com/starford/tasksort/internal/storage"
)

// Change kinds reported to an EventCallback.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// Sync walks the vault and brings the index up to date. Notes whose checksum
// changed get their tasks re-extracted; notes gone from disk are dropped.
func Sync(db NoteIndex, store storage.Provider, logger *slog.Logger) error {
	changes, notes, err := reconcile(db, store, logger)
	if err != nil {
		return err
	}
	logger.Info("sync: done", slog.Int("notes", notes), slog.Int("changed", len(changes)))
	return nil
}

type change struct {
	kind string
	path string
}

// reconcile diffs index checksums against the vault and applies the
// difference. It returns what changed and how many notes are on disk.
func reconcile(db NoteIndex, store storage.Provider, logger *slog.Logger) ([]change, int, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, 0, err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return nil, 0, err
	}

	var changes []change
	onDisk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		onDisk[m.Path] = struct{}{}
		old, known := checksums[m.Path]
		if old == m.Checksum {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m.Path, data, logger); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		kind := ChangeCreated
		if known {
			kind = ChangeUpdated
		}
		changes = append(changes, change{kind, m.Path})
	}

	for p := range checksums {
		if _, ok := onDisk[p]; ok {
			continue
		}
		if err := db.DeleteNote(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		changes = append(changes, change{ChangeDeleted, p})
	}
	return changes, len(metas), nil
}

// IndexFile parses data and upserts the note and its tasks.
func IndexFile(db NoteIndex, path string, data []byte, logger *slog.Logger) error {
	note, tasks, err := BuildRows(path, data, logger)
	if err != nil {
		return err
	}
	return db.UpsertNote(note, tasks)
}
