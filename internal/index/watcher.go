package index

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/tasksort/internal/apperr"
	"github.com/starford/tasksort/internal/document"
	"github.com/starford/tasksort/internal/storage"
)

// settleDelay is how long the vault must stay quiet before queued events are
// applied. Editors and atomic renames produce bursts for a single save.
const settleDelay = 150 * time.Millisecond

// EventCallback is called after a watcher-driven index change.
// kind is one of ChangeCreated, ChangeUpdated, ChangeDeleted.
type EventCallback func(kind string, path string)

type watcher struct {
	fw     *fsnotify.Watcher
	db     NoteIndex
	store  storage.Provider
	root   string
	logger *slog.Logger
	cb     EventCallback

	// pending holds vault-relative note paths touched since the last flush.
	pending map[string]struct{}
	// rescan is set by renames and new directories, where single paths are
	// not enough to know what moved.
	rescan bool
}

// Watch keeps the task index in step with edits made outside tasksort until
// ctx is cancelled. Writes tasksort made itself are already indexed and are
// skipped by checksum. cb, when set, runs after each index change.
func Watch(ctx context.Context, db NoteIndex, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	w := &watcher{
		fw:      fw,
		db:      db,
		store:   store,
		root:    vaultRoot,
		logger:  logger,
		cb:      cb,
		pending: make(map[string]struct{}),
	}
	if err := w.addTree(vaultRoot); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", vaultRoot))

	settle := time.NewTimer(settleDelay)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-settle.C:
			w.flush()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.queue(ev) {
				settle.Reset(settleDelay)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// queue records ev and reports whether anything needs flushing.
func (w *watcher) queue(ev fsnotify.Event) bool {
	// Scratch files of storage writes show up as a create plus a rename away.
	if strings.HasPrefix(filepath.Base(ev.Name), storage.TempPrefix) {
		return false
	}
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("watcher: add new dir failed",
					slog.String("path", ev.Name),
					slog.String("error", err.Error()))
			}
			w.rescan = true
			return true
		}
	}
	if ev.Op&fsnotify.Rename != 0 {
		w.rescan = true
		return true
	}

	if !strings.HasSuffix(ev.Name, ".md") {
		return false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return false
	}
	w.pending[filepath.ToSlash(rel)] = struct{}{}
	return true
}

func (w *watcher) flush() {
	defer clear(w.pending)

	if w.rescan {
		w.rescan = false
		changes, _, err := reconcile(w.db, w.store, w.logger)
		if err != nil {
			w.logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			return
		}
		for _, c := range changes {
			w.notify(c.kind, c.path)
		}
		return
	}

	for rel := range w.pending {
		w.refresh(rel)
	}
}

// refresh re-indexes one note, or drops it when the file is gone.
func (w *watcher) refresh(rel string) {
	data, err := w.store.Read(rel)
	if errors.Is(err, apperr.ErrNotFound) {
		if err := w.db.DeleteNote(rel); err != nil {
			w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		w.notify(ChangeDeleted, rel)
		return
	}
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}

	old, err := w.db.GetChecksum(rel)
	if err != nil {
		w.logger.Warn("watcher: checksum lookup failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
	if old == document.Checksum(data) {
		return
	}
	if err := IndexFile(w.db, rel, data, w.logger); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	kind := ChangeUpdated
	if old == "" {
		kind = ChangeCreated
	}
	w.notify(kind, rel)
}

func (w *watcher) notify(kind, rel string) {
	w.logger.Debug("watcher: "+kind, slog.String("path", rel))
	if w.cb != nil {
		w.cb(kind, rel)
	}
}

// addTree watches root and every directory below it, hidden ones excepted.
func (w *watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}
