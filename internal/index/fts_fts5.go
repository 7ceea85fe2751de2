//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS tasks_fts USING fts5(
			path UNINDEXED,
			line UNINDEXED,
			content,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path string, tasks []TaskRow) error {
	if err := ftsDelete(tx, path); err != nil {
		return err
	}
	for _, t := range tasks {
		tags := strings.Join(append(append([]string{}, t.Hashtags...), t.Mentions...), " ")
		_, err := tx.Exec(`INSERT INTO tasks_fts (path, line, content, tags) VALUES (?, ?, ?, ?)`,
			path, t.Line, t.Content, tags)
		if err != nil {
			return fmt.Errorf("index: upsert fts: %w", err)
		}
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) error {
	if _, err := tx.Exec(`DELETE FROM tasks_fts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// ftsMatch returns a WHERE clause matching task content against query.
func ftsMatch(query string) (string, any) {
	return `(t.path || ':' || t.line) IN (
		SELECT path || ':' || line FROM tasks_fts WHERE tasks_fts MATCH ?)`, query
}
