//go:build !sqlite_fts5

package index

import (
	"database/sql"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; task queries fall back to LIKE on tasks.content.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ string, _ []TaskRow) error {
	// Content is already stored in the tasks table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

// ftsMatch returns a WHERE clause matching task content against query.
func ftsMatch(query string) (string, any) {
	return `t.content LIKE ?`, "%" + query + "%"
}
