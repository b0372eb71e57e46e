// Package search implements full-text search over agile artifacts.
//
// It uses SQLite with FTS5 to index artifact titles, descriptions,
// and tags. The index is ephemeral: it lives in memory and is rebuilt
// from the artifact store before each query. For a single-writer,
// file-backed project this keeps the index trivially consistent with
// the store at the cost of re-reading the collections, which are
// small.
package search

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Entry is one indexable artifact.
type Entry struct {
	ID    string
	Kind  string // "epic" | "story" | "sprint" | "task"
	Title string
	Body  string
	Tags  []string
}

// Result is a search hit with its FTS5 rank (lower is better).
type Result struct {
	ID      string  `json:"id"`
	Kind    string  `json:"kind"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Rank    float64 `json:"rank"`
}

// Index is an in-memory FTS5 index over artifacts.
type Index struct {
	db *sql.DB
}

// New opens an in-memory index and creates the schema.
func New() (*Index, error) {
	db, err := openDB("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}
	if _, err := db.Exec(`
		CREATE VIRTUAL TABLE artifacts USING fts5(
			id UNINDEXED,
			kind UNINDEXED,
			title,
			body,
			tags
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating search schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Reindex replaces the index contents with the given entries.
func (ix *Index) Reindex(entries []Entry) error {
	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("starting reindex: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM artifacts`); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO artifacts (id, kind, title, body, tags) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.ID, e.Kind, e.Title, e.Body, strings.Join(e.Tags, " ")); err != nil {
			return fmt.Errorf("indexing %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// Search runs an FTS5 match over the index. kind narrows the results
// to one artifact kind when non-empty; limit caps the result count
// (default 20).
func (ix *Index) Search(query, kind string, limit int) ([]Result, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, fmt.Errorf("search query must contain at least one word")
	}
	if limit <= 0 {
		limit = 20
	}

	sqlQuery := `
		SELECT id, kind, title, snippet(artifacts, 3, '[', ']', '…', 12), rank
		FROM artifacts
		WHERE artifacts MATCH ?`
	args := []any{match}
	if kind != "" {
		sqlQuery += ` AND kind = ?`
		args = append(args, kind)
	}
	sqlQuery += ` ORDER BY rank LIMIT ?`
	args = append(args, limit)

	rows, err := ix.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("searching artifacts: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Kind, &r.Title, &r.Snippet, &r.Rank); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ftsQuery turns free text into a safe FTS5 match expression: each
// word is double-quoted so user input cannot inject FTS syntax, and
// words are ANDed together.
func ftsQuery(query string) string {
	words := strings.Fields(query)
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		quoted = append(quoted, `"`+w+`"`)
	}
	return strings.Join(quoted, " ")
}
