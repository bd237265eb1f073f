//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS songs_fts USING fts5(
			id UNINDEXED,
			title,
			body,
			group_tag,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id, title, body, group string) error {
	_, _ = tx.Exec(`DELETE FROM songs_fts WHERE id = ?`, id)
	_, err := tx.Exec(`INSERT INTO songs_fts (id, title, body, group_tag) VALUES (?, ?, ?, ?)`,
		id, title, body, group)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, id string) error {
	if _, err := tx.Exec(`DELETE FROM songs_fts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// matchQuery quotes every term so chord names such as "C#" or "Am/G" do not
// trip the FTS5 query syntax. Terms are prefix matches.
func matchQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"*`
	}
	return strings.Join(terms, " ")
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	mq := matchQuery(query)
	if mq == "" {
		return []SearchResult{}, nil
	}
	rows, err := db.conn.Query(`
		SELECT id,
		       title,
		       group_tag,
		       snippet(songs_fts, 2, '<b>', '</b>', '...', 32)
		FROM songs_fts
		WHERE songs_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, mq, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Group, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
