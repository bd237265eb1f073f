package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/chordsheet/internal/apperr"
	"github.com/starford/chordsheet/internal/models"
	"github.com/starford/chordsheet/internal/transpose"
)

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Group   string `json:"group,omitempty"`
	Snippet string `json:"snippet"`
}

const songColumns = `id, title, group_tag, capo, notation, checksum, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(r rowScanner) (models.SongSummary, error) {
	var (
		s        models.SongSummary
		notation string
	)
	if err := r.Scan(&s.ID, &s.Title, &s.Group, &s.Capo, &notation, &s.Checksum, &s.UpdatedAt); err != nil {
		return s, err
	}
	s.Notation = transpose.Notation(notation)
	return s, nil
}

// UpsertSong inserts or replaces a song and its FTS entry within a transaction.
func (db *DB) UpsertSong(s models.SongSummary, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO songs (id, title, group_tag, capo, notation, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			group_tag  = excluded.group_tag,
			capo       = excluded.capo,
			notation   = excluded.notation,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, s.ID, s.Title, s.Group, s.Capo, string(s.Notation), s.Checksum, body, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert song: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, s.ID, s.Title, body, s.Group); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteSong removes a song, its FTS entry and any remote file mapping.
func (db *DB) DeleteSong(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM remote_files WHERE song_id = ?`, id); err != nil {
		return fmt.Errorf("index: delete remote mapping: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM songs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete song: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a song, or empty string if not found.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM songs WHERE id = ?`, id).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetSong returns the indexed summary of one song.
func (db *DB) GetSong(id string) (*models.SongSummary, error) {
	s, err := scanSong(db.conn.QueryRow(`SELECT `+songColumns+` FROM songs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get song: %w", err)
	}
	return &s, nil
}

// AllChecksums returns id → checksum for every indexed song.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM songs`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

func orderClause(sort string) string {
	switch sort {
	case models.SortUpdated:
		return `ORDER BY updated_at DESC, id`
	case models.SortID:
		return `ORDER BY id`
	default:
		return `ORDER BY title COLLATE NOCASE, id`
	}
}

// ListSongs returns a page of songs matching f and the total number of
// matches.
func (db *DB) ListSongs(f models.SongFilter) ([]models.SongSummary, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Group != "" {
		where = append(where, `group_tag = ?`)
		args = append(args, f.Group)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM songs`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count songs: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	q := `SELECT ` + songColumns + ` FROM songs` + cond + ` ` + orderClause(f.Sort) + ` LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(q, append(args, limit, max(f.Offset, 0))...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list songs: %w", err)
	}
	defer rows.Close()

	out := []models.SongSummary{}
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// Groups returns the distinct non-empty group tags with their song counts.
func (db *DB) Groups() ([]models.Group, error) {
	rows, err := db.conn.Query(`
		SELECT group_tag, count(*)
		FROM songs
		WHERE group_tag != ''
		GROUP BY group_tag
		ORDER BY group_tag COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("index: groups: %w", err)
	}
	defer rows.Close()

	out := []models.Group{}
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.Name, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetSetting returns a stored setting and whether it exists.
func (db *DB) GetSetting(key string) (string, bool, error) {
	var v string
	err := db.conn.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("index: get setting %s: %w", key, err)
	}
	return v, true, nil
}

// SetSetting stores a setting, replacing any previous value.
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("index: set setting %s: %w", key, err)
	}
	return nil
}

// RemoteFiles returns remote id → mapping for one provider.
func (db *DB) RemoteFiles(provider string) (map[string]models.RemoteFile, error) {
	rows, err := db.conn.Query(`SELECT provider, remote_id, song_id, hash FROM remote_files WHERE provider = ?`, provider)
	if err != nil {
		return nil, fmt.Errorf("index: remote files: %w", err)
	}
	defer rows.Close()
	out := make(map[string]models.RemoteFile)
	for rows.Next() {
		var rf models.RemoteFile
		if err := rows.Scan(&rf.Provider, &rf.RemoteID, &rf.SongID, &rf.Hash); err != nil {
			return nil, err
		}
		out[rf.RemoteID] = rf
	}
	return out, rows.Err()
}

// RemoteFileForSong returns the mapping of a library song, if any.
func (db *DB) RemoteFileForSong(provider, songID string) (*models.RemoteFile, error) {
	var rf models.RemoteFile
	err := db.conn.QueryRow(`
		SELECT provider, remote_id, song_id, hash FROM remote_files
		WHERE provider = ? AND song_id = ?
	`, provider, songID).Scan(&rf.Provider, &rf.RemoteID, &rf.SongID, &rf.Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: remote file for song: %w", err)
	}
	return &rf, nil
}

// UpsertRemoteFile records or replaces a remote file mapping. A song maps
// to at most one remote file per provider.
func (db *DB) UpsertRemoteFile(rf models.RemoteFile) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM remote_files WHERE provider = ? AND song_id = ? AND remote_id != ?`,
		rf.Provider, rf.SongID, rf.RemoteID); err != nil {
		return fmt.Errorf("index: clear remote mapping: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO remote_files (provider, remote_id, song_id, hash) VALUES (?, ?, ?, ?)
		ON CONFLICT(provider, remote_id) DO UPDATE SET
			song_id = excluded.song_id,
			hash    = excluded.hash
	`, rf.Provider, rf.RemoteID, rf.SongID, rf.Hash)
	if err != nil {
		return fmt.Errorf("index: upsert remote file: %w", err)
	}
	return tx.Commit()
}

// DeleteRemoteFile forgets a remote file mapping.
func (db *DB) DeleteRemoteFile(provider, remoteID string) error {
	if _, err := db.conn.Exec(`DELETE FROM remote_files WHERE provider = ? AND remote_id = ?`, provider, remoteID); err != nil {
		return fmt.Errorf("index: delete remote file: %w", err)
	}
	return nil
}
