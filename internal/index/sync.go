package index

import (
	"log/slog"
	"time"

	"github.com/starford/chordsheet/internal/checksum"
	"github.com/starford/chordsheet/internal/models"
	"github.com/starford/chordsheet/internal/parser"
	"github.com/starford/chordsheet/internal/storage"
)

// Sync walks the library and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db SongIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.ID] = struct{}{}

		if checksums[m.ID] == m.Checksum {
			continue
		}

		data, err := store.Read(m.ID)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("id", m.ID), slog.String("error", err.Error()))
			continue
		}
		if _, err := IndexSong(db, m.ID, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("id", m.ID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("id", m.ID))
		}
	}

	for id := range checksums {
		if _, ok := disk[id]; !ok {
			if err := db.DeleteSong(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}

// IndexSong parses a raw song file and upserts it. The title falls back to
// the file name and the group tag is always re-derived from the body.
func IndexSong(db SongIndex, id string, data []byte, updatedAt time.Time) (*models.SongSummary, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	title := res.Title
	if title == "" {
		title = parser.TitleFromID(id)
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	row := models.SongSummary{
		ID:        id,
		Title:     title,
		Group:     res.Group,
		Capo:      res.Capo,
		Notation:  res.Notation,
		Checksum:  checksum.Sum(data),
		UpdatedAt: updatedAt,
	}
	if err := db.UpsertSong(row, res.Body); err != nil {
		return nil, err
	}
	return &row, nil
}
