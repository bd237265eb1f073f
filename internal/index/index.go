package index

import "github.com/starford/chordsheet/internal/models"

// SongIndex defines the interface for song indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type SongIndex interface {
	UpsertSong(s models.SongSummary, body string) error
	DeleteSong(id string) error
	GetChecksum(id string) (string, error)
	GetSong(id string) (*models.SongSummary, error)
	ListSongs(f models.SongFilter) ([]models.SongSummary, int, error)
	Groups() ([]models.Group, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)

	GetSetting(key string) (string, bool, error)
	SetSetting(key, value string) error

	RemoteFiles(provider string) (map[string]models.RemoteFile, error)
	RemoteFileForSong(provider, songID string) (*models.RemoteFile, error)
	UpsertRemoteFile(rf models.RemoteFile) error
	DeleteRemoteFile(provider, remoteID string) error

	Close() error
}

// Verify *DB satisfies SongIndex at compile time.
var _ SongIndex = (*DB)(nil)
