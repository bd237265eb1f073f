// Package storage defines the song library file-system abstraction.
package storage

import "github.com/starford/chordsheet/internal/models"

// Provider is the interface for library file operations. Paths are relative
// to the library root and double as song ids.
type Provider interface {
	// List returns metadata for every song file under dir.
	List(dir string) ([]models.SongMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Exists reports whether a file is present at path.
	Exists(path string) bool
	// Extension is the file suffix of song files, including the dot.
	Extension() string
}
