// Package models defines the domain types for the song library.
package models

import (
	"time"

	"github.com/starford/chordsheet/internal/transpose"
)

// SongMetadata is what the storage layer knows about a file without parsing it.
type SongMetadata struct {
	ID        string    `json:"id"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SongSummary is a lightweight representation returned by list operations.
type SongSummary struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Group     string             `json:"group,omitempty"`
	Capo      int                `json:"capo"`
	Notation  transpose.Notation `json:"notation"`
	Checksum  string             `json:"checksum"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Group is a distinct group tag with the number of songs carrying it.
type Group struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Sort orders for song listings.
const (
	SortTitle   = "title"
	SortUpdated = "updated"
	SortID      = "id"
)

// SongFilter narrows a song listing.
type SongFilter struct {
	Group  string
	Sort   string // SortTitle (default), SortUpdated or SortID
	Limit  int
	Offset int
}

// RemoteFile maps a library song to its copy in a cloud folder.
type RemoteFile struct {
	Provider string `json:"provider"`
	RemoteID string `json:"remote_id"`
	SongID   string `json:"song_id"`
	Hash     string `json:"hash"`
}
