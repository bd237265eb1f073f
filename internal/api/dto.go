package api

import (
	"github.com/starford/chordsheet/internal/chart"
	"github.com/starford/chordsheet/internal/cloudsync"
	"github.com/starford/chordsheet/internal/index"
	"github.com/starford/chordsheet/internal/models"
	"github.com/starford/chordsheet/internal/songservice"
	"github.com/starford/chordsheet/internal/transpose"
)

// CreateSongRequest is the request body for creating a song. ID is optional
// and derived from Title when empty.
type CreateSongRequest struct {
	ID    string `json:"id,omitempty" example:"folk/Amazing Grace.txt"`
	Title string `json:"title" example:"Amazing Grace" validate:"required"`
	Body  string `json:"body" example:"G       C\nAmazing grace"`
}

// UpdateSongRequest is the request body for replacing a song file.
type UpdateSongRequest struct {
	Content string `json:"content" example:"---\ncapo: 2\n---\nG\nAmazing grace" validate:"required"`
}

// PutFieldRequest sets a single per-song field.
type PutFieldRequest struct {
	Key   string `json:"key" example:"capo" enums:"title,body,capo,notation" validate:"required"`
	Value string `json:"value" example:"2"`
}

// SongDetail is the full song response type (aliased from the domain layer).
type SongDetail = songservice.SongDetail

// SongListResponse wraps paginated song listings.
type SongListResponse struct {
	Songs []models.SongSummary `json:"songs" validate:"required"`
	Total int                  `json:"total" example:"42" validate:"required"`
}

// GroupListResponse lists the group tags in use.
type GroupListResponse struct {
	Groups []models.Group `json:"groups" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// RenderResponse is a rendered song together with the options that produced it.
type RenderResponse struct {
	ID        string             `json:"id,omitempty" example:"Amazing Grace.txt"`
	Title     string             `json:"title,omitempty" example:"Amazing Grace"`
	Capo      int                `json:"capo" example:"2"`
	Transpose int                `json:"transpose" example:"0"`
	Notation  transpose.Notation `json:"notation" example:"b"`
	Document  *chart.Document    `json:"document" validate:"required"`
	HTML      string             `json:"html" validate:"required"`
}

// PreviewRequest renders text that is not stored.
type PreviewRequest struct {
	Text      string `json:"text" example:"C\nla la" validate:"required"`
	Capo      int    `json:"capo" example:"0"`
	Transpose int    `json:"transpose" example:"0"`
	Notation  string `json:"notation" example:"#"`
}

// CurrentSong names the song shown in the viewer.
type CurrentSong struct {
	ID string `json:"id" example:"Amazing Grace.txt"`
}

// ImportedSong is one file accepted by an import.
type ImportedSong struct {
	ID      string `json:"id" example:"Amazing Grace.txt"`
	Title   string `json:"title" example:"Amazing Grace"`
	Created bool   `json:"created" example:"true"`
}

// ImportResponse lists the songs an import created or updated.
type ImportResponse struct {
	Songs   []ImportedSong `json:"songs" validate:"required"`
	Skipped []string       `json:"skipped,omitempty" example:"cover.png"`
}

// PullResponse reports a cloud pull.
type PullResponse struct {
	cloudsync.Result
	Error string `json:"error,omitempty"`
}
