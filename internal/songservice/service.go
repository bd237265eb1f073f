// Package songservice coordinates library storage, the index and rendering.
package songservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/starford/chordsheet/internal/apperr"
	"github.com/starford/chordsheet/internal/chart"
	"github.com/starford/chordsheet/internal/checksum"
	"github.com/starford/chordsheet/internal/index"
	"github.com/starford/chordsheet/internal/models"
	"github.com/starford/chordsheet/internal/parser"
	"github.com/starford/chordsheet/internal/storage"
	"github.com/starford/chordsheet/internal/transpose"
)

// Field keys accepted by PutField.
const (
	FieldTitle    = "title"
	FieldBody     = "body"
	FieldCapo     = "capo"
	FieldNotation = "notation"
)

// Setting keys.
const (
	settingCurrentSong = "current_song"
	settingStyle       = "style"
)

// Change kinds passed to the change hook.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
	ChangeCurrent = "current"
	ChangeStyle   = "style"
)

// SongDetail is the full representation of a song.
type SongDetail struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Body      string             `json:"body"`
	Capo      int                `json:"capo"`
	Notation  transpose.Notation `json:"notation"`
	Group     string             `json:"group"`
	Checksum  string             `json:"checksum"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Repository is the song store the rendering front end works against.
type Repository interface {
	CurrentSongID(ctx context.Context) (string, error)
	SetCurrentSongID(ctx context.Context, id string) error
	GetSong(ctx context.Context, id string) (*SongDetail, error)
	PutField(ctx context.Context, id, key, value string) (*SongDetail, error)
	ListSongs(ctx context.Context, f models.SongFilter) ([]models.SongSummary, int, error)
}

var _ Repository = (*Service)(nil)

// ChangeFunc is called after a successful mutation.
type ChangeFunc func(kind, id string)

// Option configures a Service.
type Option func(*Service)

// WithDefaultNotation sets the spelling used when a song has no preference.
func WithDefaultNotation(n transpose.Notation) Option {
	return func(s *Service) { s.defaultNotation = n }
}

// WithDefaultStyle sets the style returned before one is stored.
func WithDefaultStyle(st chart.Style) Option {
	return func(s *Service) { s.defaultStyle = st }
}

// WithChangeHook registers fn to be called after every mutation.
func WithChangeHook(fn ChangeFunc) Option {
	return func(s *Service) { s.onChange = fn }
}

// Service coordinates storage and index operations.
type Service struct {
	store storage.Provider
	db    index.SongIndex

	defaultNotation transpose.Notation
	defaultStyle    chart.Style
	onChange        ChangeFunc

	// mu serialises read-modify-write cycles on song files.
	mu sync.Mutex
}

// NewService creates a new song service.
func NewService(store storage.Provider, db index.SongIndex, opts ...Option) *Service {
	s := &Service{store: store, db: db, defaultStyle: chart.DefaultStyle()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) changed(kind, id string) {
	if s.onChange != nil {
		s.onChange(kind, id)
	}
}

func (s *Service) read(id string) ([]byte, error) {
	data, err := s.store.Read(id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// GetSong reads a song from storage and parses it.
func (s *Service) GetSong(_ context.Context, id string) (*SongDetail, error) {
	data, err := s.read(id)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(id, data)
}

// ReadRaw returns the song file exactly as stored.
func (s *Service) ReadRaw(_ context.Context, id string) ([]byte, error) {
	return s.read(id)
}

// CreateSong writes a new song and indexes it. An empty id is derived from
// the title.
func (s *Service) CreateSong(_ context.Context, id, title, body string) (*SongDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title = strings.TrimSpace(title)
	if id == "" {
		id = FileName(title, s.store.Extension())
	}
	if s.store.Exists(id) {
		return nil, apperr.ErrAlreadyExists
	}
	content, err := parser.Format(s.meta(id, title, 0, transpose.Unset), parser.Normalize(body))
	if err != nil {
		return nil, err
	}
	detail, err := s.write(id, content)
	if err != nil {
		return nil, err
	}
	s.changed(ChangeCreated, id)
	return detail, nil
}

// UpdateSong replaces the raw file with optimistic concurrency: a non-empty
// ifMatch must equal the checksum of the stored file.
func (s *Service) UpdateSong(_ context.Context, id string, content []byte, ifMatch string) (*SongDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(id)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	content, err = guardBody([]byte(parser.Normalize(string(content))))
	if err != nil {
		return nil, err
	}
	detail, err := s.write(id, content)
	if err != nil {
		return nil, err
	}
	s.changed(ChangeUpdated, id)
	return detail, nil
}

// WriteRaw creates or replaces a song file from external content, such as a
// cloud download. It reports whether the song is new.
func (s *Service) WriteRaw(_ context.Context, id string, content []byte) (*SongDetail, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := !s.store.Exists(id)
	content, err := guardBody([]byte(parser.Normalize(string(content))))
	if err != nil {
		return nil, false, err
	}
	detail, err := s.write(id, content)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.changed(ChangeCreated, id)
	} else {
		s.changed(ChangeUpdated, id)
	}
	return detail, created, nil
}

// PutField updates a single per-song field. Setting a positive capo while
// the notation is unset selects flat notation.
func (s *Service) PutField(_ context.Context, id, key, value string) (*SongDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read(id)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	title := res.Title
	if title == "" {
		title = parser.TitleFromID(id)
	}
	body, capo, notation := res.Body, res.Capo, res.Notation

	switch key {
	case FieldTitle:
		title = strings.TrimSpace(value)
	case FieldBody:
		body = parser.Normalize(value)
	case FieldCapo:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: capo %q", apperr.ErrInvalidField, value)
		}
		capo = n
		if capo > 0 && notation == transpose.Unset {
			notation = transpose.Flat
		}
	case FieldNotation:
		n, err := transpose.ParseNotation(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidField, err)
		}
		notation = n
	default:
		return nil, fmt.Errorf("%w: unknown key %q", apperr.ErrInvalidField, key)
	}

	content, err := parser.Format(s.meta(id, title, capo, notation), body)
	if err != nil {
		return nil, err
	}
	detail, err := s.write(id, content)
	if err != nil {
		return nil, err
	}
	s.changed(ChangeUpdated, id)
	return detail, nil
}

// DeleteSong removes a song from storage and index. When the deleted song
// was current, the first remaining song by title becomes current.
func (s *Service) DeleteSong(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.db.DeleteSong(id); err != nil {
		return err
	}
	s.changed(ChangeDeleted, id)

	current, _, err := s.db.GetSetting(settingCurrentSong)
	if err != nil || current != id {
		return err
	}
	next := ""
	list, _, err := s.db.ListSongs(models.SongFilter{Sort: models.SortTitle, Limit: 1})
	if err != nil {
		return err
	}
	if len(list) > 0 {
		next = list[0].ID
	}
	if err := s.db.SetSetting(settingCurrentSong, next); err != nil {
		return err
	}
	s.changed(ChangeCurrent, next)
	return nil
}

// ListSongs returns a page of song summaries.
func (s *Service) ListSongs(_ context.Context, f models.SongFilter) ([]models.SongSummary, int, error) {
	switch f.Sort {
	case "", models.SortTitle, models.SortUpdated, models.SortID:
	default:
		return nil, 0, fmt.Errorf("%w: sort %q", apperr.ErrInvalidField, f.Sort)
	}
	return s.db.ListSongs(f)
}

// Groups returns the distinct group tags with counts.
func (s *Service) Groups(_ context.Context) ([]models.Group, error) {
	return s.db.Groups()
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// CurrentSongID returns the id of the song shown in the viewer, or "".
func (s *Service) CurrentSongID(_ context.Context) (string, error) {
	id, _, err := s.db.GetSetting(settingCurrentSong)
	return id, err
}

// SetCurrentSongID selects the song shown in the viewer. An empty id clears it.
func (s *Service) SetCurrentSongID(_ context.Context, id string) error {
	if id != "" && !s.store.Exists(id) {
		return apperr.ErrNotFound
	}
	if err := s.db.SetSetting(settingCurrentSong, id); err != nil {
		return err
	}
	s.changed(ChangeCurrent, id)
	return nil
}

// IndexFile parses data and upserts it into the index.
func (s *Service) IndexFile(id string, data []byte) error {
	_, err := index.IndexSong(s.db, id, data, time.Now().UTC())
	return err
}

// write stores content and refreshes the index entry.
func (s *Service) write(id string, content []byte) (*SongDetail, error) {
	if err := s.store.Write(id, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(id, content); err != nil {
		return nil, err
	}
	return s.buildDetail(id, content)
}

// guardBody leaves files with recognised frontmatter alone and passes plain
// text through Format, so a body that opens with a --- block is stored
// behind an empty frontmatter and always reads back whole.
func guardBody(content []byte) ([]byte, error) {
	res, err := parser.Parse(content)
	if err != nil {
		return nil, err
	}
	if res.HasFrontmatter {
		return content, nil
	}
	return parser.Format(parser.Meta{}, res.Body)
}

// meta builds frontmatter, leaving out a title that only repeats the file name.
func (s *Service) meta(id, title string, capo int, n transpose.Notation) parser.Meta {
	m := parser.Meta{Capo: capo, Notation: string(n)}
	if title != "" && title != parser.TitleFromID(id) {
		m.Title = title
	}
	return m
}

// buildDetail constructs a SongDetail from raw data without re-reading the file.
func (s *Service) buildDetail(id string, data []byte) (*SongDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	title := res.Title
	if title == "" {
		title = parser.TitleFromID(id)
	}
	updated := time.Now().UTC()
	if row, err := s.db.GetSong(id); err == nil {
		updated = row.UpdatedAt
	}
	return &SongDetail{
		ID:        id,
		Title:     title,
		Body:      res.Body,
		Capo:      res.Capo,
		Notation:  res.Notation,
		Group:     res.Group,
		Checksum:  checksum.Sum(data),
		UpdatedAt: updated,
	}, nil
}
