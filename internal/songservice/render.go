package songservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/starford/chordsheet/internal/apperr"
	"github.com/starford/chordsheet/internal/chart"
	"github.com/starford/chordsheet/internal/transpose"
)

// RenderRequest overrides the stored per-song settings for one render.
// Nil fields keep the song's own values.
type RenderRequest struct {
	Capo      *int
	Transpose int
	Notation  *transpose.Notation
}

// Options resolves the render options for a song.
func (s *Service) Options(song *SongDetail, req RenderRequest) chart.Options {
	return ResolveOptions(song.Capo, song.Notation, req, s.defaultNotation)
}

// ResolveOptions applies the overrides in req to a song's stored capo and
// notation. def replaces a notation that is still unset.
func ResolveOptions(capo int, n transpose.Notation, req RenderRequest, def transpose.Notation) chart.Options {
	opts := chart.Options{
		Capo:      capo,
		Transpose: req.Transpose,
		Notation:  n,
	}
	if req.Capo != nil {
		opts.Capo = *req.Capo
	}
	if req.Notation != nil {
		opts.Notation = *req.Notation
	}
	if opts.Notation == transpose.Unset {
		opts.Notation = def
	}
	return opts
}

// Render renders a stored song.
func (s *Service) Render(ctx context.Context, id string, req RenderRequest) (*SongDetail, *chart.Document, error) {
	song, err := s.GetSong(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return song, chart.Render(song.Body, s.Options(song, req)), nil
}

// RenderPage writes a stored song as a standalone HTML page using the
// current style.
func (s *Service) RenderPage(ctx context.Context, w io.Writer, id string, req RenderRequest) error {
	song, doc, err := s.Render(ctx, id, req)
	if err != nil {
		return err
	}
	style, err := s.Style(ctx)
	if err != nil {
		return err
	}
	return chart.WritePage(w, song.Title, doc, style)
}

// Preview renders text that is not stored, such as the editor buffer.
func (s *Service) Preview(text string, opts chart.Options) *chart.Document {
	if opts.Notation == transpose.Unset {
		opts.Notation = s.defaultNotation
	}
	return chart.Render(text, opts)
}

// Style returns the stored presentation preferences, or the defaults.
func (s *Service) Style(_ context.Context) (chart.Style, error) {
	raw, ok, err := s.db.GetSetting(settingStyle)
	if err != nil || !ok {
		return s.defaultStyle, err
	}
	st := s.defaultStyle
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return s.defaultStyle, nil
	}
	return st, nil
}

// SetStyle validates and stores the presentation preferences.
func (s *Service) SetStyle(_ context.Context, st chart.Style) (chart.Style, error) {
	if err := st.Validate(); err != nil {
		return st, fmt.Errorf("%w: %v", apperr.ErrInvalidField, err)
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return st, err
	}
	if err := s.db.SetSetting(settingStyle, string(raw)); err != nil {
		return st, err
	}
	s.changed(ChangeStyle, "")
	return st, nil
}
