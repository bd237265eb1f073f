package songservice

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/chordsheet/internal/apperr"
	"github.com/starford/chordsheet/internal/parser"
	"github.com/starford/chordsheet/internal/transpose"
)

var (
	unsafeName = strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		`"`, "_", "<", "_", ">", "_", "|", "_",
	)
	tabMarkup = strings.NewReplacer("[ch]", "", "[/ch]", "", "[tab]", "", "[/tab]", "")
)

// TabRule separates the song name from the imported tab body.
const TabRule = "----------"

// FileName turns a title into a library file name with the given extension.
// A title with nothing usable gets a random name.
func FileName(title, ext string) string {
	name := strings.Trim(unsafeName.Replace(strings.TrimSpace(title)), " .")
	if name == "" {
		name = uuid.New().String()
	}
	if strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
		return name
	}
	return name + ext
}

// Import stores a dropped text file as a song. A song with the same title is
// updated in place, keeping its capo and notation; otherwise a new song is
// created. It reports whether the song is new.
func (s *Service) Import(_ context.Context, name string, text []byte) (*SongDetail, bool, error) {
	return s.importText(parser.TitleFromID(name), text)
}

func (s *Service) importText(title string, text []byte) (*SongDetail, bool, error) {
	id := FileName(title, s.store.Extension())

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Exists(id) {
		content, err := parser.Format(s.meta(id, title, 0, transpose.Unset), parser.Normalize(string(text)))
		if err != nil {
			return nil, false, err
		}
		detail, err := s.write(id, content)
		if err != nil {
			return nil, false, err
		}
		s.changed(ChangeCreated, id)
		return detail, true, nil
	}

	data, err := s.read(id)
	if err != nil {
		return nil, false, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, false, err
	}
	content, err := parser.Format(s.meta(id, title, res.Capo, res.Notation), parser.Normalize(string(text)))
	if err != nil {
		return nil, false, err
	}
	detail, err := s.write(id, content)
	if err != nil {
		return nil, false, err
	}
	s.changed(ChangeUpdated, id)
	return detail, false, nil
}

// TabBody converts tab-site markup into a plain song body headed by the
// song name.
func TabBody(name, content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return name + "\n" + TabRule + "\n\n" + tabMarkup.Replace(content)
}

// ImportTab stores a song fetched from a tab site, titled "artist - name".
func (s *Service) ImportTab(_ context.Context, artist, name, content string) (*SongDetail, bool, error) {
	artist, name = strings.TrimSpace(artist), strings.TrimSpace(name)
	if name == "" {
		return nil, false, apperr.ErrInvalidField
	}
	title := name
	if artist != "" {
		title = artist + " - " + name
	}
	return s.importText(title, []byte(TabBody(name, content)))
}
