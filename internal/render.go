package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/starford/chordsheet/internal/chart"
	"github.com/starford/chordsheet/internal/parser"
	"github.com/starford/chordsheet/internal/songservice"
)

// Render output formats.
const (
	FormatHTML = "html"
	FormatJSON = "json"
)

// RenderFile renders one song file outside the library. The song's own capo
// and notation apply unless req overrides them.
func RenderFile(w io.Writer, path string, req songservice.RenderRequest, format string, cfg RenderConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read song: %w", err)
	}
	res, err := parser.Parse(data)
	if err != nil {
		return fmt.Errorf("parse song: %w", err)
	}
	title := res.Title
	if title == "" {
		title = parser.TitleFromID(path)
	}

	body := parser.Normalize(res.Body)
	doc := chart.Render(body, songservice.ResolveOptions(res.Capo, res.Notation, req, cfg.Notation()))

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatHTML, "":
		return chart.WritePage(w, title, doc, cfg.Style)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
