package internal

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/chordsheet/internal/chart"
	"github.com/starford/chordsheet/internal/songservice"
	"github.com/starford/chordsheet/internal/transpose"
)

func writeSong(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Amazing Grace.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func renderJSON(t *testing.T, path string, req songservice.RenderRequest) *chart.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := RenderFile(&buf, path, req, FormatJSON, NewDefaultConfig().Render); err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	var doc chart.Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	return &doc
}

func TestRenderFile_UsesFrontmatter(t *testing.T) {
	path := writeSong(t, "---\ncapo: 2\nnotation: \"#\"\n---\nC\nla")

	doc := renderJSON(t, path, songservice.RenderRequest{})
	last := doc.Blocks[len(doc.Blocks)-1]
	if doc.Blocks[0].Kind != chart.BlockCapo || last.Chords[0].Symbol != "A#" {
		t.Errorf("blocks = %+v", doc.Blocks)
	}

	flat := transpose.Flat
	zero := 0
	doc = renderJSON(t, path, songservice.RenderRequest{Capo: &zero, Transpose: 2, Notation: &flat})
	if got := doc.Blocks[0].Chords[0].Symbol; got != "D" {
		t.Errorf("override chord = %q, want D", got)
	}
}

func TestRenderFile_HTML(t *testing.T) {
	path := writeSong(t, "G\tC\nhey")
	var buf bytes.Buffer
	if err := RenderFile(&buf, path, songservice.RenderRequest{}, FormatHTML, NewDefaultConfig().Render); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<title>Amazing Grace</title>") {
		t.Errorf("page = %s", buf.String())
	}
}

func TestRenderFile_Errors(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig().Render
	if err := RenderFile(&buf, filepath.Join(t.TempDir(), "missing.txt"), songservice.RenderRequest{}, FormatHTML, cfg); err == nil {
		t.Error("expected error for missing file")
	}
	if err := RenderFile(&buf, writeSong(t, "C"), songservice.RenderRequest{}, "pdf", cfg); err == nil {
		t.Error("expected error for unknown format")
	}
}
