// Package parser splits song files into frontmatter and body text.
package parser

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/starford/chordsheet/internal/chart"
	"github.com/starford/chordsheet/internal/transpose"
)

const delim = "---"

// TabWidth is the number of spaces a tab expands to.
const TabWidth = 8

// Result holds the output of parsing a song file.
type Result struct {
	Title    string
	Capo     int
	Notation transpose.Notation
	Group    string
	Body     string
	// HasFrontmatter reports whether a frontmatter block was recognised.
	HasFrontmatter bool
}

// Meta is the per-song state persisted in frontmatter.
type Meta struct {
	Title    string `yaml:"title,omitempty"`
	Capo     int    `yaml:"capo,omitempty"`
	Notation string `yaml:"notation,omitempty"`
}

// Parse extracts frontmatter and body from a raw song file. The group tag
// is always derived from the body.
func Parse(data []byte) (*Result, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	meta, body := splitFrontmatter(text)

	r := &Result{Body: body, Group: chart.ExtractGroup(body)}
	if meta != nil {
		// An unknown notation falls back to the default spelling.
		n, _ := transpose.ParseNotation(meta.Notation)
		r.HasFrontmatter = true
		r.Title = strings.TrimSpace(meta.Title)
		r.Capo = meta.Capo
		r.Notation = n
	}
	return r, nil
}

// splitFrontmatter separates a YAML mapping between leading --- lines from
// the body. The mapping may only use the title, capo and notation keys.
// Anything else, including a lone separator line, is body.
func splitFrontmatter(text string) (*Meta, string) {
	if !strings.HasPrefix(text, delim+"\n") {
		return nil, text
	}
	rest := text[len(delim)+1:]

	end, bodyStart := -1, 0
	for off := 0; off < len(rest); {
		line, next := rest[off:], len(rest)
		if nl := strings.IndexByte(rest[off:], '\n'); nl >= 0 {
			line, next = rest[off:off+nl], off+nl+1
		}
		if line == delim {
			end, bodyStart = off, next
			break
		}
		off = next
	}
	if end < 0 {
		return nil, text
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(rest[:end]), &doc); err != nil {
		return nil, text
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, text
	}
	// Only the known keys make a block frontmatter; "Intro: Am G" stays body.
	dec := yaml.NewDecoder(strings.NewReader(rest[:end]))
	dec.KnownFields(true)
	var meta Meta
	if err := dec.Decode(&meta); err != nil {
		return nil, text
	}
	return &meta, rest[bodyStart:]
}

// Format serialises a song back to file form. Frontmatter is written only
// when it carries something, or when the body itself starts with a
// delimiter line and would otherwise be mistaken for one.
func Format(meta Meta, body string) ([]byte, error) {
	empty := meta == Meta{}
	if empty && !strings.HasPrefix(body, delim+"\n") {
		return []byte(body), nil
	}

	var b strings.Builder
	b.WriteString(delim + "\n")
	if empty {
		b.WriteString("{}\n")
	} else {
		out, err := yaml.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("parser: marshal frontmatter: %w", err)
		}
		b.Write(out)
	}
	b.WriteString(delim + "\n")
	b.WriteString(body)
	return []byte(b.String()), nil
}

// Normalize prepares body text for storage: CRLF becomes LF, tabs expand to
// TabWidth spaces and the text is NFC-normalised.
func Normalize(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\t", strings.Repeat(" ", TabWidth))
	return norm.NFC.String(body)
}

// TitleFromID derives a display title from a library path.
func TitleFromID(id string) string {
	base := path.Base(strings.ReplaceAll(id, "\\", "/"))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
