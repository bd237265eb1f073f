package chart

import (
	"bytes"
	"strings"
	"testing"
)

func TestFragment(t *testing.T) {
	doc := Render("C\nla\n---\n--- Outro ---", Options{})
	got := Fragment(doc)
	want := `<p class="song-text"><span class="chord">C</span>la</p>` + "\n" +
		`<hr class="separator solo-text">` + "\n" +
		`<p class="separator solo-text"><span class="caption">Outro</span></p>` + "\n"
	if got != want {
		t.Errorf("Fragment =\n%s\nwant\n%s", got, want)
	}
}

func TestWritePage(t *testing.T) {
	style := DefaultStyle()
	style.Columns = 2
	var buf bytes.Buffer
	if err := WritePage(&buf, "Amazing Grace.txt", Render("G\nAmazing", Options{}), style); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"<title>Amazing Grace</title>",
		"--chord-color: #188B18;",
		"--text-font-size: 12px;",
		`<div id="chord-render" class="column">`,
		`<span class="chord">G</span>Amazing`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q:\n%s", want, out)
		}
	}
}

func TestWritePage_LaysOutChart(t *testing.T) {
	var buf bytes.Buffer
	doc := Render("C       G\n\nC       G\nHello   world\n===", Options{})
	if err := WritePage(&buf, "Song", doc, DefaultStyle()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"color: var(--text-color);",
		"font-size: var(--text-font-size);",
		".chord,\n.inline-chord {\n\tposition: relative;\n\tdisplay: inline-block;\n\twidth: 0;\n\ttop: -1em;",
		"color: var(--chord-color);",
		"font-size: var(--chord-font-size);",
		".solo-chord {\n\twhite-space: pre;",
		"hr.page-break {\n\tborder: 0;\n\tbreak-before: page;",
		"#chord-render.column {\n\tcolumn-count: var(--column-count);",
		`<p class="solo-chord">C       G</p>`,
		`<span class="chord">C</span>Hello`,
		`<hr class="page-break solo-text">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestWritePage_EscapesTitle(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePage(&buf, "<b>x</b>", &Document{}, DefaultStyle()); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<b>x</b>") {
		t.Error("title not escaped")
	}
	if strings.Contains(buf.String(), `class="column"`) {
		t.Error("single column style should not set column class")
	}
}

func TestStyle_Validate(t *testing.T) {
	s := DefaultStyle()
	if err := s.Validate(); err != nil {
		t.Fatalf("default style invalid: %v", err)
	}
	s.ChordColor = "green"
	if err := s.Validate(); err == nil {
		t.Error("expected error for non-hex color")
	}
	s = DefaultStyle()
	s.Columns = 0
	if err := s.Validate(); err == nil {
		t.Error("expected error for zero columns")
	}
}

func TestStyle_ChordFontSizeIsOffset(t *testing.T) {
	s := DefaultStyle()
	s.ChordFontSize = 3
	if !strings.Contains(s.CSSVariables(), "--chord-font-size: 15px;") {
		t.Errorf("css = %s", s.CSSVariables())
	}
}
