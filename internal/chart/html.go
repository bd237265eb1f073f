package chart

import (
	"bufio"
	"html/template"
	"io"
	"strings"
)

// WriteHTML writes the blocks of doc as HTML block elements.
func WriteHTML(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)
	for _, b := range doc.Blocks {
		class := strings.Join(b.Classes, " ")
		switch b.Kind {
		case BlockRule:
			bw.WriteString(`<hr class="` + class + `">`)
		case BlockCaption:
			bw.WriteString(`<p class="` + class + `"><span class="caption">` + b.Markup + `</span></p>`)
		default:
			bw.WriteString(`<p class="` + class + `">` + b.Markup + `</p>`)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Fragment returns the HTML of doc as a string.
func Fragment(doc *Document) string {
	var b strings.Builder
	_ = WriteHTML(&b, doc)
	return b.String()
}

// baseCSS lays out the block classes using the style variables. Chord spans
// have no width, so they sit above the lyric character that follows them
// without moving it.
const baseCSS = `body {
	color: var(--text-color);
	font-size: var(--text-font-size);
	font-family: sans-serif;
}
#chord-render p {
	margin: 0;
}
#chord-render.column {
	column-count: var(--column-count);
	column-gap: 2em;
}
.song-text,
p:has(.inline-chord) {
	padding-top: calc(var(--chord-font-size) * 1.2);
}
.chord,
.inline-chord {
	position: relative;
	display: inline-block;
	width: 0;
	top: -1em;
	overflow: visible;
	white-space: nowrap;
	color: var(--chord-color);
	font-size: var(--chord-font-size);
	font-weight: bold;
}
.solo-chord {
	white-space: pre;
	color: var(--chord-color);
	font-size: var(--chord-font-size);
	font-weight: bold;
}
.solo-tab {
	font-family: monospace;
}
.tab-string {
	font-style: italic;
}
.notation {
	font-size: 0.7em;
	vertical-align: super;
	line-height: 0;
}
.capo {
	font-style: italic;
	margin-bottom: 0.5em;
}
.follow-song {
	margin-bottom: 0.3em;
}
.caption {
	font-weight: bold;
}
hr.separator {
	border: 0;
	border-top: 1px solid var(--text-color);
}
hr.page-break {
	border: 0;
	break-before: page;
	page-break-before: always;
}
.page-footer {
	font-size: 0.85em;
	font-style: italic;
}
.notation-text {
	font-style: italic;
}
ins {
	text-decoration: none;
}
@media print {
	hr.page-break {
		display: block;
		height: 0;
	}
}
`

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
{{.CSS}}
</style>
</head>
<body>
<div id="chord-render"{{if gt .Style.Columns 1}} class="column"{{end}}>
{{.Body}}</div>
</body>
</html>
`))

// WritePage writes a standalone HTML page for a rendered song. A trailing
// ".txt" is dropped from the title.
func WritePage(w io.Writer, title string, doc *Document, style Style) error {
	return pageTmpl.Execute(w, struct {
		Title string
		CSS   template.CSS
		Style Style
		Body  template.HTML
	}{
		Title: strings.TrimSuffix(title, ".txt"),
		CSS:   template.CSS(style.CSSVariables() + baseCSS),
		Style: style,
		Body:  template.HTML(Fragment(doc)),
	})
}
