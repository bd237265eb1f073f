package chart

import (
	"regexp"
	"strings"
)

// blankPlaceholder keeps the height of an empty line.
const blankPlaceholder = "<ins>&nbsp;</ins>"

var xmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"&", "&amp;",
	"'", "&apos;",
	`"`, "&quot;",
)

// escape entity-escapes raw text. An empty string yields the blank
// placeholder element.
func escape(s string) string {
	if s == "" {
		return blankPlaceholder
	}
	return xmlEscaper.Replace(s)
}

var (
	accidentalRe  = regexp.MustCompile(`([A-G0-9])([b#])`)
	repeatRe      = regexp.MustCompile(`x([0-9]+)`)
	extensionRe   = regexp.MustCompile(`((?:sus|/|add)[0-9]+)`)
	tabStringRe   = regexp.MustCompile(`^([A-Ga-g♭♯]+)\|-`)
	glyphRe       = regexp.MustCompile(`([♭♯])`)
	spaceRunRe    = regexp.MustCompile(` {2,}`)
	inlineChordRe = regexp.MustCompile(`\[([A-G][b#♭♯]?)([A-Za-z0-9/]{0,4})\]`)

	majorSeventh = strings.NewReplacer("maj7", "Δ", "M7", "Δ")
)

// glyphs swaps ASCII chord spelling for typographic glyphs.
func glyphs(chord string) string {
	chord = accidentalRe.ReplaceAllStringFunc(chord, func(s string) string {
		if s[1] == 'b' {
			return s[:1] + "♭"
		}
		return s[:1] + "♯"
	})
	chord = majorSeventh.Replace(chord)
	return repeatRe.ReplaceAllString(chord, "×$1")
}

// superscripts wraps extensions and accidental glyphs of already escaped
// chord text.
func superscripts(chord string) string {
	chord = extensionRe.ReplaceAllString(chord, "<sup>$1</sup>")
	chord = tabStringRe.ReplaceAllString(chord, `<span class="tab-string">$1</span>|-`)
	return glyphRe.ReplaceAllString(chord, `<sup class="notation">$1</sup>`)
}

// decorate turns raw chord text into markup.
func decorate(chord string) string {
	if chord == "" {
		return ""
	}
	return superscripts(escape(glyphs(chord)))
}

// inlineChords replaces "[Cm7]" style tokens in escaped text with chord
// spans. Malformed brackets stay literal.
func inlineChords(escaped string, tr func(string) string) string {
	return inlineChordRe.ReplaceAllStringFunc(escaped, func(tok string) string {
		chord := tok[1 : len(tok)-1]
		if tr != nil {
			chord = tr(chord)
		}
		return `<span class="inline-chord">` + decorate(chord) + `</span>`
	})
}

// expandSpaces turns runs of two or more spaces into en spaces, one per
// original space.
func expandSpaces(markup string) string {
	return spaceRunRe.ReplaceAllStringFunc(markup, func(run string) string {
		return strings.Repeat("&ensp;", len(run))
	})
}

// collapseSpaces folds runs of spaces into one.
func collapseSpaces(s string) string {
	return spaceRunRe.ReplaceAllString(s, " ")
}
