package chart

import (
	"regexp"
	"strings"
)

// Kind is the classification of one physical line of song text.
type Kind int

const (
	KindBlank Kind = iota
	KindChord
	KindTab
	KindText
	KindSeparator
	KindLabeledSeparator
	KindPageBreak
	KindFooter
	KindMetadata
)

var kindNames = [...]string{
	KindBlank:            "blank",
	KindChord:            "chord",
	KindTab:              "tab",
	KindText:             "text",
	KindSeparator:        "separator",
	KindLabeledSeparator: "labeled-separator",
	KindPageBreak:        "page-break",
	KindFooter:           "footer",
	KindMetadata:         "metadata",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsChord reports whether lines of this kind are buffered as chord lines.
func (k Kind) IsChord() bool {
	return k == KindChord || k == KindTab
}

// Line is a classified line.
type Line struct {
	Raw  string
	Kind Kind
	// Content is the footer text without its marker, the separator label,
	// or the metadata value, depending on Kind.
	Content string
	// Annotation marks parenthesized ad-lib lines. It only affects styling.
	Annotation bool
}

// StrumMarkers are glyphs that force a line to be read as a chord line.
const StrumMarkers = "↓↑"

type substitution struct {
	re   *regexp.Regexp
	repl string
}

// normalizers strip chord-quality vocabulary before the letter-class tests.
// Order matters: "maj" must go before the minor marker rule eats its "m".
var normalizers = []substitution{
	{regexp.MustCompile(`maj`), "Δ"},
	{regexp.MustCompile(`M7`), "Δ"},
	{regexp.MustCompile(`([A-G]).?m`), "$1"},
	{regexp.MustCompile(`([A-G0-9])[b#♭♯]`), "$1"},
	{regexp.MustCompile(`sus[0-9]`), ""},
	{regexp.MustCompile(`add[0-9]`), ""},
	{regexp.MustCompile(`dim`), ""},
	{regexp.MustCompile(`aug`), ""},
	{regexp.MustCompile(`x[0-9]`), ""},
}

var (
	metadataRe   = regexp.MustCompile(`(?i)^#category:[ \t]*(.+)$`)
	separatorRe  = regexp.MustCompile(`^---+$`)
	labeledRe    = regexp.MustCompile(`^---(.+)---$`)
	pageBreakRe  = regexp.MustCompile(`^===+$`)
	tabPrefixRe  = regexp.MustCompile(`^[A-Ge]\|-`)
	lowerRe      = regexp.MustCompile(`[a-z]`)
	upperOtherRe = regexp.MustCompile(`[H-Z]`)
	pitchRe      = regexp.MustCompile(`[A-G]`)
)

func normalize(line string) string {
	for _, s := range normalizers {
		line = s.re.ReplaceAllString(line, s.repl)
	}
	return line
}

// Classify decides what a single line of song text is. The first matching
// rule wins.
func Classify(raw string) Line {
	trimmed := strings.TrimSpace(raw)
	l := Line{Raw: raw}

	switch {
	case trimmed == "":
		l.Kind = KindBlank
		return l
	case metadataRe.MatchString(trimmed):
		l.Kind = KindMetadata
		l.Content = strings.TrimSpace(metadataRe.FindStringSubmatch(trimmed)[1])
		return l
	}

	l.Annotation = strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")")

	switch {
	case separatorRe.MatchString(trimmed):
		l.Kind = KindSeparator
		return l
	case labeledRe.MatchString(trimmed):
		l.Kind = KindLabeledSeparator
		l.Content = strings.Trim(labeledRe.FindStringSubmatch(trimmed)[1], "- ")
		return l
	case pageBreakRe.MatchString(trimmed):
		l.Kind = KindPageBreak
		return l
	case strings.HasPrefix(trimmed, ">"):
		l.Kind = KindFooter
		l.Content = strings.TrimSpace(trimmed[1:])
		return l
	}

	norm := normalize(raw)
	switch {
	case tabPrefixRe.MatchString(norm):
		l.Kind = KindTab
	case strings.ContainsAny(norm, StrumMarkers):
		l.Kind = KindChord
	case lowerRe.MatchString(norm):
		l.Kind = KindText
	case upperOtherRe.MatchString(norm):
		l.Kind = KindText
	case pitchRe.MatchString(norm):
		l.Kind = KindChord
	default:
		l.Kind = KindText
	}
	return l
}
