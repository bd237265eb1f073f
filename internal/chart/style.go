package chart

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Style holds the global presentation preferences shared by every song.
type Style struct {
	TextFontSize  int    `json:"text_font_size" yaml:"text_font_size"`
	ChordFontSize int    `json:"chord_font_size" yaml:"chord_font_size"` // offset added to TextFontSize
	ChordColor    string `json:"chord_color" yaml:"chord_color"`
	TextColor     string `json:"text_color" yaml:"text_color"`
	Columns       int    `json:"columns" yaml:"columns"`
}

// DefaultStyle returns the stock look.
func DefaultStyle() Style {
	return Style{
		TextFontSize:  12,
		ChordFontSize: 0,
		ChordColor:    "#188B18",
		TextColor:     "#23239F",
		Columns:       1,
	}
}

// Validate validates the style.
func (s *Style) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.TextFontSize, validation.Required, validation.Min(4), validation.Max(96)),
		validation.Field(&s.ChordFontSize, validation.Min(-16), validation.Max(32)),
		validation.Field(&s.ChordColor, validation.Required, validation.Match(hexColorRe)),
		validation.Field(&s.TextColor, validation.Required, validation.Match(hexColorRe)),
		validation.Field(&s.Columns, validation.Required, validation.Min(1), validation.Max(6)),
	)
}

// CSSVariables renders the style as custom properties on :root.
func (s Style) CSSVariables() string {
	var b strings.Builder
	b.WriteString(":root {\n")
	fmt.Fprintf(&b, "\t--text-font-size: %dpx;\n", s.TextFontSize)
	fmt.Fprintf(&b, "\t--chord-font-size: %dpx;\n", s.TextFontSize+s.ChordFontSize)
	fmt.Fprintf(&b, "\t--chord-color: %s;\n", s.ChordColor)
	fmt.Fprintf(&b, "\t--text-color: %s;\n", s.TextColor)
	fmt.Fprintf(&b, "\t--column-count: %d;\n", s.Columns)
	b.WriteString("}\n")
	return b.String()
}
