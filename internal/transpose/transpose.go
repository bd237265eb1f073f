// Package transpose maps chord roots through semitone shifts and spells the
// result in flat or sharp notation.
//
// Pitch classes are indexed 0..11 with A at index 0. A shift is subtractive:
// a capo of N displays every written chord N semitones lower, which is the
// open-position equivalent of the fretted shape. Capo and explicit transpose
// steps compose by addition before the mod-12 reduction (see Shift).
package transpose

import (
	"fmt"
	"regexp"
	"strings"
)

// Notation selects the enharmonic spelling of accidentals.
type Notation string

const (
	Unset Notation = ""
	Flat  Notation = "b"
	Sharp Notation = "#"
)

// ParseNotation accepts "", "b" and "#" (and the typographic ♭/♯).
func ParseNotation(s string) (Notation, error) {
	switch strings.TrimSpace(s) {
	case "":
		return Unset, nil
	case "b", "♭", "flat":
		return Flat, nil
	case "#", "♯", "sharp":
		return Sharp, nil
	}
	return Unset, fmt.Errorf("transpose: unknown notation %q", s)
}

var (
	flatScale  = [12]string{"A", "Bb", "B", "C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab"}
	sharpScale = [12]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

	typographic = strings.NewReplacer("♭", "b", "♯", "#")

	// rootRe matches every pitch root inside a chord word, including the
	// bass note of a slash chord.
	rootRe = regexp.MustCompile(`[A-G][b#]?`)
)

// Pitch is a pitch class index in 0..11, A = 0.
type Pitch int

// ParsePitch looks the token up in the flat scale, then the sharp scale.
// The match is exact and case-sensitive.
func ParsePitch(tok string) (Pitch, bool) {
	tok = typographic.Replace(tok)
	for i, n := range flatScale {
		if n == tok {
			return Pitch(i), true
		}
	}
	for i, n := range sharpScale {
		if n == tok {
			return Pitch(i), true
		}
	}
	return 0, false
}

// Lower returns the pitch shifted down by n semitones (negative n raises it).
func (p Pitch) Lower(n int) Pitch {
	return Pitch(mod12(int(p) - n))
}

// Spell returns the pitch name in the given notation. Unset spells flat.
func (p Pitch) Spell(n Notation) string {
	if n == Sharp {
		return sharpScale[mod12(int(p))]
	}
	return flatScale[mod12(int(p))]
}

// Shift composes a capo value with a transpose delta expressed in semitones
// up. The result is the subtractive shift expected by Note.
func Shift(capo, up int) int {
	return capo - up
}

// Note transposes a single pitch token. Tokens found in neither scale are
// returned unchanged.
func Note(tok string, shift int, n Notation) string {
	p, ok := ParsePitch(tok)
	if !ok {
		return tok
	}
	return p.Lower(shift).Spell(n)
}

// Word transposes every root in a chord word ("Bbm7", "D/F#") and reports
// the change in character count so callers can keep following columns
// aligned.
func Word(word string, shift int, n Notation) (string, int) {
	src := typographic.Replace(word)
	out := rootRe.ReplaceAllStringFunc(src, func(root string) string {
		return Note(root, shift, n)
	})
	return out, len([]rune(out)) - len([]rune(word))
}

// Chord is a chord symbol split into its root and an opaque suffix.
type Chord struct {
	Root   string `json:"root"`
	Suffix string `json:"suffix,omitempty"`
}

var chordRe = regexp.MustCompile(`^([A-G][b#♭♯]?)(.*)$`)

// ParseChord splits a symbol such as "F#m7/C#" into root and suffix.
func ParseChord(s string) (Chord, bool) {
	m := chordRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Chord{}, false
	}
	return Chord{Root: typographic.Replace(m[1]), Suffix: m[2]}, true
}

// Transpose shifts the root and any slash bass note in the suffix.
func (c Chord) Transpose(shift int, n Notation) Chord {
	suffix, _ := Word(c.Suffix, shift, n)
	return Chord{Root: Note(c.Root, shift, n), Suffix: suffix}
}

// String joins root and suffix.
func (c Chord) String() string {
	return c.Root + c.Suffix
}

func mod12(x int) int {
	return ((x % 12) + 12) % 12
}
