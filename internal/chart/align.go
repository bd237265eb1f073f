package chart

import (
	"strings"

	"github.com/starford/chordsheet/internal/transpose"
)

// ChordPosition records a chord symbol and the column it sits above.
type ChordPosition struct {
	Column int    `json:"column"`
	Symbol string `json:"symbol"`
}

// transposeLine transposes every chord word of a chord line and rebalances
// the gaps so later chords keep their columns. A word that grows takes
// spaces from the gaps after it, always leaving one space between words; a
// word that shrinks pads the gap after it. Growth that cannot be absorbed by
// the next gap carries over to the following one.
func transposeLine(line string, shift int, n transpose.Notation) string {
	var b strings.Builder
	rs := []rune(line)
	carry := 0
	for i := 0; i < len(rs); {
		if rs[i] != ' ' {
			j := i
			for j < len(rs) && rs[j] != ' ' {
				j++
			}
			word, delta := transpose.Word(string(rs[i:j]), shift, n)
			b.WriteString(word)
			carry += delta
			i = j
			continue
		}

		j := i
		for j < len(rs) && rs[j] == ' ' {
			j++
		}
		gap := j - i
		trailing := j == len(rs)
		switch {
		case carry > 0:
			keep := 1
			if trailing {
				keep = 0
			}
			take := min(carry, gap-keep)
			if take < 0 {
				take = 0
			}
			gap -= take
			carry -= take
		case carry < 0:
			gap -= carry
			carry = 0
		}
		b.WriteString(strings.Repeat(" ", gap))
		i = j
	}
	return b.String()
}

// chordWords lists the non-space runs of a chord line with their columns.
func chordWords(line string) []ChordPosition {
	var out []ChordPosition
	rs := []rune(line)
	for i := 0; i < len(rs); {
		if rs[i] == ' ' {
			i++
			continue
		}
		j := i
		for j < len(rs) && rs[j] != ' ' {
			j++
		}
		out = append(out, ChordPosition{Column: i, Symbol: string(rs[i:j])})
		i = j
	}
	return out
}

// merge walks a chord line and the lyric line below it column by column.
// Each chord word is emitted as an inline span just before the lyric
// character it sits above; columns past the end of the lyric get a
// non-breaking space so trailing chords keep their offset.
func merge(chordLine, lyric string) (string, []ChordPosition) {
	chords := []rune(chordLine)
	words := []rune(lyric)
	n := max(len(chords), len(words))

	var b strings.Builder
	var positions []ChordPosition
	next := 0
	for i := 0; i < n; i++ {
		if i >= next && i < len(chords) && chords[i] != ' ' {
			j := i
			for j < len(chords) && chords[j] != ' ' {
				j++
			}
			symbol := string(chords[i:j])
			b.WriteString(`<span class="chord">`)
			b.WriteString(decorate(symbol))
			b.WriteString(`</span>`)
			positions = append(positions, ChordPosition{Column: i, Symbol: symbol})
			next = j
		}
		if i < len(words) {
			b.WriteString(xmlEscaper.Replace(string(words[i])))
		} else {
			b.WriteString("&nbsp;")
		}
	}
	return expandSpaces(b.String()), positions
}
