package chart

import (
	"fmt"
	"strings"

	"github.com/starford/chordsheet/internal/transpose"
)

// Options carries the per-render configuration.
type Options struct {
	// Capo is the capo fret; 0 disables it. Negative values are allowed.
	Capo int
	// Transpose is an extra shift in semitones up, composed with Capo.
	Transpose int
	// Notation selects flat or sharp spelling; Unset spells flat.
	Notation transpose.Notation
}

// Shift is the subtractive semitone shift applied to chord roots.
func (o Options) Shift() int {
	return transpose.Shift(o.Capo, o.Transpose)
}

// Transposing reports whether chord lines are rewritten at all.
func (o Options) Transposing() bool {
	return o.Capo != 0 || o.Transpose != 0 || o.Notation != transpose.Unset
}

// pendingChord is the chord line waiting for the line below it.
type pendingChord struct {
	text string
	kind Kind
}

// walker holds the one-line lookahead state machine.
type walker struct {
	opts Options
	doc  *Document

	pending     *pendingChord
	capoWritten bool
	followSong  bool
}

// Render renders a whole song. It never fails: any input yields blocks.
func Render(text string, opts Options) *Document {
	w := &walker{
		opts: opts,
		doc:  &Document{Group: ExtractGroup(text), Blocks: []Block{}},
	}
	for _, raw := range strings.Split(text, "\n") {
		w.step(Classify(strings.TrimSuffix(raw, "\r")))
	}
	w.flush()
	return w.doc
}

func (w *walker) emit(b Block) {
	w.doc.Blocks = append(w.doc.Blocks, b)
}

func (w *walker) step(l Line) {
	switch {
	case l.Kind == KindMetadata:
		return

	case l.Kind == KindBlank:
		w.flush()
		w.emit(Block{Kind: BlockBlank, Classes: []string{ClassSoloText}, Markup: blankPlaceholder})
		w.followSong = false

	case l.Kind.IsChord():
		w.flush()
		if !w.capoWritten && w.opts.Capo != 0 {
			w.emit(Block{
				Kind:    BlockCapo,
				Classes: []string{ClassCapo},
				Markup:  fmt.Sprintf("<span>capo : %d</span>", w.opts.Capo),
			})
			w.capoWritten = true
		}
		text := l.Raw
		if l.Kind == KindChord && w.opts.Transposing() {
			text = transposeLine(text, w.opts.Shift(), w.opts.Notation)
		}
		w.pending = &pendingChord{text: text, kind: l.Kind}

	case w.pending != nil:
		markup, chords := merge(w.pending.text, l.Raw)
		classes := []string{ClassSongText}
		if l.Annotation {
			classes = append(classes, ClassNotationText)
		}
		w.emit(Block{Kind: BlockMerged, Classes: classes, Markup: markup, Chords: chords})
		w.pending = nil
		w.followSong = true

	default:
		w.standalone(l)
	}
}

// flush emits the pending chord line on its own.
func (w *walker) flush() {
	if w.pending == nil {
		return
	}
	classes := []string{ClassSoloChord}
	if w.pending.kind == KindTab {
		classes = append(classes, ClassSoloTab)
	}
	w.emit(Block{
		Kind:    BlockChord,
		Classes: classes,
		Markup:  decorate(w.pending.text),
		Chords:  chordWords(w.pending.text),
	})
	w.pending = nil
}

func (w *walker) standalone(l Line) {
	switch l.Kind {
	case KindSeparator:
		w.emit(Block{Kind: BlockRule, Classes: []string{ClassSeparator, ClassSoloText}})
		w.followSong = false

	case KindLabeledSeparator:
		w.emit(Block{
			Kind:    BlockCaption,
			Classes: []string{ClassSeparator, ClassSoloText},
			Markup:  w.inline(l.Content),
		})
		w.followSong = false

	case KindPageBreak:
		w.emit(Block{Kind: BlockRule, Classes: []string{ClassPageBreak, ClassSoloText}})
		w.followSong = false

	case KindFooter:
		w.emit(Block{
			Kind:    BlockText,
			Classes: []string{ClassPageFooter, ClassSoloText},
			Markup:  w.inline(l.Content),
		})
		w.followSong = false

	default:
		class := ClassSoloText
		if w.followSong {
			class = ClassFollowSong
		}
		classes := []string{class}
		if l.Annotation {
			classes = append(classes, ClassNotationText)
		}
		w.emit(Block{
			Kind:    BlockText,
			Classes: classes,
			Markup:  w.inline(collapseSpaces(l.Raw)),
		})
	}
}

// inline escapes text and substitutes bracket chords, transposing them
// like chord lines.
func (w *walker) inline(text string) string {
	var tr func(string) string
	if w.opts.Transposing() {
		shift, n := w.opts.Shift(), w.opts.Notation
		tr = func(chord string) string {
			out, _ := transpose.Word(chord, shift, n)
			return out
		}
	}
	return inlineChords(escape(text), tr)
}
