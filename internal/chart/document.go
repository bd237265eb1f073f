// Package chart turns plain-text songs into print-ready chord charts.
//
// Rendering is a pure function of the song text and Options: every line is
// classified, chord lines are buffered for one line so they can be merged
// with the lyric line below them, and the result is an ordered list of
// Blocks. Nothing is cached between renders.
package chart

// BlockKind is the structural category of a rendered block.
type BlockKind string

const (
	BlockChord   BlockKind = "chord"   // chord or tab line on its own
	BlockText    BlockKind = "text"    // lyric, prose or footer line
	BlockMerged  BlockKind = "merged"  // chord line merged with its lyric
	BlockCapo    BlockKind = "capo"    // capo indicator
	BlockBlank   BlockKind = "blank"   // empty line
	BlockRule    BlockKind = "rule"    // separator or page break
	BlockCaption BlockKind = "caption" // labeled separator
)

// CSS class markers.
const (
	ClassSoloChord    = "solo-chord"
	ClassSoloTab      = "solo-tab"
	ClassSoloText     = "solo-text"
	ClassFollowSong   = "follow-song"
	ClassSongText     = "song-text"
	ClassCapo         = "capo"
	ClassPageBreak    = "page-break"
	ClassPageFooter   = "page-footer"
	ClassSeparator    = "separator"
	ClassNotationText = "notation-text"
)

// Block is one rendered unit. Markup is already escaped and may contain
// inline spans (chord, inline-chord, tab-string) and sup elements.
type Block struct {
	Kind    BlockKind       `json:"kind"`
	Classes []string        `json:"classes,omitempty"`
	Markup  string          `json:"markup,omitempty"`
	Chords  []ChordPosition `json:"chords,omitempty"`
}

// HasClass reports whether the block carries class c.
func (b Block) HasClass(c string) bool {
	for _, x := range b.Classes {
		if x == c {
			return true
		}
	}
	return false
}

// Document is the rendered form of a song.
type Document struct {
	Group  string  `json:"group,omitempty"`
	Blocks []Block `json:"blocks"`
}
