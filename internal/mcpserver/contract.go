package mcpserver

// SongFormatContract describes the plain-text song format that LLM
// consumers should follow when creating or importing songs.
const SongFormatContract = `# Chordsheet Song Format

A song is a UTF-8 text file. Chords sit on their own line directly above the
lyric characters they belong to; alignment is by column, so use spaces, not tabs
(tabs are expanded to 8 spaces on save).

## Structure

` + "```" + `text
---
title: Amazing Grace     # OPTIONAL - defaults to the file name
capo: 2                  # OPTIONAL - capo fret, chords are displayed lowered
notation: "b"            # OPTIONAL - "b" (flats) or "#" (sharps)
---
#category: Hymns

G         G7      C      G
Amazing grace how sweet the sound
` + "```" + `

## Line types

1. **Chord line**: only chord symbols and spaces (` + "`" + `C  Am/E  F#m7b5  Bbmaj7` + "`" + `).
   Repeat markers (` + "`" + `x2` + "`" + `), bar lines (` + "`" + `|` + "`" + `) and strum arrows (` + "`" + `↓ ↑` + "`" + `) are allowed.
2. **Tab line**: starts with a string name followed by ` + "`" + `|-` + "`" + ` (` + "`" + `e|--0--3--|` + "`" + `).
   Tab lines are never transposed.
3. **Lyric line**: anything else. Inline chords may be written in brackets:
   ` + "`" + `Sing [Am]along` + "`" + `. A line wrapped in parentheses is styled as an ad-lib.
4. ` + "`" + `---` + "`" + ` draws a separator, ` + "`" + `---Chorus---` + "`" + ` a labeled separator,
   ` + "`" + `===` + "`" + ` a page break, and a leading ` + "`" + `>` + "`" + ` a footer line.
5. ` + "`" + `#category: Name` + "`" + ` puts the song in a group. It is not rendered.

## Rules

1. Write chords in the key they are played with the capo on; the capo setting
   lowers the displayed chords so they read as sounding pitch.
2. Put a chord line immediately above its lyric line with no blank line between.
3. Song ids are file paths relative to the library root and end with ` + "`" + `.txt` + "`" + `.
4. Do not invent frontmatter keys; only title, capo and notation are read.
`
