package transpose

import "testing"

func TestNote_CapoTwoFlat(t *testing.T) {
	if got := Note("C", 2, Unset); got != "Bb" {
		t.Errorf("Note(C, 2, unset) = %q, want %q", got, "Bb")
	}
	if got := Note("C", 2, Flat); got != "Bb" {
		t.Errorf("Note(C, 2, flat) = %q, want %q", got, "Bb")
	}
}

func TestNote_CapoTwoSharp(t *testing.T) {
	if got := Note("C", 2, Sharp); got != "A#" {
		t.Errorf("Note(C, 2, sharp) = %q, want %q", got, "A#")
	}
}

func TestNote_SharpInputFlatOutput(t *testing.T) {
	if got := Note("F#", 0, Flat); got != "Gb" {
		t.Errorf("Note(F#, 0, flat) = %q, want %q", got, "Gb")
	}
	if got := Note("G♭", 0, Sharp); got != "F#" {
		t.Errorf("Note(G♭, 0, sharp) = %q, want %q", got, "F#")
	}
}

func TestNote_UnknownTokenUnchanged(t *testing.T) {
	for _, tok := range []string{"H", "Cb", "c", "", "N.C."} {
		if got := Note(tok, 5, Sharp); got != tok {
			t.Errorf("Note(%q) = %q, want unchanged", tok, got)
		}
	}
}

func TestNote_RoundTrip(t *testing.T) {
	for _, tok := range flatScale {
		for s := -24; s <= 24; s++ {
			there := Note(tok, s, Flat)
			back := Note(there, -s, Flat)
			if back != tok {
				t.Errorf("round trip %q by %d: got %q via %q", tok, s, back, there)
			}
		}
	}
}

func TestNote_Periodicity(t *testing.T) {
	for _, tok := range append(flatScale[:], sharpScale[:]...) {
		for s := -30; s <= 30; s++ {
			for _, n := range []Notation{Unset, Flat, Sharp} {
				if a, b := Note(tok, s, n), Note(tok, s+12, n); a != b {
					t.Errorf("Note(%q, %d) = %q but Note(%q, %d) = %q", tok, s, a, tok, s+12, b)
				}
			}
		}
	}
}

func TestShift_ComposesCapoAndTranspose(t *testing.T) {
	// Capo 3 then one step up equals capo 2.
	if got, want := Note("E", Shift(3, 1), Flat), Note("E", 2, Flat); got != want {
		t.Errorf("composed shift = %q, want %q", got, want)
	}
	// Transpose up without capo raises the chord.
	if got := Note("A", Shift(0, 2), Flat); got != "B" {
		t.Errorf("A up 2 = %q, want B", got)
	}
}

func TestWord_SlashChordAndDelta(t *testing.T) {
	got, delta := Word("D/F#", 2, Flat)
	if got != "C/E" {
		t.Errorf("Word = %q, want %q", got, "C/E")
	}
	if delta != -1 {
		t.Errorf("delta = %d, want -1", delta)
	}

	got, delta = Word("Cm7", 2, Flat)
	if got != "Bbm7" || delta != 1 {
		t.Errorf("Word = %q (%d), want Bbm7 (1)", got, delta)
	}
}

func TestWord_LeavesQualityText(t *testing.T) {
	got, delta := Word("Asus4", 0, Sharp)
	if got != "Asus4" || delta != 0 {
		t.Errorf("Word = %q (%d)", got, delta)
	}
}

func TestParseChord(t *testing.T) {
	c, ok := ParseChord("F#m7/C#")
	if !ok {
		t.Fatal("expected chord")
	}
	if c.Root != "F#" || c.Suffix != "m7/C#" {
		t.Errorf("chord = %+v", c)
	}
	if got := c.Transpose(1, Sharp).String(); got != "Fm7/C" {
		t.Errorf("transposed = %q, want %q", got, "Fm7/C")
	}
	if _, ok := ParseChord("hello"); ok {
		t.Error("lowercase text should not parse as chord")
	}
}

func TestParseNotation(t *testing.T) {
	cases := map[string]Notation{"": Unset, "b": Flat, "#": Sharp, "♯": Sharp}
	for in, want := range cases {
		got, err := ParseNotation(in)
		if err != nil || got != want {
			t.Errorf("ParseNotation(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseNotation("x"); err == nil {
		t.Error("expected error for unknown notation")
	}
}
