//go:build sqlite_fts5

package index

import (
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM songs_fts`).Scan(&count); err != nil {
		t.Fatalf("songs_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertSong(song("fts.txt", "FTS Song", "Hymns", "f1"), "Amazing grace how sweet the sound"); err != nil {
		t.Fatalf("UpsertSong: %v", err)
	}

	results, err := db.Search("sweet", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != "fts.txt" || results[0].Group != "Hymns" {
		t.Errorf("result = %+v", results[0])
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_ChordNamesDoNotBreakQuery(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertSong(song("c.txt", "Sharp", "", "1"), "C# F#m")
	if _, err := db.Search(`C# "Am/G`, 10); err != nil {
		t.Errorf("Search: %v", err)
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertSong(song("gone.txt", "Gone", "", "g"), "vanishing content")
	_ = db.DeleteSong("gone.txt")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.ID == "gone.txt" {
			t.Error("deleted song still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertSong(song("evo.txt", "Old", "", "1"), "original text")
	_ = db.UpsertSong(song("evo.txt", "New", "", "2"), "replacement text")

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
