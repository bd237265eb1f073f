package songservice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/starford/chordsheet/internal/apperr"
	"github.com/starford/chordsheet/internal/chart"
	"github.com/starford/chordsheet/internal/models"
	"github.com/starford/chordsheet/internal/storage"
	"github.com/starford/chordsheet/internal/testutil"
	"github.com/starford/chordsheet/internal/transpose"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) hook(kind, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+id)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *storage.FS, *recorder) {
	t.Helper()
	_, store := testutil.TestLibrary(t)
	db := testutil.TestDB(t)
	rec := &recorder{}
	svc := NewService(store, db, append([]Option{WithChangeHook(rec.hook)}, opts...)...)
	return svc, store, rec
}

func TestCreateAndGetSong(t *testing.T) {
	svc, store, rec := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSong(ctx, "", "Amazing Grace", "#category: Hymns\r\nG\tC\r\nAmazing grace")
	if err != nil {
		t.Fatalf("CreateSong: %v", err)
	}
	if created.ID != "Amazing Grace.txt" {
		t.Errorf("id = %q", created.ID)
	}
	if created.Body != "#category: Hymns\nG        C\nAmazing grace" {
		t.Errorf("body = %q", created.Body)
	}
	if created.Group != "Hymns" {
		t.Errorf("group = %q", created.Group)
	}

	raw, _ := store.Read("Amazing Grace.txt")
	if strings.HasPrefix(string(raw), "---") {
		t.Errorf("title equal to the file name should not be written: %q", raw)
	}

	got, err := svc.GetSong(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSong: %v", err)
	}
	testutil.AssertEqual(t, created.Checksum, got.Checksum)
	testutil.AssertEqual(t, []string{"created:Amazing Grace.txt"}, rec.all())

	if _, err := svc.CreateSong(ctx, "", "Amazing Grace", "again"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestGetSong_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.GetSong(context.Background(), "nope.txt"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPutField(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	song, _ := svc.CreateSong(ctx, "song.txt", "", "C\nla")

	got, err := svc.PutField(ctx, song.ID, FieldCapo, "3")
	if err != nil {
		t.Fatalf("PutField capo: %v", err)
	}
	if got.Capo != 3 || got.Notation != transpose.Flat {
		t.Errorf("capo should couple flat notation: %+v", got)
	}

	got, _ = svc.PutField(ctx, song.ID, FieldNotation, "#")
	if got.Notation != transpose.Sharp || got.Capo != 3 {
		t.Errorf("notation not stored: %+v", got)
	}

	got, _ = svc.PutField(ctx, song.ID, FieldCapo, "0")
	if got.Notation != transpose.Sharp {
		t.Errorf("explicit notation must survive capo change: %+v", got)
	}

	got, _ = svc.PutField(ctx, song.ID, FieldTitle, "Proper Title")
	if got.Title != "Proper Title" || got.ID != "song.txt" {
		t.Errorf("title: %+v", got)
	}

	got, _ = svc.PutField(ctx, song.ID, FieldBody, "G\tD\n#category: Rock")
	if got.Body != "G        D\n#category: Rock" || got.Group != "Rock" || got.Title != "Proper Title" {
		t.Errorf("body: %+v", got)
	}

	row, err := svc.db.GetSong(song.ID)
	if err != nil || row.Group != "Rock" || row.Title != "Proper Title" {
		t.Errorf("index not refreshed: %+v err=%v", row, err)
	}
}

func TestPutField_Invalid(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	song, _ := svc.CreateSong(ctx, "song.txt", "", "C")

	for _, c := range []struct{ key, value string }{
		{FieldCapo, "two"},
		{FieldNotation, "x"},
		{"tempo", "120"},
	} {
		if _, err := svc.PutField(ctx, song.ID, c.key, c.value); !errors.Is(err, apperr.ErrInvalidField) {
			t.Errorf("PutField(%s=%s) err = %v, want ErrInvalidField", c.key, c.value, err)
		}
	}
	if _, err := svc.PutField(ctx, "missing.txt", FieldCapo, "1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateSong_IfMatch(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	song, _ := svc.CreateSong(ctx, "song.txt", "", "C")

	if _, err := svc.UpdateSong(ctx, song.ID, []byte("G"), "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	got, err := svc.UpdateSong(ctx, song.ID, []byte("G"), song.Checksum)
	if err != nil {
		t.Fatalf("UpdateSong: %v", err)
	}
	if got.Body != "G" {
		t.Errorf("body = %q", got.Body)
	}
}

func TestCurrentSong(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()
	_, _ = svc.CreateSong(ctx, "", "Bravo", "B")
	_, _ = svc.CreateSong(ctx, "", "Alpha", "A")
	_, _ = svc.CreateSong(ctx, "", "Charlie", "C")

	if id, _ := svc.CurrentSongID(ctx); id != "" {
		t.Errorf("initial current = %q", id)
	}
	if err := svc.SetCurrentSongID(ctx, "missing.txt"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := svc.SetCurrentSongID(ctx, "Bravo.txt"); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteSong(ctx, "Bravo.txt"); err != nil {
		t.Fatalf("DeleteSong: %v", err)
	}
	id, _ := svc.CurrentSongID(ctx)
	if id != "Alpha.txt" {
		t.Errorf("current after delete = %q, want Alpha.txt", id)
	}

	events := rec.all()
	if events[len(events)-1] != "current:Alpha.txt" {
		t.Errorf("events = %v", events)
	}
}

func TestDeleteSong_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.DeleteSong(context.Background(), "ghost.txt"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListSongsAndGroups(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, _ = svc.CreateSong(ctx, "", "b", "#category: Rock\nE")
	_, _ = svc.CreateSong(ctx, "", "a", "#category: Rock\nA")
	_, _ = svc.CreateSong(ctx, "", "c", "#category: Folk\nD")

	list, total, err := svc.ListSongs(ctx, models.SongFilter{Group: "Rock"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || list[0].ID != "a.txt" {
		t.Errorf("list = %+v", list)
	}
	if _, _, err := svc.ListSongs(ctx, models.SongFilter{Sort: "random"}); !errors.Is(err, apperr.ErrInvalidField) {
		t.Errorf("err = %v, want ErrInvalidField", err)
	}

	groups, _ := svc.Groups(ctx)
	testutil.AssertEqual(t, []models.Group{{Name: "Folk", Count: 1}, {Name: "Rock", Count: 2}}, groups)
}

func TestImport_CreatesThenUpdatesKeepingCapo(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	song, created, err := svc.Import(ctx, "Wonderwall.txt", []byte("Em7  G\r\nToday is gonna be"))
	if err != nil || !created {
		t.Fatalf("Import: created=%v err=%v", created, err)
	}
	_, _ = svc.PutField(ctx, song.ID, FieldCapo, "2")

	song, created, err = svc.Import(ctx, "Wonderwall.txt", []byte("Em7  G\nBackbeat"))
	if err != nil || created {
		t.Fatalf("reimport: created=%v err=%v", created, err)
	}
	if song.Capo != 2 || song.Body != "Em7  G\nBackbeat" {
		t.Errorf("song = %+v", song)
	}
}

func TestImportTab(t *testing.T) {
	svc, _, _ := newTestService(t)
	song, created, err := svc.ImportTab(context.Background(), "AC/DC", "Thunderstruck", "[tab][ch]B[/ch]\r\nThunder[/tab]")
	if err != nil || !created {
		t.Fatalf("ImportTab: created=%v err=%v", created, err)
	}
	if song.ID != "AC_DC - Thunderstruck.txt" || song.Title != "AC/DC - Thunderstruck" {
		t.Errorf("song = %+v", song)
	}
	if song.Body != "Thunderstruck\n----------\n\nB\nThunder" {
		t.Errorf("body = %q", song.Body)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(`Who? What: <Why>`, ".txt"); got != "Who_ What_ _Why_.txt" {
		t.Errorf("FileName = %q", got)
	}
	if got := FileName("song.TXT", ".txt"); got != "song.TXT" {
		t.Errorf("FileName = %q", got)
	}
	if got := FileName("  ", ".txt"); len(got) != 36+4 {
		t.Errorf("FileName of blank title = %q", got)
	}
}

func TestRender_UsesStoredAndOverrides(t *testing.T) {
	svc, _, _ := newTestService(t, WithDefaultNotation(transpose.Sharp))
	ctx := context.Background()
	song, _ := svc.CreateSong(ctx, "song.txt", "", "C\nla")

	_, doc, err := svc.Render(ctx, song.ID, RenderRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Blocks[0].Chords[0].Symbol != "C" {
		t.Errorf("untransposed render = %+v", doc.Blocks)
	}

	_, _ = svc.PutField(ctx, song.ID, FieldCapo, "2")
	_, doc, _ = svc.Render(ctx, song.ID, RenderRequest{})
	if doc.Blocks[0].Kind != chart.BlockCapo || doc.Blocks[1].Chords[0].Symbol != "Bb" {
		t.Errorf("stored capo render = %+v", doc.Blocks)
	}

	sharp := transpose.Sharp
	zero := 0
	_, doc, _ = svc.Render(ctx, song.ID, RenderRequest{Capo: &zero, Transpose: 1, Notation: &sharp})
	if doc.Blocks[0].Chords[0].Symbol != "C#" {
		t.Errorf("override render = %+v", doc.Blocks)
	}
}

func TestPreview_DefaultNotation(t *testing.T) {
	svc, _, _ := newTestService(t, WithDefaultNotation(transpose.Sharp))
	doc := svc.Preview("C", chart.Options{Capo: 2})
	if doc.Blocks[1].Chords[0].Symbol != "A#" {
		t.Errorf("preview = %+v", doc.Blocks)
	}
}

func TestStyle(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	st, err := svc.Style(ctx)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, chart.DefaultStyle(), st)

	st.Columns = 2
	st.ChordColor = "#FF0000"
	if _, err := svc.SetStyle(ctx, st); err != nil {
		t.Fatalf("SetStyle: %v", err)
	}
	got, _ := svc.Style(ctx)
	testutil.AssertEqual(t, st, got)

	st.TextColor = "blue"
	if _, err := svc.SetStyle(ctx, st); !errors.Is(err, apperr.ErrInvalidField) {
		t.Errorf("err = %v, want ErrInvalidField", err)
	}
	testutil.AssertEqual(t, []string{"style:"}, rec.all())
}

func TestRenderPage(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	song, _ := svc.CreateSong(ctx, "", "Page", "G\nword")

	var b strings.Builder
	if err := svc.RenderPage(ctx, &b, song.ID, RenderRequest{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "<title>Page</title>") {
		t.Errorf("page = %s", b.String())
	}
}

func TestWriteRaw_KeepsLeadingBlockInBody(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	body := "---\nIntro: Am G\n---\nC\nla\n"
	if _, _, err := svc.WriteRaw(ctx, "Song.txt", []byte(body)); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	got, err := svc.GetSong(ctx, "Song.txt")
	if err != nil {
		t.Fatalf("GetSong: %v", err)
	}
	testutil.AssertEqual(t, body, got.Body)

	if _, err := svc.PutField(ctx, "Song.txt", FieldCapo, "2"); err != nil {
		t.Fatalf("PutField: %v", err)
	}
	got, _ = svc.GetSong(ctx, "Song.txt")
	testutil.AssertEqual(t, body, got.Body)
	testutil.AssertEqual(t, 2, got.Capo)

	raw, _ := store.Read("Song.txt")
	if !strings.HasSuffix(string(raw), body) {
		t.Errorf("stored file lost body lines: %q", raw)
	}
}

func TestPutField_GuardsTitleLookalike(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	body := "---\ntitle: Looks Like Meta\n---\nC\n"
	if _, err := svc.CreateSong(ctx, "Song.txt", "", "x"); err != nil {
		t.Fatalf("CreateSong: %v", err)
	}
	if _, err := svc.PutField(ctx, "Song.txt", FieldBody, body); err != nil {
		t.Fatalf("PutField: %v", err)
	}
	got, _ := svc.GetSong(ctx, "Song.txt")
	testutil.AssertEqual(t, body, got.Body)
	testutil.AssertEqual(t, "Song", got.Title)
}
