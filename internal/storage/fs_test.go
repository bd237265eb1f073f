package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func tempLibrary(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFS(dir, "")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return s
}

func TestWriteAndRead(t *testing.T) {
	s := tempLibrary(t)
	content := []byte("C  G\nHello world\n")
	if err := s.Write("song.txt", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("song.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempLibrary(t)
	if err := s.Write("folk/old/ballad.txt", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("folk/old/ballad.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestReadMissingIsNotExist(t *testing.T) {
	s := tempLibrary(t)
	_, err := s.Read("missing.txt")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempLibrary(t)
	_ = s.Write("del.txt", []byte("bye"))
	if err := s.Delete("del.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Exists("del.txt") {
		t.Error("file still exists after delete")
	}
}

func TestMove(t *testing.T) {
	s := tempLibrary(t)
	_ = s.Write("old.txt", []byte("data"))
	if err := s.Move("old.txt", "sub/new.txt"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := s.Read("sub/new.txt")
	if err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
	if s.Exists("old.txt") {
		t.Error("old path should not exist")
	}
}

func TestList(t *testing.T) {
	s := tempLibrary(t)
	_ = s.Write("a.txt", []byte("a"))
	_ = s.Write("sub/b.TXT", []byte("b"))
	_ = s.Write("readme.md", []byte("not a song"))
	_ = s.Write(".hidden/c.txt", []byte("c"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	ids := map[string]bool{items[0].ID: true, items[1].ID: true}
	if !ids["a.txt"] || !ids["sub/b.TXT"] {
		t.Errorf("ids = %v", ids)
	}
}

func TestCustomExtension(t *testing.T) {
	s, err := NewFS(t.TempDir(), "chopro")
	if err != nil {
		t.Fatal(err)
	}
	if s.Extension() != ".chopro" {
		t.Errorf("ext = %q", s.Extension())
	}
	_ = s.Write("a.chopro", []byte("a"))
	_ = s.Write("b.txt", []byte("b"))
	items, _ := s.List("")
	if len(items) != 1 || items[0].ID != "a.chopro" {
		t.Errorf("items = %+v", items)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempLibrary(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.txt",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if s.Exists(p) {
			t.Errorf("Exists(%q) = true", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempLibrary(t)
	_ = s.Write("atomic.txt", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.txt", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.txt")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".chordsheet-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"), "")
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "chordsheet-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name(), "")
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
