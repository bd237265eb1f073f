package cloudsync

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakePCloud serves the subset of the pCloud API the provider uses.
type fakePCloud struct {
	srv *httptest.Server

	mu       sync.Mutex
	files    map[string]string // fileid -> content
	deleted  []string
	uploaded map[string]string // name -> content
}

func newFakePCloud(t *testing.T) *fakePCloud {
	t.Helper()
	f := &fakePCloud{
		files:    map[string]string{"11": "C\nla", "13": "G\nhey"},
		uploaded: map[string]string{},
	}
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	authed := func(w http.ResponseWriter, r *http.Request) bool {
		if r.URL.Query().Get("auth") != "tok" {
			writeJSON(w, map[string]any{"result": 1000, "error": "Log in required."})
			return false
		}
		return true
	}

	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("getauth") != "1" || q.Get("username") != "me" || q.Get("password") != "secret" {
			writeJSON(w, map[string]any{"result": 2000, "error": "Log in failed."})
			return
		}
		writeJSON(w, map[string]any{"result": 0, "auth": "tok"})
	})
	mux.HandleFunc("/listfolder", func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) {
			return
		}
		switch r.URL.Query().Get("folderid") {
		case "0":
			writeJSON(w, map[string]any{"result": 0, "metadata": map[string]any{
				"contents": []map[string]any{
					{"name": "Photos", "isfolder": true, "folderid": 3},
					{"name": "SongChords", "isfolder": true, "folderid": 5},
				},
			}})
		case "5":
			writeJSON(w, map[string]any{"result": 0, "metadata": map[string]any{
				"contents": []map[string]any{
					{"name": "Amazing Grace.txt", "fileid": 11, "hash": 100},
					{"name": "cover.png", "fileid": 12, "hash": 200},
					{"name": "Blowin.TXT", "fileid": 13, "hash": 300},
					{"name": "archive", "isfolder": true, "folderid": 6},
				},
			}})
		default:
			writeJSON(w, map[string]any{"result": 2005, "error": "Directory does not exist."})
		}
	})
	mux.HandleFunc("/getfilelink", func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) {
			return
		}
		id := r.URL.Query().Get("fileid")
		writeJSON(w, map[string]any{
			"result": 0,
			"hosts":  []string{strings.TrimPrefix(f.srv.URL, "http://")},
			"path":   "/dl/" + id,
		})
	})
	mux.HandleFunc("/dl/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		content, ok := f.files[strings.TrimPrefix(r.URL.Path, "/dl/")]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, content)
	})
	mux.HandleFunc("/deletefile", func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) {
			return
		}
		f.mu.Lock()
		f.deleted = append(f.deleted, r.URL.Query().Get("fileid"))
		f.mu.Unlock()
		writeJSON(w, map[string]any{"result": 0})
	})
	mux.HandleFunc("/uploadfile", func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) || r.Method != http.MethodPost {
			return
		}
		q := r.URL.Query()
		if q.Get("folderid") != "5" || q.Get("nopartial") != "1" {
			writeJSON(w, map[string]any{"result": 2001, "error": "bad params"})
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, map[string]any{"result": 2002, "error": err.Error()})
			return
		}
		data, _ := io.ReadAll(file)
		f.mu.Lock()
		f.uploaded[q.Get("filename")] = string(data)
		f.mu.Unlock()
		writeJSON(w, map[string]any{"result": 0, "metadata": []map[string]any{
			{"name": q.Get("filename"), "fileid": 99, "hash": 555},
		}})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakePCloud) provider(user, pass string) *PCloud {
	return NewPCloud(PCloudConfig{
		Username: user,
		Password: pass,
		Folder:   "/SongChords/",
		APIHost:  f.srv.URL,
	})
}

func TestPCloud_ListOnlySongFiles(t *testing.T) {
	fake := newFakePCloud(t)
	files, err := fake.provider("me", "secret").List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []RemoteFile{
		{ID: "11", Name: "Amazing Grace.txt", Hash: "100"},
		{ID: "13", Name: "Blowin.TXT", Hash: "300"},
	}
	if len(files) != len(want) {
		t.Fatalf("files = %+v", files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %+v, want %+v", i, files[i], want[i])
		}
	}
}

func TestPCloud_LoginFailure(t *testing.T) {
	fake := newFakePCloud(t)
	_, err := fake.provider("me", "wrong").List(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Log in failed") {
		t.Errorf("err = %v", err)
	}
}

func TestPCloud_MissingFolder(t *testing.T) {
	fake := newFakePCloud(t)
	p := fake.provider("me", "secret")
	p.cfg.Folder = "Nope"
	if _, err := p.List(context.Background()); err == nil {
		t.Error("expected error for missing folder")
	}
}

func TestPCloud_Fetch(t *testing.T) {
	fake := newFakePCloud(t)
	data, err := fake.provider("me", "secret").Fetch(context.Background(), RemoteFile{ID: "11", Name: "Amazing Grace.txt"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "C\nla" {
		t.Errorf("data = %q", data)
	}
}

func TestPCloud_PushReplacesPrevious(t *testing.T) {
	fake := newFakePCloud(t)
	p := fake.provider("me", "secret")
	rf, err := p.Push(context.Background(), "New.txt", []byte("D\nnew"), &RemoteFile{ID: "11"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if rf.ID != "99" || rf.Hash != "555" || rf.Name != "New.txt" {
		t.Errorf("remote file = %+v", rf)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.deleted) != 1 || fake.deleted[0] != "11" {
		t.Errorf("deleted = %v", fake.deleted)
	}
	if fake.uploaded["New.txt"] != "D\nnew" {
		t.Errorf("uploaded = %v", fake.uploaded)
	}
}
