package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

const maxImportBytes = 20 << 20 // 20 MB

// textFile reports whether an uploaded part looks like a plain-text song.
func textFile(h *multipart.FileHeader) bool {
	if strings.EqualFold(filepath.Ext(h.Filename), ".txt") {
		return true
	}
	mt, _, err := mime.ParseMediaType(h.Header.Get("Content-Type"))
	return err == nil && mt == "text/plain"
}

// safeName validates that the uploaded filename is a plain name (no path
// separators, no traversal).
func safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	return cleaned, nil
}

func readPart(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Import handles POST /api/import (multipart/form-data, one or more "file"
// fields). Each text file becomes a song titled after its file name; a song
// with that title is updated in place. With "artist" and "name" form values
// the single file is imported as an external tab instead.
//
//	@Summary		Import song text files
//	@Tags			songs
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Song text file(s)"
//	@Param			artist	formData	string	false	"Tab import: artist"
//	@Param			name	formData	string	false	"Tab import: song name"
//	@Success		201		{object}	ImportResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}

	artist, name := r.FormValue("artist"), r.FormValue("name")
	if artist != "" && name != "" {
		h.importTab(w, r, artist, name, files[0])
		return
	}

	resp := ImportResponse{Songs: []ImportedSong{}}
	for _, fh := range files {
		filename, err := safeName(fh.Filename)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		if !textFile(fh) {
			resp.Skipped = append(resp.Skipped, filename)
			continue
		}
		data, err := readPart(fh)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
			return
		}
		song, created, err := h.svc.Import(r.Context(), filename, data)
		if err != nil {
			writeError(w, "import", err, slog.String("file", filename))
			return
		}
		resp.Songs = append(resp.Songs, ImportedSong{ID: song.ID, Title: song.Title, Created: created})
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) importTab(w http.ResponseWriter, r *http.Request, artist, name string, fh *multipart.FileHeader) {
	data, err := readPart(fh)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	song, created, err := h.svc.ImportTab(r.Context(), artist, name, string(data))
	if err != nil {
		writeError(w, "import tab", err, slog.String("artist", artist), slog.String("name", name))
		return
	}
	writeJSON(w, http.StatusCreated, ImportResponse{
		Songs: []ImportedSong{{ID: song.ID, Title: song.Title, Created: created}},
	})
}
