package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/chordsheet/internal/checksum"
	"github.com/starford/chordsheet/internal/cloudsync"
	"github.com/starford/chordsheet/internal/models"
	"github.com/starford/chordsheet/internal/songservice"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc    *songservice.Service
	syncer *cloudsync.Syncer
}

// NewHandler creates a new Handler. syncer may be nil when cloud sync is off.
func NewHandler(svc *songservice.Service, syncer *cloudsync.Syncer) *Handler {
	return &Handler{svc: svc, syncer: syncer}
}

// songID extracts the song id from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. folk%2Fsong.txt).
func songID(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListSongs handles GET /api/songs.
//
//	@Summary		List songs with optional pagination and group filter
//	@Tags			songs
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			group	query		string	false	"Filter by group tag"
//	@Param			sort	query		string	false	"Sort field"	Enums(title, updated, id)
//	@Success		200		{object}	SongListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/songs [get]
func (h *Handler) ListSongs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListSongs(r.Context(), models.SongFilter{
		Group:  q.Get("group"),
		Sort:   q.Get("sort"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, "list songs", err)
		return
	}
	if items == nil {
		items = []models.SongSummary{}
	}
	writeJSON(w, http.StatusOK, SongListResponse{Songs: items, Total: total})
}

// GetSong handles GET /api/songs/*.
//
//	@Summary		Get a single song by id
//	@Tags			songs
//	@Produce		json
//	@Param			id	path		string	true	"Song id"
//	@Success		200	{object}	SongDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/songs/{id} [get]
func (h *Handler) GetSong(w http.ResponseWriter, r *http.Request) {
	id := songID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	song, err := h.svc.GetSong(r.Context(), id)
	if err != nil {
		writeError(w, "get song", err, slog.String("id", id))
		return
	}
	w.Header().Set("ETag", checksum.ETag(song.Checksum))
	writeJSON(w, http.StatusOK, song)
}

// CreateSong handles POST /api/songs.
//
//	@Summary		Create a new song
//	@Tags			songs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateSongRequest	true	"Song to create"
//	@Success		201		{object}	SongDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/songs [post]
func (h *Handler) CreateSong(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Title) == "" && req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title or id is required"))
		return
	}
	song, err := h.svc.CreateSong(r.Context(), req.ID, req.Title, req.Body)
	if err != nil {
		writeError(w, "create song", err, slog.String("title", req.Title))
		return
	}
	w.Header().Set("ETag", checksum.ETag(song.Checksum))
	writeJSON(w, http.StatusCreated, song)
}

// UpdateSong handles PUT /api/songs/*.
//
//	@Summary		Replace a song file with optimistic concurrency
//	@Tags			songs
//	@Accept			json
//	@Produce		json
//	@Param			id			path	string				true	"Song id"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	UpdateSongRequest	true	"Full file content, frontmatter included"
//	@Success		200		{object}	SongDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/songs/{id} [put]
func (h *Handler) UpdateSong(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	id := songID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	var req UpdateSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	ifMatch := checksum.FromETag(r.Header.Get("If-Match"))

	song, err := h.svc.UpdateSong(r.Context(), id, []byte(req.Content), ifMatch)
	if err != nil {
		writeError(w, "update song", err, slog.String("id", id))
		return
	}
	w.Header().Set("ETag", checksum.ETag(song.Checksum))
	writeJSON(w, http.StatusOK, song)
}

// PatchSong handles PATCH /api/songs/*: one of title, body, capo or notation.
//
//	@Summary		Set a single song field
//	@Tags			songs
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Song id"
//	@Param			body	body		PutFieldRequest	true	"Field and value"
//	@Success		200		{object}	SongDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/songs/{id} [patch]
func (h *Handler) PatchSong(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	id := songID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	var req PutFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	song, err := h.svc.PutField(r.Context(), id, req.Key, req.Value)
	if err != nil {
		writeError(w, "put field", err, slog.String("id", id), slog.String("key", req.Key))
		return
	}
	w.Header().Set("ETag", checksum.ETag(song.Checksum))
	writeJSON(w, http.StatusOK, song)
}

// DeleteSong handles DELETE /api/songs/*.
//
//	@Summary		Delete a song
//	@Tags			songs
//	@Param			id	path	string	true	"Song id"
//	@Success		204	"Song deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/songs/{id} [delete]
func (h *Handler) DeleteSong(w http.ResponseWriter, r *http.Request) {
	id := songID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if err := h.svc.DeleteSong(r.Context(), id); err != nil {
		writeError(w, "delete song", err, slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Groups handles GET /api/groups.
//
//	@Summary		List group tags with song counts
//	@Tags			songs
//	@Produce		json
//	@Success		200	{object}	GroupListResponse
//	@Security		BearerAuth
//	@Router			/groups [get]
func (h *Handler) Groups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.Groups(r.Context())
	if err != nil {
		writeError(w, "groups", err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	writeJSON(w, http.StatusOK, GroupListResponse{Groups: groups})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across songs
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// GetCurrent handles GET /api/current.
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	id, err := h.svc.CurrentSongID(r.Context())
	if err != nil {
		writeError(w, "current song", err)
		return
	}
	writeJSON(w, http.StatusOK, CurrentSong{ID: id})
}

// PutCurrent handles PUT /api/current. An empty id clears the selection.
func (h *Handler) PutCurrent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CurrentSong
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.SetCurrentSongID(r.Context(), req.ID); err != nil {
		writeError(w, "set current song", err, slog.String("id", req.ID))
		return
	}
	writeJSON(w, http.StatusOK, req)
}
