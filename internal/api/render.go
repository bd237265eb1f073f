package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/chordsheet/internal/chart"
	"github.com/starford/chordsheet/internal/songservice"
	"github.com/starford/chordsheet/internal/transpose"
)

// renderRequest reads the capo, transpose and notation overrides from the
// query string. Absent parameters keep the song's own settings.
func renderRequest(r *http.Request) (songservice.RenderRequest, error) {
	var req songservice.RenderRequest
	q := r.URL.Query()
	if v := q.Get("capo"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, err
		}
		req.Capo = &n
	}
	if v := q.Get("transpose"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, err
		}
		req.Transpose = n
	}
	if q.Has("notation") {
		n, err := transpose.ParseNotation(q.Get("notation"))
		if err != nil {
			return req, err
		}
		req.Notation = &n
	}
	return req, nil
}

// RenderSong handles GET /api/render/*.
//
//	@Summary		Render a stored song as a chord chart
//	@Tags			render
//	@Produce		json,html
//	@Param			id			path		string	true	"Song id"
//	@Param			capo		query		int		false	"Capo override"
//	@Param			transpose	query		int		false	"Extra semitones up"
//	@Param			notation	query		string	false	"Notation override"	Enums(b, #)
//	@Param			format		query		string	false	"Response format"	Enums(json, html)
//	@Success		200			{object}	RenderResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/render/{id} [get]
func (h *Handler) RenderSong(w http.ResponseWriter, r *http.Request) {
	id := songID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	req, err := renderRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	if r.URL.Query().Get("format") == "html" {
		var buf bytes.Buffer
		if err := h.svc.RenderPage(r.Context(), &buf, id, req); err != nil {
			writeError(w, "render page", err, slog.String("id", id))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	song, doc, err := h.svc.Render(r.Context(), id, req)
	if err != nil {
		writeError(w, "render song", err, slog.String("id", id))
		return
	}
	opts := h.svc.Options(song, req)
	writeJSON(w, http.StatusOK, RenderResponse{
		ID:        song.ID,
		Title:     song.Title,
		Capo:      opts.Capo,
		Transpose: opts.Transpose,
		Notation:  opts.Notation,
		Document:  doc,
		HTML:      chart.Fragment(doc),
	})
}

// Preview handles POST /api/render: renders unsaved text such as the
// editor buffer.
//
//	@Summary		Render text without storing it
//	@Tags			render
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PreviewRequest	true	"Text and options"
//	@Success		200		{object}	RenderResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/render [post]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	n, err := transpose.ParseNotation(req.Notation)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	opts := chart.Options{Capo: req.Capo, Transpose: req.Transpose, Notation: n}
	doc := h.svc.Preview(req.Text, opts)
	writeJSON(w, http.StatusOK, RenderResponse{
		Capo:      opts.Capo,
		Transpose: opts.Transpose,
		Notation:  opts.Notation,
		Document:  doc,
		HTML:      chart.Fragment(doc),
	})
}

// GetStyle handles GET /api/style.
func (h *Handler) GetStyle(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Style(r.Context())
	if err != nil {
		writeError(w, "get style", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// PutStyle handles PUT /api/style. Omitted fields keep their current values.
func (h *Handler) PutStyle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	st, err := h.svc.Style(r.Context())
	if err != nil {
		writeError(w, "get style", err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	st, err = h.svc.SetStyle(r.Context(), st)
	if err != nil {
		writeError(w, "set style", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
