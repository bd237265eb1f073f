package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/chordsheet/internal/cloudsync"
	"github.com/starford/chordsheet/internal/songservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// syncer may be nil, in which case the sync routes answer 503.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *songservice.Service, syncer *cloudsync.Syncer, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, syncer)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Songs CRUD.
	r.Get("/songs", h.ListSongs)
	r.Post("/songs", h.CreateSong)
	r.Get("/songs/*", h.GetSong)
	r.Put("/songs/*", h.UpdateSong)
	r.Patch("/songs/*", h.PatchSong)
	r.Delete("/songs/*", h.DeleteSong)

	// Rendering.
	r.Get("/render/*", h.RenderSong)
	r.Post("/render", h.Preview)

	r.Get("/groups", h.Groups)
	r.Get("/search", h.Search)

	// Viewer state.
	r.Get("/current", h.GetCurrent)
	r.Put("/current", h.PutCurrent)
	r.Get("/style", h.GetStyle)
	r.Put("/style", h.PutStyle)

	r.Post("/import", h.Import)

	// Cloud sync.
	r.Post("/sync/pull", h.SyncPull)
	r.Post("/sync/push/*", h.SyncPush)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
