package api

import (
	"log/slog"
	"net/http"
)

func (h *Handler) syncEnabled(w http.ResponseWriter) bool {
	if h.syncer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("cloud sync is not configured"))
		return false
	}
	return true
}

// SyncPull handles POST /api/sync/pull. Individual download failures are
// reported in the body alongside the counts.
//
//	@Summary		Pull changed songs from the cloud folder
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	PullResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sync/pull [post]
func (h *Handler) SyncPull(w http.ResponseWriter, r *http.Request) {
	if !h.syncEnabled(w) {
		return
	}
	res, err := h.syncer.Pull(r.Context(), nil)
	resp := PullResponse{Result: res}
	if err != nil {
		slog.Warn("sync pull incomplete", slog.String("error", err.Error()))
		resp.Error = err.Error()
		if res.Downloaded == 0 && res.Skipped == 0 && res.Failed == 0 {
			writeJSON(w, http.StatusBadGateway, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// SyncPush handles POST /api/sync/push/*.
//
//	@Summary		Upload one song to the cloud folder
//	@Tags			sync
//	@Produce		json
//	@Param			id	path		string	true	"Song id"
//	@Success		200	{object}	cloudsync.RemoteFile
//	@Failure		404	{object}	errResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sync/push/{id} [post]
func (h *Handler) SyncPush(w http.ResponseWriter, r *http.Request) {
	if !h.syncEnabled(w) {
		return
	}
	id := songID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	rf, err := h.syncer.Push(r.Context(), id)
	if err != nil {
		writeError(w, "sync push", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, rf)
}
