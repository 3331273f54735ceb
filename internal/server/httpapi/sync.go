package httpapi

import (
	"net/http"

	"github.com/epicrunze/journal/internal/server/sync"
)

func (api *API) handleSync(w http.ResponseWriter, r *http.Request) {
	var req sync.SyncRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID := userIDFrom(r.Context())

	resp, err := api.Sync.Sync(r.Context(), userID, req)
	if err != nil {
		api.Logger.Error(r.Context(), "sync failed", "user_id", userID, "error", err)
		writeError(w, err)
		return
	}
	api.Logger.Info(r.Context(), "sync completed",
		"user_id", userID,
		"pending", len(req.PendingChanges),
		"applied", len(resp.Applied),
		"auto_merged", len(resp.AutoMerged),
		"conflicts", len(resp.Conflicts),
		"skipped", len(resp.Skipped))

	// Sync is the natural moment to work off queued refines: the client is
	// online right now and will pull the rewritten entries on its next call.
	if n, err := api.Chat.ProcessPendingRefines(r.Context(), userID, 0); err != nil {
		api.Logger.Warn(r.Context(), "refine pass after sync failed", "user_id", userID, "error", err)
	} else if n > 0 {
		api.Logger.Info(r.Context(), "processed pending refines", "user_id", userID, "count", n)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (api *API) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req sync.ResolveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := api.Sync.Resolve(r.Context(), userIDFrom(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
