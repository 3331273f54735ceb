package httpapi

import (
	"net/http"
	"strconv"

	"github.com/epicrunze/journal/internal/server/repositories/entries"
	"github.com/epicrunze/journal/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func (api *API) handleListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := entries.ListFilter{
		Status:     q.Get("status"),
		AfterDate:  q.Get("after"),
		BeforeDate: q.Get("before"),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	list, err := api.Entries.List(r.Context(), userIDFrom(r.Context()), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *API) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var in services.EntryInput
	if !decodeBody(w, r, &in) {
		return
	}
	entry, err := api.Entries.Create(r.Context(), userIDFrom(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (api *API) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entry, err := api.Entries.Get(r.Context(), id, userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type updateEntryRequest struct {
	services.EntryInput
	Version int64 `json:"version"`
}

func (api *API) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := api.Entries.Update(r.Context(), id, userIDFrom(r.Context()), req.Version, req.EntryInput)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (api *API) handleArchiveEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entry, err := api.Entries.Archive(r.Context(), id, userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (api *API) handleEntryVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	versions, err := api.Entries.Versions(r.Context(), id, userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}
