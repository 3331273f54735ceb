package httpapi

import (
	"net/http"

	"github.com/epicrunze/journal/internal/server/services"
)

func (api *API) handleListGoals(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	list, err := api.Goals.List(r.Context(), userIDFrom(r.Context()), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *API) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var in services.GoalInput
	if !decodeBody(w, r, &in) {
		return
	}
	goal, err := api.Goals.Create(r.Context(), userIDFrom(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (api *API) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	goal, err := api.Goals.Get(r.Context(), id, userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

type updateGoalRequest struct {
	services.GoalInput
	Version int64 `json:"version"`
}

func (api *API) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	goal, err := api.Goals.Update(r.Context(), id, userIDFrom(r.Context()), req.Version, req.GoalInput)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (api *API) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := api.Goals.Delete(r.Context(), id, userIDFrom(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
