package httpapi

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

type chatRequest struct {
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	Message        string     `json:"message"`
}

func (api *API) handleChat(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := api.Chat.SendMessage(r.Context(), userIDFrom(r.Context()), id, req.ConversationID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (api *API) handleRequestRefine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entry, err := api.Chat.RequestRefine(r.Context(), userIDFrom(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, entry)
}

func (api *API) handleProcessRefines(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	n, err := api.Chat.ProcessPendingRefines(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"processed": n})
}
