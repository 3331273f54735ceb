package httpapi

import (
	"net/http"
)

type createAttachmentRequest struct {
	FileName string `json:"file_name"`
}

func (api *API) handleCreateAttachment(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req createAttachmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	task, err := api.Attachments.CreateUpload(r.Context(), userIDFrom(r.Context()), entryID, req.FileName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (api *API) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := api.Attachments.ListByEntry(r.Context(), userIDFrom(r.Context()), entryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *API) handleConfirmAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := api.Attachments.ConfirmUpload(r.Context(), userIDFrom(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *API) handleDownloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	url, err := api.Attachments.GetDownloadURL(r.Context(), userIDFrom(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"download_url": url})
}
