package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/coach-notify/internal/api/respond"
	"github.com/albapepper/coach-notify/internal/notifications"
)

// DispatchEvent re-drives one stored record through the single-event
// dispatcher. Skips and send failures are reported in the body with 200;
// only an unloadable record is an HTTP error.
func (h *Handler) DispatchEvent(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	outcome := h.Dispatcher.Dispatch(r.Context(), event)
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"kind":    event.Kind(),
		"id":      event.EventID(),
		"outcome": outcome,
	})
}

// PreviewEvent composes the message for one stored record without sending.
func (h *Handler) PreviewEvent(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	msg, outcome, err := h.Dispatcher.Prepare(r.Context(), event)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadGateway, "PREPARE_FAILED", "Could not compose message", err.Error())
		return
	}
	body := map[string]interface{}{
		"kind": event.Kind(),
		"id":   event.EventID(),
	}
	if outcome != "" {
		body["outcome"] = outcome
	} else {
		body["message"] = msg
	}
	respond.WriteJSONObject(w, http.StatusOK, body)
}

func (h *Handler) loadEvent(w http.ResponseWriter, r *http.Request) (notifications.Event, bool) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	event, err := notifications.LoadEvent(r.Context(), h.Store, collection, id)
	switch {
	case errors.Is(err, notifications.ErrUnknownCollection):
		respond.WriteErrorDetail(w, http.StatusBadRequest, "UNKNOWN_COLLECTION", "Collection does not produce notifications", collection)
		return nil, false
	case err != nil:
		respond.WriteErrorDetail(w, http.StatusBadGateway, "STORE_ERROR", "Could not load record", err.Error())
		return nil, false
	case event == nil:
		respond.WriteErrorDetail(w, http.StatusNotFound, "NOT_FOUND", "Record not found", collection+"/"+id)
		return nil, false
	}
	return event, true
}
