package handlers

import (
	"net/http"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/events"
)

const keepAliveInterval = 25 * time.Second

// EventsHandler streams attendance events as Server-Sent Events.
type EventsHandler struct {
	hub *events.Hub
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream forwards hub events until the client disconnects.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := setupSSEConnection(w)
	if !ok {
		return
	}

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	sendSSEEvent(w, flusher, "ready", map[string]string{"subscription": sub.ID})

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			sendSSEComment(w, flusher, "ping")
		case e, ok := <-sub.Events:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, e.Type, e)
		}
	}
}
