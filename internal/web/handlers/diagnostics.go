package handlers

import (
	"net/http"

	"github.com/kozaktomas/campus-attendance/internal/events"
	"github.com/kozaktomas/campus-attendance/internal/roster"
	"github.com/kozaktomas/campus-attendance/internal/stats"
)

// RosterSource exposes the published roster snapshot.
type RosterSource interface {
	Current() *roster.Snapshot
}

// DiagnosticsHandler reports runtime counters.
type DiagnosticsHandler struct {
	counters *stats.Counters
	roster   RosterSource
	hub      *events.Hub
}

// NewDiagnosticsHandler creates a new diagnostics handler.
func NewDiagnosticsHandler(counters *stats.Counters, roster RosterSource, hub *events.Hub) *DiagnosticsHandler {
	return &DiagnosticsHandler{counters: counters, roster: roster, hub: hub}
}

type rosterInfo struct {
	Students int  `json:"students"`
	Indexed  bool `json:"indexed"`
}

type diagnosticsResponse struct {
	Counters         map[string]int64 `json:"counters"`
	Roster           rosterInfo       `json:"roster"`
	EventSubscribers int              `json:"event_subscribers"`
}

// Get returns counters, roster size and the number of event subscribers.
func (h *DiagnosticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.roster.Current()
	respondJSON(w, http.StatusOK, diagnosticsResponse{
		Counters:         h.counters.Snapshot(),
		Roster:           rosterInfo{Students: snap.Len(), Indexed: snap.Indexed()},
		EventSubscribers: h.hub.Len(),
	})
}
