package handlers

import (
	"net/http"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/services/activation"
)

// Status returns activation state, limit, client count and version.
func (a *API) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.service.Status())
}

// Transition accepts toggle, start or stop. The transition runs in the
// background; progress is visible via Status and the live channel.
func (a *API) Transition(w http.ResponseWriter, r *http.Request, raw string) {
	intent := activation.Intent(raw)
	switch intent {
	case activation.IntentToggle, activation.IntentStart, activation.IntentStop:
	default:
		writeError(w, http.StatusNotFound, "unknown_intent", "intent must be toggle, start or stop")
		return
	}
	if err := a.service.RequestTransition(r.Context(), intent); err != nil {
		writeDomainError(w, err, "transition_failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "intent": intent})
}

// Refresh triggers immediate poll cycle asynchronously.
func (a *API) Refresh(w http.ResponseWriter, _ *http.Request) {
	a.service.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

// WiFi returns the SSID and the join payload for rendering a QR code.
func (a *API) WiFi(w http.ResponseWriter, _ *http.Request) {
	info, err := a.service.WiFi()
	if err != nil {
		writeDomainError(w, err, "wifi_failed")
		return
	}
	writeJSON(w, http.StatusOK, info)
}
