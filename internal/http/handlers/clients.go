package handlers

import (
	"encoding/json"
	"net/http"
)

// ListClients returns the reconciled client list from the latest tick.
func (a *API) ListClients(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": a.service.Clients()})
}

// KickClient disconnects one client once.
func (a *API) KickClient(w http.ResponseWriter, r *http.Request, mac string) {
	if err := a.service.KickClient(r.Context(), mac); err != nil {
		writeDomainError(w, err, "kick_failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

type renamePayload struct {
	Name string `json:"name"`
}

// RenameClient stores a display alias for mac.
func (a *API) RenameClient(w http.ResponseWriter, r *http.Request, mac string) {
	var payload renamePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if err := a.service.RenameClient(mac, payload.Name); err != nil {
		writeDomainError(w, err, "rename_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
