package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

func (a *API) GetPolicy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.service.Policy())
}

type limitPayload struct {
	Limit *int `json:"limit"`
}

func (a *API) SetLimit(w http.ResponseWriter, r *http.Request) {
	var payload limitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Limit == nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "limit is required")
		return
	}
	if err := a.service.SetLimit(*payload.Limit); err != nil {
		writeDomainError(w, err, "set_limit_failed")
		return
	}
	writeJSON(w, http.StatusOK, a.service.Policy())
}

func (a *API) ListBlacklist(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": a.service.Blacklist()})
}

// AddToBlacklist persists mac and kicks it if the hotspot is running.
func (a *API) AddToBlacklist(w http.ResponseWriter, r *http.Request, mac string) {
	if err := a.service.AddToBlacklist(r.Context(), mac); err != nil {
		writeDomainError(w, err, "blacklist_failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
}

// RemoveFromBlacklist honours ?forget_name=true to also drop the alias.
func (a *API) RemoveFromBlacklist(w http.ResponseWriter, r *http.Request, mac string) {
	forget := false
	if raw := strings.TrimSpace(r.URL.Query().Get("forget_name")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_forget_name", "forget_name must be true or false")
			return
		}
		forget = value
	}
	if err := a.service.RemoveFromBlacklist(mac, forget); err != nil {
		writeDomainError(w, err, "unblacklist_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
