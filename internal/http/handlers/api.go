package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/gateway"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/model"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/policy"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/service"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/services/activation"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/wifi"
)

// Service is the control-loop facade the handlers drive.
type Service interface {
	Status() service.StatusView
	RequestTransition(ctx context.Context, intent activation.Intent) error
	Clients() []model.ClientRecord
	KickClient(ctx context.Context, mac string) error
	RenameClient(mac, name string) error
	Policy() model.Policy
	SetLimit(limit int) error
	Blacklist() []service.BlacklistEntry
	AddToBlacklist(ctx context.Context, mac string) error
	RemoveFromBlacklist(mac string, forgetName bool) error
	KickEvents(ctx context.Context, limit int) ([]model.KickEvent, error)
	Sightings(ctx context.Context) ([]model.ClientSighting, error)
	WiFi() (service.WiFiInfo, error)
	Refresh()
}

// API groups HTTP handlers and dependencies.
type API struct {
	service Service
	logger  *slog.Logger
}

// New creates HTTP handlers with explicit dependencies.
func New(svc Service, logger *slog.Logger) *API {
	return &API{service: svc, logger: logger}
}

// Logger returns request logger used by HTTP middleware.
func (a *API) Logger() *slog.Logger {
	return a.logger
}

// Health reports liveness and the current activation phase.
func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "hotspot": a.service.Status().Activation.Phase})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

// writeDomainError maps known errors to status codes; anything else is a 500
// with fallbackCode.
func writeDomainError(w http.ResponseWriter, err error, fallbackCode string) {
	var invErr *gateway.InvocationError
	switch {
	case errors.Is(err, policy.ErrInvalidMAC), errors.Is(err, gateway.ErrInvalidMAC):
		writeError(w, http.StatusBadRequest, "invalid_mac", err.Error())
	case errors.Is(err, policy.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "invalid_limit", err.Error())
	case errors.Is(err, policy.ErrEmptyName):
		writeError(w, http.StatusBadRequest, "invalid_name", err.Error())
	case errors.Is(err, policy.ErrAlreadyBlacklisted):
		writeError(w, http.StatusConflict, "already_blacklisted", err.Error())
	case errors.Is(err, policy.ErrNotBlacklisted):
		writeError(w, http.StatusNotFound, "not_blacklisted", err.Error())
	case errors.Is(err, activation.ErrTransitionInFlight):
		writeError(w, http.StatusConflict, "transition_in_flight", err.Error())
	case errors.Is(err, activation.ErrAlreadyActive):
		writeError(w, http.StatusConflict, "already_active", err.Error())
	case errors.Is(err, activation.ErrNotActive):
		writeError(w, http.StatusConflict, "not_active", err.Error())
	case errors.Is(err, wifi.ErrNotConfigured):
		writeError(w, http.StatusNotFound, "wifi_not_configured", err.Error())
	case errors.Is(err, wifi.ErrInvalidCredentials):
		writeError(w, http.StatusUnprocessableEntity, "wifi_invalid", err.Error())
	case errors.As(err, &invErr):
		writeError(w, http.StatusBadGateway, "gateway_failed", invErr.Diagnostic())
	default:
		writeError(w, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}
