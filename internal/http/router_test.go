package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/gateway"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/http/handlers"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/live"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/model"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/policy"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/service"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/services/activation"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/wifi"
)

type fakeService struct {
	transitionErr error
	intents       []activation.Intent
	kickErr       error
	kicked        []string
	renamed       map[string]string
	limit         int
	limitErr      error
	blacklistErr  error
	removed       []string
	forget        bool
	eventLimit    int
	wifiErr       error
	refreshed     int
}

func (f *fakeService) Status() service.StatusView {
	return service.StatusView{Activation: model.ActivationStatus{Phase: model.PhaseOn}, Limit: 5, ClientCount: 1, Version: "1.0"}
}

func (f *fakeService) RequestTransition(_ context.Context, intent activation.Intent) error {
	f.intents = append(f.intents, intent)
	return f.transitionErr
}

func (f *fakeService) Clients() []model.ClientRecord {
	return []model.ClientRecord{{MAC: "aa:bb:cc:dd:ee:01", IP: "10.42.0.2", SystemName: "phone", DisplayName: "phone"}}
}

func (f *fakeService) KickClient(_ context.Context, mac string) error {
	f.kicked = append(f.kicked, mac)
	return f.kickErr
}

func (f *fakeService) RenameClient(mac, name string) error {
	if strings.TrimSpace(name) == "" {
		return policy.ErrEmptyName
	}
	if f.renamed == nil {
		f.renamed = map[string]string{}
	}
	f.renamed[mac] = name
	return nil
}

func (f *fakeService) Policy() model.Policy {
	pol := model.DefaultPolicy()
	if f.limit > 0 {
		pol.Limit = f.limit
	}
	return pol
}

func (f *fakeService) SetLimit(limit int) error {
	if f.limitErr != nil {
		return f.limitErr
	}
	f.limit = limit
	return nil
}

func (f *fakeService) Blacklist() []service.BlacklistEntry {
	return []service.BlacklistEntry{{MAC: "aa:bb:cc:dd:ee:09", Name: model.UnknownName}}
}

func (f *fakeService) AddToBlacklist(context.Context, string) error { return f.blacklistErr }

func (f *fakeService) RemoveFromBlacklist(mac string, forgetName bool) error {
	f.removed = append(f.removed, mac)
	f.forget = forgetName
	return nil
}

func (f *fakeService) KickEvents(_ context.Context, limit int) ([]model.KickEvent, error) {
	f.eventLimit = limit
	return []model.KickEvent{{ID: "1", MAC: "aa:bb:cc:dd:ee:01", Reason: model.KickReasonCapacity}}, nil
}

func (f *fakeService) Sightings(context.Context) ([]model.ClientSighting, error) {
	return []model.ClientSighting{}, nil
}

func (f *fakeService) WiFi() (service.WiFiInfo, error) {
	if f.wifiErr != nil {
		return service.WiFiInfo{}, f.wifiErr
	}
	return service.WiFiInfo{SSID: "Lab", QRPayload: "WIFI:T:WPA;S:Lab;P:x;;"}, nil
}

func (f *fakeService) Refresh() { f.refreshed++ }

func newTestRouter(svc *fakeService, hub http.Handler) http.Handler {
	return NewRouter(handlers.New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))), hub)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestHealthAndStatus(t *testing.T) {
	h := newTestRouter(&fakeService{}, nil)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","hotspot":"ON"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"client_count":1`)
}

func TestTransitionAcceptedAndRejected(t *testing.T) {
	svc := &fakeService{}
	h := newTestRouter(svc, nil)

	rec := do(t, h, http.MethodPost, "/api/hotspot/toggle", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []activation.Intent{activation.IntentToggle}, svc.intents)

	svc.transitionErr = activation.ErrTransitionInFlight
	rec = do(t, h, http.MethodPost, "/api/hotspot/start", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "transition_in_flight", errorCode(t, rec))

	rec = do(t, h, http.MethodPost, "/api/hotspot/reboot", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientsEndpoints(t *testing.T) {
	svc := &fakeService{}
	h := newTestRouter(svc, nil)

	rec := do(t, h, http.MethodGet, "/api/clients", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mac":"aa:bb:cc:dd:ee:01"`)

	rec = do(t, h, http.MethodPost, "/api/clients/aa:bb:cc:dd:ee:01/kick", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"aa:bb:cc:dd:ee:01"}, svc.kicked)

	svc.kickErr = &gateway.InvocationError{Command: "kick", Err: errors.New("permission denied")}
	rec = do(t, h, http.MethodPost, "/api/clients/aa:bb:cc:dd:ee:01/kick", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/clients/aa:bb:cc:dd:ee:01/name", `{"name":"Phone"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Phone", svc.renamed["aa:bb:cc:dd:ee:01"])

	rec = do(t, h, http.MethodPut, "/api/clients/aa:bb:cc:dd:ee:01/name", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_name", errorCode(t, rec))

	rec = do(t, h, http.MethodPut, "/api/clients/aa:bb:cc:dd:ee:01/name", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPolicyEndpoints(t *testing.T) {
	svc := &fakeService{}
	h := newTestRouter(svc, nil)

	rec := do(t, h, http.MethodPut, "/api/policy/limit", `{"limit":9}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"limit":9`)

	rec = do(t, h, http.MethodPut, "/api/policy/limit", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.limitErr = policy.ErrInvalidLimit
	rec = do(t, h, http.MethodPut, "/api/policy/limit", `{"limit":99}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_limit", errorCode(t, rec))

	rec = do(t, h, http.MethodGet, "/api/policy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"custom_names"`)
}

func TestBlacklistEndpoints(t *testing.T) {
	svc := &fakeService{}
	h := newTestRouter(svc, nil)

	rec := do(t, h, http.MethodGet, "/api/blacklist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[{"mac":"aa:bb:cc:dd:ee:09","name":"Unknown"}]}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/blacklist/aa:bb:cc:dd:ee:09", "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	svc.blacklistErr = policy.ErrAlreadyBlacklisted
	rec = do(t, h, http.MethodPost, "/api/blacklist/aa:bb:cc:dd:ee:09", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/blacklist/aa:bb:cc:dd:ee:09?forget_name=true", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.forget)

	rec = do(t, h, http.MethodDelete, "/api/blacklist/aa:bb:cc:dd:ee:09?forget_name=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsWiFiRefresh(t *testing.T) {
	svc := &fakeService{}
	h := newTestRouter(svc, nil)

	rec := do(t, h, http.MethodGet, "/api/events?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, svc.eventLimit)

	rec = do(t, h, http.MethodGet, "/api/events?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/sightings", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/wifi", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"qr_payload":"WIFI:T:WPA;S:Lab;P:x;;"`)

	svc.wifiErr = wifi.ErrNotConfigured
	rec = do(t, h, http.MethodGet, "/api/wifi", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, svc.refreshed)
}

func TestIngressHeaderIsIgnored(t *testing.T) {
	h := newTestRouter(&fakeService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/hassio/ingress/abc/api/status", nil)
	req.Header.Set("X-Ingress-Path", "/hassio/ingress/abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebsocketThroughMiddleware(t *testing.T) {
	hub := live.NewHub(func() []model.Event {
		return []model.Event{{Type: model.EventStatus, Data: "hello"}}
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(newTestRouter(&fakeService{}, hub))
	defer srv.Close()
	defer hub.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt model.Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, model.EventStatus, evt.Type)
	assert.Equal(t, "hello", evt.Data)
}
