// Package service is the operator-facing facade over the control loop. HTTP
// handlers and the live channel go through it and never touch the gateway directly.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/gateway"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/model"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/services/activation"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/wifi"
)

type Activation interface {
	Status() model.ActivationStatus
	Request(ctx context.Context, intent activation.Intent) error
}

// Roster is the poller as seen from the operator side.
type Roster interface {
	Clients() []model.ClientRecord
	Clear()
	TriggerRefresh()
}

type PolicyStore interface {
	Current() model.Policy
	SetLimit(limit int) error
	AddToBlacklist(mac string) error
	RemoveFromBlacklist(mac string, forgetName bool) error
	Rename(mac, name string) error
}

type EventStore interface {
	RecordKicks(ctx context.Context, actions []model.KickAction) error
	ListKickEvents(ctx context.Context, limit int) ([]model.KickEvent, error)
	ListSightings(ctx context.Context) ([]model.ClientSighting, error)
}

type Broadcaster interface {
	Broadcast(kind string, payload any)
}

// Deps groups collaborators. Events and Broadcaster may be nil.
type Deps struct {
	Activation  Activation
	Roster      Roster
	Policy      PolicyStore
	Gateway     gateway.Client
	Events      EventStore
	Broadcaster Broadcaster
	WiFiPath    string
	Version     string
}

type Service struct {
	deps   Deps
	logger *slog.Logger
}

func New(deps Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{deps: deps, logger: logger.With("component", "service")}
}

type StatusView struct {
	Activation  model.ActivationStatus `json:"activation"`
	Limit       int                    `json:"limit"`
	ClientCount int                    `json:"client_count"`
	Version     string                 `json:"version"`
}

type BlacklistEntry struct {
	MAC  string `json:"mac"`
	Name string `json:"name"`
}

type WiFiInfo struct {
	SSID      string `json:"ssid"`
	QRPayload string `json:"qr_payload"`
}

func (s *Service) Status() StatusView {
	return StatusView{
		Activation:  s.deps.Activation.Status(),
		Limit:       s.deps.Policy.Current().Limit,
		ClientCount: len(s.deps.Roster.Clients()),
		Version:     s.deps.Version,
	}
}

// RequestTransition hands intent to the activation worker and returns at once.
func (s *Service) RequestTransition(ctx context.Context, intent activation.Intent) error {
	return s.deps.Activation.Request(ctx, intent)
}

func (s *Service) Clients() []model.ClientRecord {
	return s.deps.Roster.Clients()
}

// KickClient disconnects mac once. The client may reconnect. Unlike kicks
// from the roster, operator input must be a well-formed hardware address.
func (s *Service) KickClient(ctx context.Context, mac string) error {
	mac = model.NormalizeMAC(mac)
	if _, err := net.ParseMAC(mac); err != nil {
		return fmt.Errorf("%w: %q", gateway.ErrInvalidMAC, mac)
	}
	if err := s.deps.Gateway.Kick(ctx, mac); err != nil {
		return err
	}
	s.logger.Info("client kicked by operator", "mac", mac)
	s.audit(ctx, mac, model.KickReasonManual)
	s.deps.Roster.TriggerRefresh()
	return nil
}

func (s *Service) RenameClient(mac, name string) error {
	if err := s.deps.Policy.Rename(mac, name); err != nil {
		return err
	}
	s.logger.Info("client renamed", "mac", model.NormalizeMAC(mac))
	s.deps.Roster.TriggerRefresh()
	return nil
}

func (s *Service) Policy() model.Policy {
	return s.deps.Policy.Current()
}

func (s *Service) SetLimit(limit int) error {
	if err := s.deps.Policy.SetLimit(limit); err != nil {
		return err
	}
	s.deps.Roster.TriggerRefresh()
	return nil
}

// Blacklist lists entries in stored order with the saved alias, if any.
func (s *Service) Blacklist() []BlacklistEntry {
	pol := s.deps.Policy.Current()
	out := make([]BlacklistEntry, 0, len(pol.Blacklist))
	for _, mac := range pol.Blacklist {
		name, ok := pol.CustomName(mac)
		if !ok {
			name = model.UnknownName
		}
		out = append(out, BlacklistEntry{MAC: mac, Name: name})
	}
	return out
}

// AddToBlacklist persists mac and, while the hotspot runs, kicks it right away
// instead of waiting for the next tick.
func (s *Service) AddToBlacklist(ctx context.Context, mac string) error {
	if err := s.deps.Policy.AddToBlacklist(mac); err != nil {
		return err
	}
	mac = model.NormalizeMAC(mac)
	if s.deps.Activation.Status().Phase.Active() {
		if err := s.deps.Gateway.Kick(ctx, mac); err != nil {
			s.logger.Warn("kick after blacklist failed", "mac", mac, "err", err)
		} else {
			s.audit(ctx, mac, model.KickReasonBlacklist)
		}
	}
	s.deps.Roster.TriggerRefresh()
	return nil
}

func (s *Service) RemoveFromBlacklist(mac string, forgetName bool) error {
	return s.deps.Policy.RemoveFromBlacklist(mac, forgetName)
}

func (s *Service) KickEvents(ctx context.Context, limit int) ([]model.KickEvent, error) {
	if s.deps.Events == nil {
		return []model.KickEvent{}, nil
	}
	return s.deps.Events.ListKickEvents(ctx, limit)
}

// Sightings returns every client ever seen, most recent first.
func (s *Service) Sightings(ctx context.Context) ([]model.ClientSighting, error) {
	if s.deps.Events == nil {
		return []model.ClientSighting{}, nil
	}
	items, err := s.deps.Events.ListSightings(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].LastSeenAt.After(items[j].LastSeenAt)
	})
	return items, nil
}

// WiFi reads the credentials file on every call so installer edits show up
// without a restart.
func (s *Service) WiFi() (WiFiInfo, error) {
	creds, err := wifi.Load(s.deps.WiFiPath)
	if err != nil {
		return WiFiInfo{}, err
	}
	return WiFiInfo{SSID: creds.SSID, QRPayload: creds.QRPayload()}, nil
}

func (s *Service) Refresh() {
	s.deps.Roster.TriggerRefresh()
}

// HandleActivationChange is registered as the activation listener. It clears
// the client list as soon as the hotspot goes down and republishes status.
func (s *Service) HandleActivationChange(status model.ActivationStatus) {
	switch status.Phase {
	case model.PhaseStopping, model.PhaseOff:
		if len(s.deps.Roster.Clients()) > 0 {
			s.deps.Roster.Clear()
		}
	case model.PhaseOn, model.PhaseOnDegraded:
		if !status.Busy {
			s.deps.Roster.TriggerRefresh()
		}
	}
	s.broadcast(model.EventStatus, s.Status())
	if status.Phase == model.PhaseError && status.Diagnostic != "" && status.Busy {
		s.broadcast(model.EventActivationFailed, map[string]string{"diagnostic": status.Diagnostic})
	}
}

// Snapshot is what a new live subscriber sees first.
func (s *Service) Snapshot() []model.Event {
	return []model.Event{
		{Type: model.EventStatus, Data: s.Status()},
		{Type: model.EventClients, Data: s.Clients()},
	}
}

func (s *Service) audit(ctx context.Context, mac string, reason model.KickReason) {
	if s.deps.Events == nil {
		return
	}
	client := model.ClientRecord{MAC: mac}
	for _, c := range s.deps.Roster.Clients() {
		if model.NormalizeMAC(c.MAC) == mac {
			client = c
			break
		}
	}
	action := model.KickAction{MAC: mac, Reason: reason, Client: client}
	if err := s.deps.Events.RecordKicks(ctx, []model.KickAction{action}); err != nil {
		s.logger.Error("record kick failed", "mac", mac, "err", err)
	}
}
