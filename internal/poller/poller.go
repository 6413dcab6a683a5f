// Package poller drives reconciliation ticks while the hotspot is running.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/gateway"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/model"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/services/reconcile"
)

const DefaultInterval = 3 * time.Second

var (
	ErrPollingPaused = errors.New("polling paused: hotspot not running")
	ErrTickInFlight  = errors.New("reconciliation tick already in flight")
)

// Gate reports whether reconciliation may run right now.
type Gate interface {
	PollingAllowed() bool
}

// PolicySource hands out policy snapshots.
type PolicySource interface {
	Current() model.Policy
}

// Recorder persists tick side effects. Failures never stop the loop.
type Recorder interface {
	RecordKicks(ctx context.Context, actions []model.KickAction) error
	UpsertSightings(ctx context.Context, clients []model.ClientRecord) error
}

// Broadcaster pushes events to live subscribers.
type Broadcaster interface {
	Broadcast(kind string, payload any)
}

// Deps groups the collaborators of a Poller. Recorder and Broadcaster are optional.
type Deps struct {
	Engine      *reconcile.Engine
	Gateway     gateway.Client
	Policy      PolicySource
	Gate        Gate
	Recorder    Recorder
	Broadcaster Broadcaster
}

type Poller struct {
	deps      Deps
	interval  time.Duration
	refreshCh chan struct{}
	logger    *slog.Logger

	inFlight atomic.Bool
	ticks    sync.WaitGroup

	mu      sync.RWMutex
	clients []model.ClientRecord
}

func New(deps Deps, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		deps:      deps,
		interval:  interval,
		refreshCh: make(chan struct{}, 1),
		logger:    logger.With("component", "poller"),
		clients:   []model.ClientRecord{},
	}
}

// TriggerRefresh requests an out-of-band tick. Requests coalesce.
func (p *Poller) TriggerRefresh() {
	select {
	case p.refreshCh <- struct{}{}:
	default:
	}
}

// Run fires a tick every interval (or on refresh) until ctx is done. Ticks
// run on their own goroutine; a firing that finds one still running is skipped.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.refreshCh:
		case <-ticker.C:
		}
		p.dispatch(ctx)
	}
}

// Wait blocks until the in-flight tick, if any, has returned.
func (p *Poller) Wait() {
	p.ticks.Wait()
}

// PollOnce runs one tick on the calling goroutine under the same guards as Run.
func (p *Poller) PollOnce(ctx context.Context) error {
	if !p.deps.Gate.PollingAllowed() {
		return ErrPollingPaused
	}
	if !p.inFlight.CompareAndSwap(false, true) {
		return ErrTickInFlight
	}
	defer p.inFlight.Store(false)
	return p.tick(ctx)
}

// Clients returns a copy of the latest display list.
func (p *Poller) Clients() []model.ClientRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]model.ClientRecord, len(p.clients))
	copy(out, p.clients)
	return out
}

// Clear empties the display list, used as soon as the hotspot stops.
func (p *Poller) Clear() {
	p.setClients([]model.ClientRecord{})
	p.broadcast(model.EventClients, []model.ClientRecord{})
}

func (p *Poller) dispatch(ctx context.Context) {
	if !p.deps.Gate.PollingAllowed() {
		return
	}
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.Debug("tick skipped; previous tick still running")
		return
	}
	p.ticks.Add(1)
	go func() {
		defer p.ticks.Done()
		defer p.inFlight.Store(false)
		if err := p.tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Warn("reconciliation tick failed", "err", err)
		}
	}()
}

func (p *Poller) tick(ctx context.Context) error {
	raw, err := p.deps.Gateway.Status(ctx)
	if err != nil {
		return err
	}

	result := p.deps.Engine.Reconcile(raw, p.deps.Policy.Current(), p.Clients())
	if result.Inactive {
		p.logger.Debug("gateway reported inactive roster")
		return nil
	}

	executed := make([]model.KickAction, 0, len(result.Actions))
	for _, action := range result.Actions {
		if err := p.deps.Gateway.Kick(ctx, action.MAC); err != nil {
			p.logger.Warn("kick failed", "mac", action.MAC, "reason", action.Reason, "err", err)
			continue
		}
		p.logger.Info("client kicked", "mac", action.MAC, "reason", action.Reason)
		executed = append(executed, action)
	}

	if p.deps.Recorder != nil {
		if len(executed) > 0 {
			if err := p.deps.Recorder.RecordKicks(ctx, executed); err != nil {
				p.logger.Error("record kicks failed", "err", err)
			}
		}
		if err := p.deps.Recorder.UpsertSightings(ctx, result.Clients); err != nil {
			p.logger.Error("record sightings failed", "err", err)
		}
	}

	if !p.publish(result.Clients) {
		return nil
	}
	p.broadcast(model.EventClients, result.Clients)
	return nil
}

// publish stores clients unless a stop has landed since the tick began. The
// gate is read under mu so a concurrent Clear cannot be overwritten.
func (p *Poller) publish(clients []model.ClientRecord) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.deps.Gate.PollingAllowed() {
		return false
	}
	p.clients = clients
	return true
}

func (p *Poller) setClients(clients []model.ClientRecord) {
	p.mu.Lock()
	p.clients = clients
	p.mu.Unlock()
}

func (p *Poller) broadcast(kind string, payload any) {
	if p.deps.Broadcaster != nil {
		p.deps.Broadcaster.Broadcast(kind, payload)
	}
}
