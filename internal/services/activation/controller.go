// Package activation owns the hotspot on/off lifecycle and decides when the
// reconciliation loop may talk to the gateway.
package activation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/gateway"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/model"
)

const (
	DefaultVerifyAttempts = 15
	DefaultVerifyInterval = time.Second
)

// Intent is what the operator asked for.
type Intent string

const (
	IntentStart  Intent = "start"
	IntentStop   Intent = "stop"
	IntentToggle Intent = "toggle"
)

type Options struct {
	VerifyAttempts int
	VerifyInterval time.Duration
}

func (o Options) normalize() Options {
	if o.VerifyAttempts <= 0 {
		o.VerifyAttempts = DefaultVerifyAttempts
	}
	if o.VerifyInterval <= 0 {
		o.VerifyInterval = DefaultVerifyInterval
	}
	return o
}

// Listener observes every status change. It is called synchronously from the
// goroutine performing the transition and must not block.
type Listener func(model.ActivationStatus)

type Controller struct {
	gateway gateway.Client
	opts    Options
	logger  *slog.Logger

	busy    atomic.Bool
	workers sync.WaitGroup

	mu        sync.RWMutex
	status    model.ActivationStatus
	listeners []Listener
}

func New(gw gateway.Client, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		gateway: gw,
		opts:    opts.normalize(),
		logger:  logger.With("component", "activation"),
		status:  model.ActivationStatus{Phase: model.PhaseOff, ChangedAt: time.Now().UTC()},
	}
}

// OnChange registers fn for status updates.
func (c *Controller) OnChange(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) Status() model.ActivationStatus {
	c.mu.RLock()
	status := c.status
	c.mu.RUnlock()
	status.Busy = c.busy.Load()
	return status
}

// PollingAllowed gates the reconciliation loop: only a running hotspot is polled.
func (c *Controller) PollingAllowed() bool {
	return c.Status().Phase.Active()
}

// Sync adopts whatever the gateway currently reports.
func (c *Controller) Sync(ctx context.Context) (model.ActivationPhase, error) {
	out, err := c.gateway.Check(ctx)
	if err != nil {
		c.set(model.PhaseError, 0, diagnostic(out, err))
		return model.PhaseError, err
	}
	phase := model.PhaseOff
	if gateway.IsActive(out) {
		phase = model.PhaseOn
	}
	c.set(phase, 0, "")
	c.logger.Info("hotspot state synced", "state", phase)
	return phase, nil
}

// Start runs the start transition on the calling goroutine.
func (c *Controller) Start(ctx context.Context) error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrTransitionInFlight
	}
	defer c.release()
	return c.start(ctx)
}

// Stop runs the stop transition on the calling goroutine.
func (c *Controller) Stop(ctx context.Context) error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrTransitionInFlight
	}
	defer c.release()
	return c.stop(ctx)
}

// Request validates intent and runs the transition on a dedicated worker. The
// worker is detached from ctx cancellation: once started it runs to completion.
func (c *Controller) Request(ctx context.Context, intent Intent) error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrTransitionInFlight
	}

	active := c.Status().Phase.Active()
	var run func(context.Context) error
	switch {
	case intent == IntentStart && active:
		c.busy.Store(false)
		return ErrAlreadyActive
	case intent == IntentStop && c.Status().Phase == model.PhaseOff:
		c.busy.Store(false)
		return ErrNotActive
	case intent == IntentStop, intent == IntentToggle && active:
		run = c.stop
	default:
		run = c.start
	}

	c.notify()
	workerCtx := context.WithoutCancel(ctx)
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		defer c.release()
		if err := run(workerCtx); err != nil {
			c.logger.Warn("activation transition finished with error", "intent", intent, "err", err)
		}
	}()
	return nil
}

// Wait blocks until background transitions have finished.
func (c *Controller) Wait() {
	c.workers.Wait()
}

func (c *Controller) start(ctx context.Context) error {
	if c.Status().Phase.Active() {
		return ErrAlreadyActive
	}
	c.logger.Info("hotspot start requested")
	c.set(model.PhaseStarting, 0, "")

	out, err := c.gateway.On(ctx)
	if err != nil || !gateway.StartSucceeded(out) {
		diag := diagnostic(out, err)
		c.logger.Error("hotspot start failed", "output", diag)
		c.set(model.PhaseError, 0, diag)
		c.recheck(ctx, diag)
		return &StartError{Output: diag}
	}

	c.logger.Info("hotspot start reported success; verifying")
	for attempt := 1; attempt <= c.opts.VerifyAttempts; attempt++ {
		c.set(model.PhaseVerifying, attempt, "")
		if err := sleep(ctx, c.opts.VerifyInterval); err != nil {
			c.set(model.PhaseOnDegraded, 0, "")
			return err
		}
		out, err := c.gateway.Check(ctx)
		if err != nil {
			c.logger.Warn("verification check failed", "attempt", attempt, "err", err)
			continue
		}
		if gateway.IsActive(out) {
			c.set(model.PhaseOn, 0, "")
			c.logger.Info("hotspot verified active", "attempt", attempt)
			return nil
		}
	}

	c.set(model.PhaseOnDegraded, 0, "")
	c.logger.Warn("hotspot not confirmed active; assuming slow start", "attempts", c.opts.VerifyAttempts)
	return nil
}

// recheck settles on the gateway's own answer after a failed start so a bogus
// failure report does not leave the controller in the wrong state.
func (c *Controller) recheck(ctx context.Context, diag string) {
	out, err := c.gateway.Check(ctx)
	if err != nil {
		c.logger.Error("post-failure check failed", "err", err)
		return
	}
	phase := model.PhaseOff
	if gateway.IsActive(out) {
		phase = model.PhaseOn
	}
	c.set(phase, 0, diag)
}

func (c *Controller) stop(ctx context.Context) error {
	if c.Status().Phase == model.PhaseOff {
		return ErrNotActive
	}
	c.logger.Info("hotspot stop requested")
	c.set(model.PhaseStopping, 0, "")
	if err := c.gateway.Off(ctx); err != nil {
		c.logger.Warn("off command could not be issued", "err", err)
	}
	c.set(model.PhaseOff, 0, "")
	return nil
}

func (c *Controller) set(phase model.ActivationPhase, attempt int, diag string) {
	c.mu.Lock()
	c.status = model.ActivationStatus{
		Phase:      phase,
		Attempt:    attempt,
		Diagnostic: diag,
		ChangedAt:  time.Now().UTC(),
	}
	if phase == model.PhaseVerifying {
		c.status.MaxAttempts = c.opts.VerifyAttempts
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) release() {
	c.busy.Store(false)
	c.notify()
}

func (c *Controller) notify() {
	status := c.Status()
	c.mu.RLock()
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.RUnlock()
	for _, fn := range listeners {
		fn(status)
	}
}

func diagnostic(out string, err error) string {
	var invErr *gateway.InvocationError
	if errors.As(err, &invErr) {
		return invErr.Diagnostic()
	}
	if out == "" && err != nil {
		return err.Error()
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
