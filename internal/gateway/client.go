package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	CommandCheck  = "check"
	CommandOn     = "on"
	CommandOff    = "off"
	CommandStatus = "status"
	CommandKick   = "kick"
)

const (
	SentinelActive   = "ACTIVE"
	SentinelInactive = "INACTIVE"
	SuccessMarker    = "SUCCESS"
)

//go:generate mockgen -source=client.go -destination=mock/client.go -package=mock Client

// Client issues commands to the network gateway and returns its raw text.
type Client interface {
	Check(ctx context.Context) (string, error)
	On(ctx context.Context) (string, error)
	Off(ctx context.Context) error
	Status(ctx context.Context) (string, error)
	Kick(ctx context.Context, mac string) error
}

// ScriptClient drives the hotspot control script: `<script> <command> [mac]`.
type ScriptClient struct {
	script string
	runner Runner
	logger *slog.Logger
}

func NewScriptClient(script string, runner Runner, logger *slog.Logger) *ScriptClient {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScriptClient{script: script, runner: runner, logger: logger.With("component", "gateway")}
}

func (c *ScriptClient) Check(ctx context.Context) (string, error) {
	return c.run(ctx, CommandCheck)
}

func (c *ScriptClient) On(ctx context.Context) (string, error) {
	return c.run(ctx, CommandOn)
}

// Off is fire-and-forget; only a failure to launch the script is reported.
func (c *ScriptClient) Off(ctx context.Context) error {
	_, err := c.run(ctx, CommandOff)
	return err
}

func (c *ScriptClient) Status(ctx context.Context) (string, error) {
	return c.run(ctx, CommandStatus)
}

// Kick is fire-and-forget like Off. mac is passed through exactly as the
// roster reported it; only targets the script would read as flags are refused.
func (c *ScriptClient) Kick(ctx context.Context, mac string) error {
	mac = strings.TrimSpace(mac)
	if mac == "" || strings.HasPrefix(mac, "-") || strings.ContainsAny(mac, " \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidMAC, mac)
	}
	_, err := c.run(ctx, CommandKick, mac)
	return err
}

func (c *ScriptClient) run(ctx context.Context, args ...string) (string, error) {
	out, err := c.runner.Output(ctx, c.script, args...)
	if err != nil {
		c.logger.Error("gateway invocation failed", "command", args[0], "err", err)
		return out, &InvocationError{Command: args[0], Output: out, Err: err}
	}
	return out, nil
}

// IsActive reports whether a check result is the active sentinel.
func IsActive(out string) bool {
	return strings.TrimSpace(out) == SentinelActive
}

// StartSucceeded reports whether an `on` result carries the success marker.
func StartSucceeded(out string) bool {
	return strings.Contains(out, SuccessMarker)
}

// IsInactiveRoster reports whether a status result is the inactive sentinel
// rather than a roster.
func IsInactiveRoster(out string) bool {
	return strings.TrimSpace(out) == SentinelInactive
}
