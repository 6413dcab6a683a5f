package activation

import "errors"

var (
	// ErrTransitionInFlight is returned while a start or stop is still running.
	ErrTransitionInFlight = errors.New("activation transition already in progress")
	ErrAlreadyActive      = errors.New("hotspot already active")
	ErrNotActive          = errors.New("hotspot not active")
)

// StartError carries the gateway's diagnostic text for a failed start.
type StartError struct {
	Output string
}

func (e *StartError) Error() string {
	if e == nil || e.Output == "" {
		return "hotspot start failed"
	}
	return "hotspot start failed: " + e.Output
}
