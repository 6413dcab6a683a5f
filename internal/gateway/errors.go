package gateway

import (
	"errors"
	"fmt"
)

// ErrInvalidMAC is returned when a kick target is not a hardware address.
var ErrInvalidMAC = errors.New("invalid mac address")

// InvocationError means the control script could not be run at all.
type InvocationError struct {
	Command string
	Output  string
	Err     error
}

func (e *InvocationError) Error() string {
	if e == nil {
		return "gateway invocation failed"
	}
	return fmt.Sprintf("gateway %s: %v", e.Command, e.Err)
}

func (e *InvocationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Diagnostic returns the most useful text for an operator: captured output
// when there is any, otherwise the launch error itself.
func (e *InvocationError) Diagnostic() string {
	if e == nil {
		return ""
	}
	if e.Output != "" {
		return e.Output
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}
