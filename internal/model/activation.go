package model

import "time"

// ActivationPhase is the access point lifecycle state.
type ActivationPhase string

const (
	PhaseOff        ActivationPhase = "OFF"
	PhaseStarting   ActivationPhase = "STARTING"
	PhaseVerifying  ActivationPhase = "VERIFYING"
	PhaseOn         ActivationPhase = "ON"
	PhaseOnDegraded ActivationPhase = "ON_DEGRADED"
	PhaseStopping   ActivationPhase = "STOPPING"
	PhaseError      ActivationPhase = "ERROR"
)

// Active reports whether the phase counts as "on" for reconciliation and toggling.
func (p ActivationPhase) Active() bool {
	return p == PhaseOn || p == PhaseOnDegraded
}

// ActivationStatus is a point-in-time view of the activation controller.
type ActivationStatus struct {
	Phase       ActivationPhase `json:"phase"`
	Attempt     int             `json:"attempt,omitempty"`
	MaxAttempts int             `json:"max_attempts,omitempty"`
	Busy        bool            `json:"busy"`
	Diagnostic  string          `json:"diagnostic,omitempty"`
	ChangedAt   time.Time       `json:"changed_at"`
}
