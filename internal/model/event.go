package model

import "time"

// Event kinds pushed to live subscribers.
const (
	EventStatus           = "status"
	EventClients          = "clients"
	EventActivationFailed = "activation_failed"
)

// Event is one message on the live channel.
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data"`
	At   time.Time `json:"at"`
}
