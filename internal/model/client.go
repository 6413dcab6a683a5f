package model

import (
	"strings"
	"time"
)

// UnknownName is the sentinel the gateway reports for clients without a hostname.
const UnknownName = "Unknown"

// KickReason explains why a client was evicted.
type KickReason string

const (
	KickReasonBlacklist KickReason = "blacklist"
	KickReasonCapacity  KickReason = "capacity"
	KickReasonManual    KickReason = "manual"
)

// ClientRecord is one connected station as seen in a single reconciliation tick.
type ClientRecord struct {
	MAC         string `json:"mac"`
	IP          string `json:"ip"`
	SystemName  string `json:"system_name"`
	DisplayName string `json:"name"`
	Vendor      string `json:"vendor,omitempty"`
}

// KickAction is a corrective eviction emitted by the reconciler.
type KickAction struct {
	MAC    string       `json:"mac"`
	Reason KickReason   `json:"reason"`
	Client ClientRecord `json:"-"`
}

// KickEvent is the persisted audit row for an executed kick.
type KickEvent struct {
	ID          string     `json:"id"`
	MAC         string     `json:"mac"`
	IP          string     `json:"ip,omitempty"`
	DisplayName string     `json:"name,omitempty"`
	Reason      KickReason `json:"reason"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ClientSighting tracks the last time a MAC was surfaced in the client list.
type ClientSighting struct {
	MAC         string    `json:"mac"`
	LastIP      string    `json:"last_ip"`
	LastName    string    `json:"last_name"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// NormalizeMAC returns the canonical lower-case, colon separated key for a hardware address.
func NormalizeMAC(mac string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(mac, "-", ":")))
}
