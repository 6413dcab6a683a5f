// Package reconcile turns one gateway roster plus the current policy into the
// client list shown to the operator and the kicks needed to enforce policy.
package reconcile

import (
	"strings"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/gateway"
	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/model"
)

// VendorLookup resolves a MAC to a hardware vendor name.
type VendorLookup interface {
	Lookup(mac string) string
}

// Result is the outcome of one reconciliation tick.
type Result struct {
	Clients []model.ClientRecord
	Actions []model.KickAction
	// Inactive is set when the gateway answered with the inactive sentinel
	// instead of a roster; Clients then carries the previous list unchanged.
	Inactive bool
}

// Engine is stateless; one instance is shared across ticks.
type Engine struct {
	vendors VendorLookup
}

func New(vendors VendorLookup) *Engine {
	return &Engine{vendors: vendors}
}

// Reconcile applies the blacklist and the capacity limit to raw. It never
// talks to the gateway: returned actions are executed by the caller.
func (e *Engine) Reconcile(raw string, pol model.Policy, previous []model.ClientRecord) Result {
	if gateway.IsInactiveRoster(raw) {
		return Result{Clients: previous, Inactive: true}
	}

	var (
		clients []model.ClientRecord
		actions []model.KickAction
	)
	for _, rec := range ParseRoster(raw) {
		if pol.IsBlacklisted(rec.MAC) {
			actions = append(actions, model.KickAction{MAC: rec.MAC, Reason: model.KickReasonBlacklist, Client: rec})
			continue
		}
		rec.DisplayName = DisplayName(rec, pol)
		if e.vendors != nil {
			if vendor := e.vendors.Lookup(rec.MAC); vendor != model.UnknownName {
				rec.Vendor = vendor
			}
		}
		clients = append(clients, rec)
	}

	// One eviction per tick: the newest connection goes. Any remaining excess
	// is handled on the following ticks once the kicked client drops off.
	if len(clients) > pol.Limit {
		victim := clients[len(clients)-1]
		actions = append(actions, model.KickAction{MAC: victim.MAC, Reason: model.KickReasonCapacity, Client: victim})
		clients = clients[:len(clients)-1]
	}

	if clients == nil {
		clients = []model.ClientRecord{}
	}
	return Result{Clients: clients, Actions: actions}
}

// ParseRoster decodes `mac|ip|name` lines in gateway order. Lines of any other
// shape are dropped.
func ParseRoster(raw string) []model.ClientRecord {
	lines := strings.Split(raw, "\n")
	out := make([]model.ClientRecord, 0, len(lines))
	for _, line := range lines {
		parts := strings.Split(strings.TrimRight(line, "\r"), "|")
		if len(parts) != 3 {
			continue
		}
		mac := strings.TrimSpace(parts[0])
		if mac == "" {
			continue
		}
		out = append(out, model.ClientRecord{
			MAC:        mac,
			IP:         strings.TrimSpace(parts[1]),
			SystemName: strings.TrimSpace(parts[2]),
		})
	}
	return out
}

// DisplayName prefers the user's alias, then the reported hostname, and
// synthesizes a name from the MAC when the result is the Unknown sentinel.
func DisplayName(rec model.ClientRecord, pol model.Policy) string {
	name, ok := pol.CustomName(rec.MAC)
	if !ok {
		name = rec.SystemName
	}
	if name == model.UnknownName {
		return FallbackName(rec.MAC)
	}
	return name
}

// FallbackName is "Device (<last five characters of mac>)".
func FallbackName(mac string) string {
	tail := mac
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}
	return "Device (" + tail + ")"
}
