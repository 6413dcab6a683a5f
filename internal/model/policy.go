package model

import "slices"

const (
	DefaultLimit = 5
	MinLimit     = 1
	MaxLimit     = 50
)

// Policy is the durable access policy applied on every reconciliation tick.
type Policy struct {
	Limit       int               `json:"limit"`
	Blacklist   []string          `json:"blacklist"`
	CustomNames map[string]string `json:"custom_names"`
}

// DefaultPolicy returns the policy used when nothing usable is on disk.
func DefaultPolicy() Policy {
	return Policy{
		Limit:       DefaultLimit,
		Blacklist:   []string{},
		CustomNames: map[string]string{},
	}
}

// Normalize canonicalizes MAC keys, drops duplicate blacklist entries and
// replaces an out-of-range limit with the default.
func (p Policy) Normalize() Policy {
	out := Policy{
		Limit:       p.Limit,
		Blacklist:   make([]string, 0, len(p.Blacklist)),
		CustomNames: make(map[string]string, len(p.CustomNames)),
	}
	if out.Limit < MinLimit {
		out.Limit = DefaultLimit
	}
	for _, mac := range p.Blacklist {
		mac = NormalizeMAC(mac)
		if mac == "" || slices.Contains(out.Blacklist, mac) {
			continue
		}
		out.Blacklist = append(out.Blacklist, mac)
	}
	for mac, name := range p.CustomNames {
		mac = NormalizeMAC(mac)
		if mac == "" {
			continue
		}
		out.CustomNames[mac] = name
	}
	return out
}

// Clone returns a deep copy safe to hand to another goroutine.
func (p Policy) Clone() Policy {
	out := Policy{
		Limit:       p.Limit,
		Blacklist:   slices.Clone(p.Blacklist),
		CustomNames: make(map[string]string, len(p.CustomNames)),
	}
	if out.Blacklist == nil {
		out.Blacklist = []string{}
	}
	for mac, name := range p.CustomNames {
		out.CustomNames[mac] = name
	}
	return out
}

func (p Policy) IsBlacklisted(mac string) bool {
	return slices.Contains(p.Blacklist, NormalizeMAC(mac))
}

// CustomName returns the user alias for mac, if any.
func (p Policy) CustomName(mac string) (string, bool) {
	name, ok := p.CustomNames[NormalizeMAC(mac)]
	return name, ok
}
