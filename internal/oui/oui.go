// Package oui maps hardware address prefixes to vendor names.
package oui

import (
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/model"
)

//go:embed data/oui.json
var embeddedDB []byte

// RandomizedVendor is reported for locally administered (privacy) addresses,
// which phones use per network and which never match a registered prefix.
const RandomizedVendor = "Private address"

type DB struct {
	vendors map[string]string
}

func LoadEmbedded() (*DB, error) {
	return Load(embeddedDB)
}

func Load(data []byte) (*DB, error) {
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	normalized := make(map[string]string, len(m))
	for k, v := range m {
		normalized[prefix(k)] = strings.TrimSpace(v)
	}
	return &DB{vendors: normalized}, nil
}

// Lookup returns the vendor for mac or model.UnknownName.
func (db *DB) Lookup(mac string) string {
	if db == nil {
		return model.UnknownName
	}
	p := prefix(mac)
	if vendor, ok := db.vendors[p]; ok && vendor != "" {
		return vendor
	}
	if locallyAdministered(p) {
		return RandomizedVendor
	}
	return model.UnknownName
}

func prefix(v string) string {
	replacer := strings.NewReplacer(":", "", "-", "", ".", "")
	v = strings.ToUpper(strings.TrimSpace(replacer.Replace(v)))
	if len(v) >= 6 {
		return v[:6]
	}
	return v
}

// locallyAdministered checks the U/L bit of the first octet.
func locallyAdministered(p string) bool {
	if len(p) < 2 {
		return false
	}
	b, err := hex.DecodeString(p[:2])
	if err != nil {
		return false
	}
	return b[0]&0x02 != 0
}
