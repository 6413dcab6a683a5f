package reconcile

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gibekkk/Linux-Hotspot-Manager/internal/model"
)

const twoClients = "aa:bb:cc:dd:ee:ff|10.0.0.2|phone\n11:22:33:44:55:66|10.0.0.3|Unknown"

type staticVendors map[string]string

func (v staticVendors) Lookup(mac string) string {
	if vendor, ok := v[mac]; ok {
		return vendor
	}
	return model.UnknownName
}

func policy(limit int, blacklist ...string) model.Policy {
	p := model.DefaultPolicy()
	p.Limit = limit
	p.Blacklist = append(p.Blacklist, blacklist...)
	return p.Normalize()
}

func TestReconcileWithinLimit(t *testing.T) {
	res := New(nil).Reconcile(twoClients, policy(5), nil)

	require.Equal(t, []model.ClientRecord{
		{MAC: "aa:bb:cc:dd:ee:ff", IP: "10.0.0.2", SystemName: "phone", DisplayName: "phone"},
		{MAC: "11:22:33:44:55:66", IP: "10.0.0.3", SystemName: "Unknown", DisplayName: "Device (55:66)"},
	}, res.Clients)
	assert.Empty(t, res.Actions)
	assert.False(t, res.Inactive)
}

func TestReconcileKicksBlacklisted(t *testing.T) {
	res := New(nil).Reconcile(twoClients, policy(5, "11:22:33:44:55:66"), nil)

	require.Len(t, res.Actions, 1)
	assert.Equal(t, "11:22:33:44:55:66", res.Actions[0].MAC)
	assert.Equal(t, model.KickReasonBlacklist, res.Actions[0].Reason)
	require.Len(t, res.Clients, 1)
	assert.Equal(t, "phone", res.Clients[0].DisplayName)
}

func TestReconcileBlacklistIsCaseInsensitive(t *testing.T) {
	res := New(nil).Reconcile(twoClients, policy(5, "AA:BB:CC:DD:EE:FF"), nil)

	require.Len(t, res.Actions, 1)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", res.Actions[0].MAC)
}

func TestReconcileEvictsLastOverLimit(t *testing.T) {
	res := New(nil).Reconcile(twoClients, policy(1), nil)

	require.Len(t, res.Actions, 1)
	assert.Equal(t, "11:22:33:44:55:66", res.Actions[0].MAC)
	assert.Equal(t, model.KickReasonCapacity, res.Actions[0].Reason)
	require.Len(t, res.Clients, 1)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", res.Clients[0].MAC)
}

func TestReconcileEvictsOnlyOnePerTick(t *testing.T) {
	raw := strings.Join([]string{
		"02:00:00:00:00:01|10.0.0.2|a",
		"02:00:00:00:00:02|10.0.0.3|b",
		"02:00:00:00:00:03|10.0.0.4|c",
		"02:00:00:00:00:04|10.0.0.5|d",
	}, "\n")

	res := New(nil).Reconcile(raw, policy(1), nil)

	require.Len(t, res.Actions, 1)
	assert.Equal(t, "02:00:00:00:00:04", res.Actions[0].MAC)
	assert.Len(t, res.Clients, 3)
}

func TestReconcileInactiveKeepsPreviousList(t *testing.T) {
	previous := []model.ClientRecord{{MAC: "aa:bb:cc:dd:ee:ff", IP: "10.0.0.2", DisplayName: "phone"}}

	res := New(nil).Reconcile("INACTIVE\n", policy(5), previous)

	assert.True(t, res.Inactive)
	assert.Equal(t, previous, res.Clients)
	assert.Empty(t, res.Actions)
}

func TestReconcileEmptyRoster(t *testing.T) {
	res := New(nil).Reconcile("", policy(5), nil)

	assert.NotNil(t, res.Clients)
	assert.Empty(t, res.Clients)
	assert.Empty(t, res.Actions)
}

func TestReconcileCustomNameWinsAndVendorIsAttached(t *testing.T) {
	pol := policy(5)
	pol.CustomNames["11:22:33:44:55:66"] = "Living room TV"
	vendors := staticVendors{"aa:bb:cc:dd:ee:ff": "Apple"}

	res := New(vendors).Reconcile(twoClients, pol, nil)

	require.Len(t, res.Clients, 2)
	assert.Equal(t, "Apple", res.Clients[0].Vendor)
	assert.Equal(t, "Living room TV", res.Clients[1].DisplayName)
	assert.Empty(t, res.Clients[1].Vendor)
}

func TestCustomNameUnknownStillFallsBack(t *testing.T) {
	pol := policy(5)
	pol.CustomNames["aa:bb:cc:dd:ee:ff"] = "Unknown"

	got := DisplayName(model.ClientRecord{MAC: "aa:bb:cc:dd:ee:ff", SystemName: "phone"}, pol)

	assert.Equal(t, "Device (ee:ff)", got)
}

func TestParseRosterDropsMalformedLines(t *testing.T) {
	raw := "garbage\n" +
		"aa:bb:cc:dd:ee:ff|10.0.0.2|phone\r\n" +
		"too|many|pipes|here\n" +
		"|10.0.0.9|nomac\n" +
		"\n" +
		"11:22:33:44:55:66|10.0.0.3|laptop"

	got := ParseRoster(raw)

	require.Len(t, got, 2)
	assert.Equal(t, "phone", got[0].SystemName)
	assert.Equal(t, "11:22:33:44:55:66", got[1].MAC)
}

func TestFallbackName(t *testing.T) {
	assert.Equal(t, "Device (55:66)", FallbackName("11:22:33:44:55:66"))
	assert.Equal(t, "Device (abc)", FallbackName("abc"))
}

func TestReconcileInvariantsOnRandomRosters(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	engine := New(nil)

	for round := 0; round < 200; round++ {
		n := rng.Intn(12)
		var lines []string
		var blacklist []string
		for i := 0; i < n; i++ {
			mac := fmt.Sprintf("02:00:00:00:%02x:%02x", round%256, i)
			lines = append(lines, fmt.Sprintf("%s|10.0.%d.%d|host%d", mac, round%256, i, i))
			if rng.Intn(4) == 0 {
				blacklist = append(blacklist, mac)
			}
		}
		pol := policy(1+rng.Intn(6), blacklist...)

		res := engine.Reconcile(strings.Join(lines, "\n"), pol, nil)

		allowed := n - len(blacklist)
		capacityKicks := 0
		for _, action := range res.Actions {
			if action.Reason == model.KickReasonCapacity {
				capacityKicks++
			}
		}
		for _, c := range res.Clients {
			assert.False(t, pol.IsBlacklisted(c.MAC), "blacklisted client surfaced")
		}
		if allowed <= pol.Limit {
			assert.Zero(t, capacityKicks)
			assert.Len(t, res.Clients, allowed)
		} else {
			assert.Equal(t, 1, capacityKicks)
			assert.Len(t, res.Clients, allowed-1)
		}
		assert.Len(t, res.Actions, len(blacklist)+capacityKicks)
	}
}
