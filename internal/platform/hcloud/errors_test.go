package hcloud

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"

	"github.com/imamik/fogprov/internal/compute"
)

func TestErrorClassification(t *testing.T) {
	notFound := hcloud.Error{Code: hcloud.ErrorCodeNotFound, Message: "gone"}
	conflict := hcloud.Error{Code: hcloud.ErrorCodeConflict, Message: "changed"}
	locked := hcloud.Error{Code: hcloud.ErrorCodeLocked, Message: "busy"}
	limited := hcloud.Error{Code: hcloud.ErrorCodeRateLimitExceeded, Message: "slow down"}

	tests := []struct {
		name      string
		err       error
		notFound  bool
		conflict  bool
		locked    bool
		rateLimit bool
	}{
		{"nil", nil, false, false, false, false},
		{"plain", errors.New("boom"), false, false, false, false},
		{"not found", notFound, true, false, false, false},
		{"wrapped not found", fmt.Errorf("get: %w", notFound), true, false, false, false},
		{"conflict", conflict, false, true, true, false},
		{"locked", locked, false, false, true, false},
		{"rate limited", limited, false, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.conflict, IsConflict(tt.err))
			assert.Equal(t, tt.locked, isResourceLocked(tt.err))
			assert.Equal(t, tt.rateLimit, IsRateLimited(tt.err))
		})
	}
}

func TestInstanceError(t *testing.T) {
	err := instanceError("get", "1", hcloud.Error{Code: hcloud.ErrorCodeNotFound})
	assert.ErrorIs(t, err, compute.ErrInstanceNotFound)

	other := errors.New("boom")
	err = instanceError("start", "1", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, compute.ErrInstanceNotFound)
}

func TestServerIP(t *testing.T) {
	_, ipv6Net, _ := net.ParseCIDR("2001:db8:1:2::/64")

	tests := []struct {
		name   string
		server *hcloud.Server
		want   string
	}{
		{"nil", nil, ""},
		{"no addresses", &hcloud.Server{}, ""},
		{"ipv4", &hcloud.Server{PublicNet: hcloud.ServerPublicNet{
			IPv4: hcloud.ServerPublicNetIPv4{IP: net.ParseIP("203.0.113.1")},
		}}, "203.0.113.1"},
		{"ipv6 only", &hcloud.Server{PublicNet: hcloud.ServerPublicNet{
			IPv6: hcloud.ServerPublicNetIPv6{IP: ipv6Net.IP, Network: ipv6Net},
		}}, "2001:db8:1:2::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ServerIP(tt.server))
		})
	}
}
