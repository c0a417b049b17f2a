//go:build linux

package linux

import (
	"net"
	"testing"

	"github.com/jsimonetti/rtnetlink"
	"golang.org/x/sys/unix"

	"github.com/wesleywu/route-table/internal/rtypes"
)

func TestToRTNLGatewayFamilyMismatch(t *testing.T) {
	r := &rtypes.Route{
		Destination: net.IPv4(203, 0, 113, 0).To4(),
		Prefix:      24,
		Gateway:     net.ParseIP("2001:db8::1"),
	}
	if _, err := toRTNL(r); err != errFamilyMismatch {
		t.Fatalf("expected errFamilyMismatch, got %v", err)
	}
}

func TestToRTNLDefaultsTableToMain(t *testing.T) {
	r := &rtypes.Route{
		Destination: net.IPv4(203, 0, 113, 0).To4(),
		Prefix:      24,
		Gateway:     net.IPv4(192, 0, 2, 1).To4(),
	}
	msg, err := toRTNL(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Table != unix.RT_TABLE_MAIN {
		t.Errorf("Table = %d, want RT_TABLE_MAIN", msg.Table)
	}
	if msg.Scope != unix.RT_SCOPE_UNIVERSE {
		t.Errorf("Scope = %d, want RT_SCOPE_UNIVERSE when a gateway is set", msg.Scope)
	}
}

func TestToRTNLLinkScopeWithoutGateway(t *testing.T) {
	idx := uint32(4)
	r := &rtypes.Route{
		Destination: net.IPv4(203, 0, 113, 0).To4(),
		Prefix:      24,
		IfIndex:     &idx,
	}
	msg, err := toRTNL(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Scope != unix.RT_SCOPE_LINK {
		t.Errorf("Scope = %d, want RT_SCOPE_LINK for a gateway-less on-link route", msg.Scope)
	}
}

func TestFromRTNLSubstitutesUnspecifiedDestination(t *testing.T) {
	msg := rtnetlink.RouteMessage{Family: unix.AF_INET, DstLength: 0}
	route := fromRTNL(msg)
	if !route.Destination.Equal(net.IPv4zero) {
		t.Errorf("Destination = %s, want unspecified IPv4", route.Destination)
	}
	if route.Prefix != 0 {
		t.Errorf("Prefix = %d, want 0", route.Prefix)
	}
}
