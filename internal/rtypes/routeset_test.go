package rtypes

import (
	"net"
	"testing"
)

func TestRouteSetAddDeduplicatesSameDestinationPrefixTable(t *testing.T) {
	s := NewRouteSet()
	r1 := Route{Destination: net.IPv4(203, 0, 113, 0).To4(), Prefix: 24, Table: 254}
	r2 := Route{Destination: net.IPv4(203, 0, 113, 0).To4(), Prefix: 24, Table: 254}

	if !s.Add(r1) {
		t.Fatal("expected first Add to report a new route")
	}
	if s.Add(r2) {
		t.Fatal("expected second Add of an equivalent route to report a duplicate")
	}
}

func TestRouteSetAddDistinguishesTable(t *testing.T) {
	s := NewRouteSet()
	r1 := Route{Destination: net.IPv4(203, 0, 113, 0).To4(), Prefix: 24, Table: 254}
	r2 := Route{Destination: net.IPv4(203, 0, 113, 0).To4(), Prefix: 24, Table: 255}

	if !s.Add(r1) || !s.Add(r2) {
		t.Fatal("expected routes in different tables to both be treated as new")
	}
}

func TestRouteSetAddDistinguishesIPv4AndIPv6(t *testing.T) {
	s := NewRouteSet()
	v4 := Route{Destination: net.IPv4(0, 0, 0, 0).To4(), Prefix: 0, Table: 254}
	v6 := Route{Destination: net.IPv6unspecified, Prefix: 0, Table: 254}

	if !s.Add(v4) || !s.Add(v6) {
		t.Fatal("expected the IPv4 and IPv6 default routes to both be treated as new")
	}
}
