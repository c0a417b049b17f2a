// Package rtypes holds the platform-independent route-table data model
// (Route, RouteChange, Error) shared by the routetable facade and every
// backend package, isolated here so backends can depend on these types
// without importing the facade package that constructs them.
package rtypes

import (
	"fmt"
	"net"
)

// defaultLinuxTable is the routing table Linux routes are installed into
// when Route.Table is left unset. Matches RT_TABLE_MAIN.
const defaultLinuxTable = 254

// Route describes an entry in the local computer's IPv4 or IPv6 routing
// table. Destination, with Prefix, identifies the destination network; a
// Destination of the zero address with Prefix 0 is a default route.
type Route struct {
	// Destination is the network address of the destination.
	Destination net.IP

	// Prefix is the length of the network prefix in Destination, in bits
	// (0-32 for IPv4, 0-128 for IPv6).
	Prefix uint8

	// Gateway is the address of this route's next hop. At least one of
	// Gateway or IfIndex must be set when adding a route (Windows excepted).
	Gateway net.IP

	// IfIndex is the local interface through which the next hop should be
	// reached. At least one of Gateway or IfIndex must be set when adding
	// a route (Windows excepted).
	IfIndex *uint32

	// Table is the Linux routing table this route belongs to. Ignored on
	// other platforms. Zero means "unset"; NewRoute defaults it to the
	// main table (254).
	Table uint8

	// Metric is the Windows route metric used to rank overlapping routes.
	// Ignored on other platforms.
	Metric *uint32

	// LUID is the Windows interface LUID, used instead of IfIndex when
	// populated by the Windows backend on list/dump.
	LUID *uint64

	// Source restricts a Linux route to traffic originating from this
	// source network (RTA_SRC). Linux-only.
	Source *net.IPNet

	// SourceHint is the preferred source address the kernel should use
	// when sending through this route (RTA_PREFSRC). Linux-only.
	SourceHint net.IP
}

// NewRoute creates a Route for the given destination network. Callers
// should set Gateway, IfIndex, or both before adding the route.
func NewRoute(destination net.IP, prefix uint8) *Route {
	return &Route{
		Destination: destination,
		Prefix:      prefix,
		Table:       defaultLinuxTable,
	}
}

// WithGateway sets the next-hop gateway and returns the route for chaining.
func (r *Route) WithGateway(gw net.IP) *Route {
	r.Gateway = gw
	return r
}

// WithIfIndex sets the outbound interface index and returns the route for
// chaining.
func (r *Route) WithIfIndex(ifindex uint32) *Route {
	r.IfIndex = &ifindex
	return r
}

// WithTable sets the Linux routing table id and returns the route for
// chaining. Has no effect outside Linux backends.
func (r *Route) WithTable(table uint8) *Route {
	r.Table = table
	return r
}

// IsIPv4 reports whether Destination is an IPv4 address.
func (r *Route) IsIPv4() bool {
	return r.Destination.To4() != nil
}

// Mask returns the network mask implied by Prefix, sized to match
// Destination's address family. Built on net.CIDRMask, which computes the
// mask byte-wise and is therefore well-defined at Prefix == 0 and
// Prefix == bit-width alike, unlike a raw bit shift.
func (r *Route) Mask() net.IPMask {
	if r.IsIPv4() {
		return net.CIDRMask(int(r.Prefix), 32)
	}
	return net.CIDRMask(int(r.Prefix), 128)
}

// IsDefault reports whether this route is a default route (the zero
// address with a zero-length prefix).
func (r *Route) IsDefault() bool {
	return r.Prefix == 0 && r.Destination.Equal(net.IPv4zero.To4()) ||
		(r.Prefix == 0 && r.Destination.Equal(net.IPv6unspecified))
}

func (r *Route) String() string {
	gw := "<none>"
	if r.Gateway != nil {
		gw = r.Gateway.String()
	}
	ifidx := "<none>"
	if r.IfIndex != nil {
		ifidx = fmt.Sprintf("%d", *r.IfIndex)
	}
	return fmt.Sprintf("%s/%d via %s dev %s", r.Destination, r.Prefix, gw, ifidx)
}

// ChangeType identifies the kind of mutation a RouteChange reports.
type ChangeType int

const (
	// RouteAdded indicates a route was added to the table.
	RouteAdded ChangeType = iota
	// RouteDeleted indicates a route was removed from the table.
	RouteDeleted
	// RouteChanged indicates an existing route's attributes changed
	// (e.g. its gateway), without the destination/prefix changing.
	RouteChanged
)

func (c ChangeType) String() string {
	switch c {
	case RouteAdded:
		return "added"
	case RouteDeleted:
		return "deleted"
	case RouteChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// RouteChange is an event delivered over RouteListenStream describing a
// single mutation observed in the host's routing table.
type RouteChange struct {
	Type  ChangeType
	Route Route
}
