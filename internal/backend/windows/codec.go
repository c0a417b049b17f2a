//go:build windows

package windows

import (
	"net"

	"golang.org/x/sys/windows"

	"github.com/wesleywu/route-table/internal/rtypes"
)

func setSockaddr(sa *sockaddrInet, ip net.IP) {
	if v4 := ip.To4(); v4 != nil {
		sa.family = windows.AF_INET
		copy(sa.data[0:4], v4)
		return
	}
	sa.family = windows.AF_INET6
	v6 := ip.To16()
	copy(sa.data[4:20], v6)
}

func readSockaddr(sa *sockaddrInet) net.IP {
	switch sa.family {
	case windows.AF_INET:
		ip := make(net.IP, 4)
		copy(ip, sa.data[0:4])
		return ip
	case windows.AF_INET6:
		ip := make(net.IP, 16)
		copy(ip, sa.data[4:20])
		return ip
	default:
		return nil
	}
}

// routeToRow builds a MIB_IPFORWARD_ROW2 from r: InitializeIpForwardEntry
// first to zero reserved fields to their documented defaults, then
// InterfaceIndex/InterfaceLuid, NextHop (deriving the family from
// Destination when no Gateway is set), DestinationPrefix, and Metric.
func routeToRow(r *rtypes.Route) *mibIPForwardRow2 {
	var row mibIPForwardRow2
	initializeIPForwardEntry(&row)

	if r.IfIndex != nil {
		row.interfaceIndex = *r.IfIndex
	}
	if r.LUID != nil {
		row.interfaceLUID = *r.LUID
	}

	if r.Gateway != nil {
		setSockaddr(&row.nextHop, r.Gateway)
	} else if r.Destination.To4() != nil {
		row.nextHop.family = windows.AF_INET
	} else {
		row.nextHop.family = windows.AF_INET6
	}

	setSockaddr(&row.destPrefix, r.Destination)
	row.destPrefixLength = r.Prefix

	if r.Metric != nil {
		row.metric = *r.Metric
	}

	return &row
}

// rowToRoute translates a MIB_IPFORWARD_ROW2 back into a Route: an
// unspecified NextHop address means the row has no gateway.
func rowToRoute(row *mibIPForwardRow2) rtypes.Route {
	route := rtypes.Route{
		Destination: readSockaddr(&row.destPrefix),
		Prefix:      row.destPrefixLength,
	}
	if gw := readSockaddr(&row.nextHop); gw != nil && !gw.IsUnspecified() {
		route.Gateway = gw
	}
	if row.interfaceIndex != 0 {
		idx := row.interfaceIndex
		route.IfIndex = &idx
	}
	if row.interfaceLUID != 0 {
		luid := row.interfaceLUID
		route.LUID = &luid
	}
	if row.metric != 0 {
		metric := row.metric
		route.Metric = &metric
	}
	return route
}
