//go:build linux

package linux

import (
	"net"

	"github.com/jsimonetti/rtnetlink"
	"golang.org/x/sys/unix"

	"github.com/wesleywu/route-table/internal/rtypes"
)

// toRTNL translates a Route into the rtnetlink wire message used to add or
// delete it via RTM_NEWROUTE/RTM_DELROUTE.
func toRTNL(r *rtypes.Route) (*rtnetlink.RouteMessage, error) {
	family := unix.AF_INET
	if r.Destination.To4() == nil {
		family = unix.AF_INET6
	}

	scope := uint8(unix.RT_SCOPE_UNIVERSE)
	if r.Gateway == nil && r.IfIndex != nil {
		scope = unix.RT_SCOPE_LINK
	}

	table := r.Table
	if table == 0 {
		table = unix.RT_TABLE_MAIN
	}

	attrs := rtnetlink.RouteAttributes{
		Dst: r.Destination,
	}
	if r.Gateway != nil {
		if (family == unix.AF_INET) != (r.Gateway.To4() != nil) {
			return nil, errFamilyMismatch
		}
		attrs.Gateway = r.Gateway
	}
	if r.IfIndex != nil {
		attrs.OutIface = *r.IfIndex
	}
	if r.SourceHint != nil {
		attrs.Src = r.SourceHint
	}

	msg := &rtnetlink.RouteMessage{
		Family:     uint8(family),
		Table:      table,
		Protocol:   unix.RTPROT_BOOT,
		Type:       unix.RTN_UNICAST,
		Scope:      scope,
		DstLength:  r.Prefix,
		Attributes: attrs,
	}

	if r.Source != nil {
		ones, _ := r.Source.Mask.Size()
		msg.SrcLength = uint8(ones)
	}

	return msg, nil
}

// fromRTNL translates a wire route message back into a Route.
func fromRTNL(msg rtnetlink.RouteMessage) rtypes.Route {
	route := rtypes.Route{
		Destination: msg.Attributes.Dst,
		Prefix:      msg.DstLength,
		Table:       msg.Table,
	}
	if route.Destination == nil {
		if msg.Family == unix.AF_INET {
			route.Destination = net.IPv4zero
		} else {
			route.Destination = net.IPv6unspecified
		}
	}
	if msg.Attributes.Gateway != nil {
		route.Gateway = msg.Attributes.Gateway
	}
	if msg.Attributes.OutIface != 0 {
		idx := msg.Attributes.OutIface
		route.IfIndex = &idx
	}
	if msg.Attributes.Src != nil {
		route.SourceHint = msg.Attributes.Src
	}
	return route
}
