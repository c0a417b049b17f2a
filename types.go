// Package routetable provides a unified, cross-platform view of the host's
// IPv4/IPv6 routing table over Linux rtnetlink, BSD/macOS PF_ROUTE+sysctl,
// and the Windows IP Helper API.
package routetable

import (
	"net"

	"github.com/wesleywu/route-table/internal/rtypes"
)

// Route describes an entry in the local computer's IPv4 or IPv6 routing
// table. See rtypes.Route for field documentation.
type Route = rtypes.Route

// NewRoute creates a Route for the given destination network. Callers
// should set Gateway, IfIndex, or both before adding the route.
func NewRoute(destination net.IP, prefix uint8) *Route {
	return rtypes.NewRoute(destination, prefix)
}

// ChangeType identifies the kind of mutation a RouteChange reports.
type ChangeType = rtypes.ChangeType

const (
	RouteAdded   = rtypes.RouteAdded
	RouteDeleted = rtypes.RouteDeleted
	RouteChanged = rtypes.RouteChanged
)

// RouteChange is an event delivered over RouteListenStream describing a
// single mutation observed in the host's routing table.
type RouteChange = rtypes.RouteChange

// Kind classifies the underlying cause of an Error.
type Kind = rtypes.Kind

const (
	KindOther            = rtypes.KindOther
	KindInvalidInput     = rtypes.KindInvalidInput
	KindNotFound         = rtypes.KindNotFound
	KindAlreadyExists    = rtypes.KindAlreadyExists
	KindPermissionDenied = rtypes.KindPermissionDenied
	KindOutOfMemory      = rtypes.KindOutOfMemory
)

// Error is the error type returned by every routetable operation.
type Error = rtypes.Error
