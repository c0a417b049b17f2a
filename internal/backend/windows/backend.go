//go:build windows

package windows

import (
	"context"
	"runtime/cgo"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/wesleywu/route-table/internal/config"
	"github.com/wesleywu/route-table/internal/fanout"
	"github.com/wesleywu/route-table/internal/logger"
	"github.com/wesleywu/route-table/internal/rtypes"
)

// Backend implements the routetable facade's backend contract over the
// Windows IP Helper API (GetIpForwardTable2, CreateIpForwardEntry2,
// DeleteIpForwardEntry2, NotifyRouteChange2).
type Backend struct {
	bus    *fanout.Bus[rtypes.RouteChange]
	log    *logger.Logger
	handle windows.Handle
	cgoH   cgo.Handle

	closeOnce sync.Once
}

// New registers a NotifyRouteChange2 callback for AF_UNSPEC and returns a
// Backend that republishes every notification onto its fanout bus.
//
// The callback's context argument carries a runtime/cgo.Handle identifying
// this Backend rather than a raw pointer: the OS holds this address for the
// lifetime of the subscription, and a cgo.Handle gives a stable identifier
// without relying on Go's heap layout, which is not guaranteed stable across
// a GC.
func New(cfg *config.Config, log *logger.Logger) (*Backend, error) {
	b := &Backend{
		bus: fanout.NewWithCapacity[rtypes.RouteChange](cfg.FanoutCapacity),
		log: log,
	}
	b.cgoH = cgo.NewHandle(b)

	callback := windows.NewCallback(routeChangeCallback)
	h, err := notifyRouteChange2(callback, unsafe.Pointer(uintptr(b.cgoH)))
	if err != nil {
		b.cgoH.Delete()
		return nil, wrapErr("open", err)
	}
	b.handle = h

	return b, nil
}

// routeChangeCallback is invoked by the OS on its own notification thread,
// which need not be any thread this process created; it recovers the
// originating Backend via the cgo.Handle passed as context and republishes
// the row as a RouteChange. The fanout bus's Publish is safe for concurrent
// use, so no additional synchronization is needed here.
func routeChangeCallback(callerContext uintptr, row uintptr, notificationType int32) uintptr {
	h := cgo.Handle(callerContext)
	b, ok := h.Value().(*Backend)
	if !ok || row == 0 {
		return 0
	}

	r := (*mibIPForwardRow2)(unsafe.Pointer(row))
	route := rowToRoute(r)

	var change rtypes.ChangeType
	switch mibNotificationType(notificationType) {
	case mibAddInstance:
		change = rtypes.RouteAdded
	case mibDeleteInstance:
		change = rtypes.RouteDeleted
	case mibParameterNotification:
		change = rtypes.RouteChanged
	default:
		return 0
	}

	b.log.BackendEvent("windows", change.String(), route.Destination.String())
	b.bus.Publish(rtypes.RouteChange{Type: change, Route: route})
	return 0
}

// AllowsImplicitGateway reports that this backend can derive a usable
// route when neither Gateway nor IfIndex is set: CreateIpForwardEntry2
// accepts a zero NextHop and the OS resolves the outgoing interface itself.
func (b *Backend) AllowsImplicitGateway() bool { return true }

// Add installs r via CreateIpForwardEntry2.
func (b *Backend) Add(ctx context.Context, r *rtypes.Route) error {
	row := routeToRow(r)
	return wrapCode("add", createIPForwardEntry2(row), "CreateIpForwardEntry2")
}

// Delete removes the route exact-matching r's destination via
// DeleteIpForwardEntry2.
func (b *Backend) Delete(ctx context.Context, r *rtypes.Route) error {
	row := routeToRow(r)
	return wrapCode("delete", deleteIPForwardEntry2(row), "DeleteIpForwardEntry2")
}

// List enumerates every route via GetIpForwardTable2(AF_UNSPEC), freeing
// the table afterward.
func (b *Backend) List(ctx context.Context) ([]rtypes.Route, error) {
	table, err := getIPForwardTable2()
	if err != nil {
		return nil, wrapErr("list", err)
	}
	defer freeMibTable(table)

	n := tableNumEntries(table)
	routes := make([]rtypes.Route, 0, n)
	for i := uint32(0); i < n; i++ {
		routes = append(routes, rowToRoute(forwardRowAt(table, i)))
	}
	return routes, nil
}

// DefaultRoute filters List's result to unspecified-destination,
// zero-prefix entries with a non-unspecified gateway and returns the one
// with the lowest Metric, mirroring how the Windows routing table itself
// breaks ties between multiple default routes.
func (b *Backend) DefaultRoute(ctx context.Context) (*rtypes.Route, error) {
	routes, err := b.List(ctx)
	if err != nil {
		return nil, err
	}

	var best *rtypes.Route
	for i := range routes {
		r := &routes[i]
		if r.Prefix != 0 || !r.Destination.IsUnspecified() || r.Gateway == nil {
			continue
		}
		if best == nil || metricOf(r) < metricOf(best) {
			best = r
		}
	}
	if best == nil {
		return nil, &rtypes.Error{Op: "default_route", Kind: rtypes.KindNotFound}
	}
	return best, nil
}

func metricOf(r *rtypes.Route) uint32 {
	if r.Metric == nil {
		return 0
	}
	return *r.Metric
}

// Subscribe registers a new route-change cursor on the backend's fanout
// bus.
func (b *Backend) Subscribe() (<-chan rtypes.RouteChange, func()) {
	return b.bus.Subscribe()
}

// Close cancels the route-change notification registration and releases
// the cgo.Handle backing its callback context. Close is idempotent.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		cancelMibChangeNotify2(b.handle)
		b.bus.Close()
		b.cgoH.Delete()
	})
	return nil
}
