//go:build linux

// Package linux implements the routing-table backend for Linux over
// rtnetlink(7), using github.com/jsimonetti/rtnetlink for route requests and
// github.com/mdlayher/netlink for the route-change multicast groups.
package linux

import (
	"context"
	"sync"

	"github.com/jsimonetti/rtnetlink"
	"github.com/mdlayher/netlink"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sys/unix"

	"github.com/wesleywu/route-table/internal/config"
	"github.com/wesleywu/route-table/internal/fanout"
	"github.com/wesleywu/route-table/internal/logger"
	"github.com/wesleywu/route-table/internal/rtypes"
)

// Backend implements the routetable facade's backend contract over Linux
// rtnetlink.
type Backend struct {
	conn *rtnetlink.Conn
	mon  *netlink.Conn
	bus  *fanout.Bus[rtypes.RouteChange]
	pool *ants.Pool
	log  *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once
}

// New dials an rtnetlink connection plus a second netlink socket bound to
// the IPv4/IPv6 route multicast groups for change notifications.
func New(cfg *config.Config, log *logger.Logger) (*Backend, error) {
	conn, err := rtnetlink.Dial(nil)
	if err != nil {
		return nil, wrapErr("open", err)
	}

	mon, err := netlink.Dial(unix.NETLINK_ROUTE, &netlink.Config{
		Groups: 1<<(unix.RTNLGRP_IPV4_ROUTE-1) | 1<<(unix.RTNLGRP_IPV6_ROUTE-1),
	})
	if err != nil {
		conn.Close()
		return nil, wrapErr("open", err)
	}

	pool, err := ants.NewPool(cfg.DumpConcurrency)
	if err != nil {
		conn.Close()
		mon.Close()
		return nil, wrapErr("open", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Backend{
		conn:   conn,
		mon:    mon,
		bus:    fanout.NewWithCapacity[rtypes.RouteChange](cfg.FanoutCapacity),
		pool:   pool,
		log:    log,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go b.listenLoop(ctx)

	return b, nil
}

func (b *Backend) listenLoop(ctx context.Context) {
	defer close(b.done)
	for {
		msgs, _, err := b.mon.Receive()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				b.log.Warn("rtnetlink monitor receive failed", "error", err)
				return
			}
		}
		for _, m := range msgs {
			var rm rtnetlink.RouteMessage
			if err := rm.UnmarshalBinary(m.Data); err != nil {
				continue
			}
			var change rtypes.ChangeType
			switch m.Header.Type {
			case unix.RTM_NEWROUTE:
				change = rtypes.RouteAdded
			case unix.RTM_DELROUTE:
				change = rtypes.RouteDeleted
			default:
				continue
			}
			route := fromRTNL(rm)
			b.log.BackendEvent("linux", change.String(), route.Destination.String())
			b.bus.Publish(rtypes.RouteChange{Type: change, Route: route})
		}
	}
}

// Add installs r via RTM_NEWROUTE.
func (b *Backend) Add(ctx context.Context, r *rtypes.Route) error {
	msg, err := toRTNL(r)
	if err != nil {
		return wrapErr("add", err)
	}
	return b.runRequest(ctx, "add", func() error {
		return b.conn.Route.Add(msg)
	})
}

// Delete removes the route matching destination and prefix via
// RTM_DELROUTE. The kernel matches only on destination+prefix (and table),
// so if more than one route shares that destination the kernel chooses
// which one to remove — a limitation of rtnetlink itself, not of this
// backend.
func (b *Backend) Delete(ctx context.Context, r *rtypes.Route) error {
	msg, err := toRTNL(r)
	if err != nil {
		return wrapErr("delete", err)
	}
	return b.runRequest(ctx, "delete", func() error {
		return b.conn.Route.Delete(msg)
	})
}

func (b *Backend) runRequest(ctx context.Context, op string, fn func() error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- fn() }()
	select {
	case <-ctx.Done():
		return wrapErr(op, ctx.Err())
	case err := <-errCh:
		if err != nil {
			return wrapErr(op, err)
		}
		return nil
	}
}

// List dumps every IPv4 and IPv6 route currently installed, fetching both
// families concurrently through the ants pool. The two dumps race, but the
// families are merged into the returned slice in a fixed IPv4-then-IPv6
// order regardless of which completes first, so callers (and DefaultRoute)
// can rely on IPv4 routes sorting ahead of IPv6 ones.
func (b *Backend) List(ctx context.Context) ([]rtypes.Route, error) {
	type result struct {
		routes []rtnetlink.RouteMessage
		err    error
	}
	// Indexed by dump order (0 = IPv4, 1 = IPv6), not completion order.
	resultsByFamily := [2]chan result{make(chan result, 1), make(chan result, 1)}

	dump := func(family uint8, out chan<- result) func() {
		return func() {
			msgs, err := b.conn.Route.Get(&rtnetlink.RouteMessage{Family: family})
			out <- result{routes: msgs, err: err}
		}
	}

	if err := b.pool.Submit(dump(unix.AF_INET, resultsByFamily[0])); err != nil {
		return nil, wrapErr("list", err)
	}
	if err := b.pool.Submit(dump(unix.AF_INET6, resultsByFamily[1])); err != nil {
		return nil, wrapErr("list", err)
	}

	var all []rtypes.Route
	seen := rtypes.NewRouteSet()
	for _, ch := range resultsByFamily {
		select {
		case <-ctx.Done():
			return nil, wrapErr("list", ctx.Err())
		case r := <-ch:
			if r.err != nil {
				return nil, wrapErr("list", r.err)
			}
			for _, m := range r.routes {
				route := fromRTNL(m)
				// Drop entries repeating a destination/prefix already
				// seen in the same table; the same destination in
				// different tables (main, local, default) is kept.
				if seen.Add(route) {
					all = append(all, route)
				}
			}
		}
	}
	return all, nil
}

// DefaultRoute returns the first route in dump order whose destination
// prefix is zero, preferring IPv4 over IPv6 since List always merges the
// two families in that order.
func (b *Backend) DefaultRoute(ctx context.Context) (*rtypes.Route, error) {
	routes, err := b.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range routes {
		if routes[i].Prefix == 0 {
			return &routes[i], nil
		}
	}
	return nil, &rtypes.Error{Op: "default_route", Kind: rtypes.KindNotFound}
}

// Subscribe registers a new route-change cursor on the backend's fanout
// bus.
func (b *Backend) Subscribe() (<-chan rtypes.RouteChange, func()) {
	return b.bus.Subscribe()
}

// Close tears down the rtnetlink connections, the monitor socket, and the
// dump worker pool. Close is idempotent.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.cancel()
		b.pool.Release()
		b.bus.Close()
		if cerr := b.mon.Close(); cerr != nil {
			err = cerr
		}
		if cerr := b.conn.Close(); cerr != nil {
			err = cerr
		}
		<-b.done
	})
	return err
}
