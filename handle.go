package routetable

import (
	"context"
	"errors"
	"time"

	"github.com/wesleywu/route-table/internal/config"
	"github.com/wesleywu/route-table/internal/logger"
	"github.com/wesleywu/route-table/internal/metrics"
	"github.com/wesleywu/route-table/internal/rtypes"
)

var errNeitherGatewayNorIfIndex = errors.New("gateway and ifindex cannot both be unset")

// implicitGatewayBackend is implemented by backends that can derive a
// usable route when neither Gateway nor IfIndex is set. Only the Windows
// backend does this (via default gateway derivation); Linux and BSD require
// one of the two and reject the route otherwise.
type implicitGatewayBackend interface {
	AllowsImplicitGateway() bool
}

// backend is the per-platform implementation a Handle delegates to. Each
// OS's backend package (internal/backend/{linux,bsd,windows}) implements
// this method set structurally; none of them import this package, so
// constructing a backend and wrapping it in a Handle happens entirely in
// the per-OS handle_<os>.go files to avoid an import cycle.
type backend interface {
	Add(ctx context.Context, r *Route) error
	Delete(ctx context.Context, r *Route) error
	List(ctx context.Context) ([]Route, error)
	DefaultRoute(ctx context.Context) (*Route, error)
	Subscribe() (<-chan RouteChange, func())
	Close() error
}

// Handle abstracts initialization and cleanup of the resources needed to
// operate on the host's routing table. Create one with New and release it
// with Close when done.
type Handle struct {
	b       backend
	log     *logger.Logger
	metrics *metrics.Metrics
	cfg     *config.Config
}

// Option configures a Handle constructed by New.
type Option func(*handleOptions)

type handleOptions struct {
	cfg *config.Config
}

// WithConfig overrides the default Config used to construct the Handle's
// backend (fanout capacity, sysctl retries, dump concurrency, timeouts).
func WithConfig(cfg *config.Config) Option {
	return func(o *handleOptions) { o.cfg = cfg }
}

// resolveOptions applies opts and fills in a default Config/Logger pair,
// shared by every per-OS New implementation.
func resolveOptions(opts []Option) (*config.Config, *logger.Logger) {
	var o handleOptions
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.cfg
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return cfg, logger.New(cfg.LogLevel)
}

func newHandle(b backend, cfg *config.Config, log *logger.Logger) *Handle {
	return &Handle{
		b:       b,
		log:     log,
		metrics: metrics.New(),
		cfg:     cfg,
	}
}

// Add installs r into the routing table. At least one of r.Gateway or
// r.IfIndex must be set (both may be), unless the backend can derive a
// gateway itself (Windows).
func (h *Handle) Add(ctx context.Context, r *Route) error {
	if err := h.validateMutation(r); err != nil {
		return err
	}
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	err := h.b.Add(ctx, r)
	h.metrics.RecordOperation(time.Since(start), err == nil)
	h.log.RouteApplied("add", r.Destination.String(), gatewayString(r), time.Since(start).Milliseconds(), err == nil)
	return err
}

// Delete removes the route matching r from the routing table.
func (h *Handle) Delete(ctx context.Context, r *Route) error {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	err := h.b.Delete(ctx, r)
	h.metrics.RecordOperation(time.Since(start), err == nil)
	h.log.RouteRemoved(r.Destination.String(), time.Since(start).Milliseconds(), err == nil)
	return err
}

// List returns every route currently present in the routing table.
func (h *Handle) List(ctx context.Context) ([]Route, error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	routes, err := h.b.List(ctx)
	h.metrics.RecordOperation(time.Since(start), err == nil)
	return routes, err
}

// DefaultRoute returns the route the kernel would use to reach an
// unspecified destination, or a NotFound error if none exists.
func (h *Handle) DefaultRoute(ctx context.Context) (*Route, error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	r, err := h.b.DefaultRoute(ctx)
	h.metrics.RecordOperation(time.Since(start), err == nil)
	return r, err
}

// withTimeout applies h.cfg.OperationTimeout to ctx when the caller hasn't
// already set a deadline and the config specifies a positive timeout. The
// returned cancel func is always safe to defer, even when ctx is returned
// unchanged.
func (h *Handle) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.cfg == nil || h.cfg.OperationTimeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.cfg.OperationTimeout)
}

// RouteListenStream subscribes to route change notifications. The returned
// channel is closed when ctx is cancelled; each call gets an independent,
// lag-tolerant cursor onto the same underlying event stream.
func (h *Handle) RouteListenStream(ctx context.Context) <-chan RouteChange {
	src, cancel := h.b.Subscribe()
	out := make(chan RouteChange)

	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-src:
				if !ok {
					return
				}
				h.metrics.RecordRouteChange()
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Close releases every resource the Handle's backend holds (sockets,
// netlink connections, Windows change-notification handles). Close is
// idempotent.
func (h *Handle) Close() error {
	return h.b.Close()
}

// validateMutation enforces the Route invariants ahead of a backend call:
// when both Gateway and IfIndex are set, either is accepted
// (the backend picks the more specific), so no error is raised for that
// case. When neither is set, macOS and Linux reject the route; Windows
// may accept it and derive a gateway, so that platform's backend opts out
// via implicitGatewayBackend.
func (h *Handle) validateMutation(r *Route) error {
	if r.Gateway == nil && r.IfIndex == nil {
		if ib, ok := h.b.(implicitGatewayBackend); !ok || !ib.AllowsImplicitGateway() {
			return &Error{Op: "add", Kind: rtypes.KindInvalidInput, Err: errNeitherGatewayNorIfIndex}
		}
	}
	return nil
}

func gatewayString(r *Route) string {
	if r.Gateway == nil {
		return "<none>"
	}
	return r.Gateway.String()
}
