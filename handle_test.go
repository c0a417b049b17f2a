package routetable

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/wesleywu/route-table/internal/config"
	"github.com/wesleywu/route-table/internal/logger"
)

// fakeBackend is an in-memory backend double used to exercise Handle's
// validation, metrics, and fanout plumbing without touching any kernel
// interface.
type fakeBackend struct {
	routes       []Route
	addErr       error
	deleteErr    error
	changes      chan RouteChange
	implicitOK   bool
	closed       bool
	addCalls     int
	deleteCalls  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{changes: make(chan RouteChange, 4)}
}

func (f *fakeBackend) Add(ctx context.Context, r *Route) error {
	f.addCalls++
	if f.addErr != nil {
		return f.addErr
	}
	f.routes = append(f.routes, *r)
	return nil
}

func (f *fakeBackend) Delete(ctx context.Context, r *Route) error {
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeBackend) List(ctx context.Context) ([]Route, error) {
	return f.routes, nil
}

func (f *fakeBackend) DefaultRoute(ctx context.Context) (*Route, error) {
	for i := range f.routes {
		if f.routes[i].IsDefault() {
			return &f.routes[i], nil
		}
	}
	return nil, &Error{Op: "default_route", Kind: KindNotFound}
}

func (f *fakeBackend) Subscribe() (<-chan RouteChange, func()) {
	return f.changes, func() {}
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func (f *fakeBackend) AllowsImplicitGateway() bool { return f.implicitOK }

func newTestHandle(b backend) *Handle {
	cfg := config.NewDefaultConfig()
	return newHandle(b, cfg, logger.New(cfg.LogLevel))
}

func TestAddRejectsNeitherGatewayNorIfIndex(t *testing.T) {
	h := newTestHandle(newFakeBackend())
	r := NewRoute(net.IPv4(203, 0, 113, 0).To4(), 24)

	err := h.Add(context.Background(), r)
	if err == nil {
		t.Fatal("expected error when neither Gateway nor IfIndex is set")
	}
	var rerr *Error
	if !asError(err, &rerr) || rerr.Kind != KindInvalidInput {
		t.Errorf("expected KindInvalidInput, got %v", err)
	}
}

func TestAddAcceptsBothGatewayAndIfIndex(t *testing.T) {
	fb := newFakeBackend()
	h := newTestHandle(fb)
	r := NewRoute(net.IPv4(203, 0, 113, 0).To4(), 24).
		WithGateway(net.IPv4(192, 0, 2, 1).To4()).
		WithIfIndex(4)

	if err := h.Add(context.Background(), r); err != nil {
		t.Fatalf("expected both Gateway and IfIndex to be accepted, got %v", err)
	}
	if fb.addCalls != 1 {
		t.Errorf("expected backend Add to be called once, got %d", fb.addCalls)
	}
}

func TestAddAllowsImplicitGatewayOnWindowsLikeBackend(t *testing.T) {
	fb := newFakeBackend()
	fb.implicitOK = true
	h := newTestHandle(fb)
	r := NewRoute(net.IPv4(203, 0, 113, 0).To4(), 24)

	if err := h.Add(context.Background(), r); err != nil {
		t.Fatalf("expected implicit-gateway backend to accept neither, got %v", err)
	}
}

func TestListContainsDefaultRoute(t *testing.T) {
	fb := newFakeBackend()
	h := newTestHandle(fb)

	def := *NewRoute(net.IPv4zero.To4(), 0).WithGateway(net.IPv4(192, 0, 2, 1).To4())
	fb.routes = append(fb.routes, def)

	got, err := h.DefaultRoute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, err := h.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, r := range list {
		if r.Destination.Equal(got.Destination) && r.Prefix == got.Prefix {
			found = true
		}
	}
	if !found {
		t.Error("expected List to contain the route returned by DefaultRoute")
	}
}

func TestRouteListenStreamForwardsAndStopsOnCancel(t *testing.T) {
	fb := newFakeBackend()
	h := newTestHandle(fb)

	ctx, cancel := context.WithCancel(context.Background())
	stream := h.RouteListenStream(ctx)

	want := RouteChange{Type: RouteAdded, Route: *NewRoute(net.IPv4(10, 0, 0, 0).To4(), 8).WithIfIndex(1)}
	fb.changes <- want

	select {
	case got := <-stream:
		if got.Route.Prefix != want.Route.Prefix {
			t.Errorf("got prefix %d, want %d", got.Route.Prefix, want.Route.Prefix)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for forwarded change")
	}

	cancel()

	select {
	case _, ok := <-stream:
		if ok {
			t.Fatal("expected stream to close after context cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("stream did not close after context cancellation")
	}
}

func TestCloseDelegatesToBackend(t *testing.T) {
	fb := newFakeBackend()
	h := newTestHandle(fb)

	if err := h.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fb.closed {
		t.Error("expected Close to delegate to the backend")
	}
}

func TestWithTimeoutAppliesConfiguredTimeoutWhenCallerSetsNone(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.OperationTimeout = 10 * time.Millisecond
	h := newHandle(newFakeBackend(), cfg, logger.New(cfg.LogLevel))

	ctx, cancel := h.withTimeout(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected withTimeout to set a deadline")
	}
	if time.Until(deadline) > cfg.OperationTimeout {
		t.Errorf("deadline too far out: %v from now, want <= %v", time.Until(deadline), cfg.OperationTimeout)
	}
}

func TestWithTimeoutLeavesExistingDeadlineAlone(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.OperationTimeout = 10 * time.Millisecond
	h := newHandle(newFakeBackend(), cfg, logger.New(cfg.LogLevel))

	parent, parentCancel := context.WithTimeout(context.Background(), time.Hour)
	defer parentCancel()

	ctx, cancel := h.withTimeout(parent)
	defer cancel()

	deadline, _ := ctx.Deadline()
	if time.Until(deadline) < time.Minute {
		t.Errorf("expected the caller's longer deadline to be preserved, got %v from now", time.Until(deadline))
	}
}

func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*target = e
	}
	return ok
}
