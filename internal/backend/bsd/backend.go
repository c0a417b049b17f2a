//go:build darwin || freebsd

package bsd

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/wesleywu/route-table/internal/config"
	"github.com/wesleywu/route-table/internal/fanout"
	"github.com/wesleywu/route-table/internal/logger"
	"github.com/wesleywu/route-table/internal/rtypes"
)

// listenBufSize is the read buffer for the PF_ROUTE listener, sized well
// above any single rt_msghdr-framed message the kernel sends.
const listenBufSize = 2048

// Backend implements the routetable facade's backend contract over a raw
// PF_ROUTE socket and the two-call sysctl(NET_RT_DUMP) enumeration.
type Backend struct {
	fd      int
	retries int
	bus     *fanout.Bus[rtypes.RouteChange]
	log     *logger.Logger

	seq chan int32

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New opens a non-blocking PF_ROUTE socket and starts the background
// listener that demultiplexes RTM_ADD/RTM_DELETE/RTM_CHANGE notifications
// into the fanout bus.
func New(cfg *config.Config, log *logger.Logger) (*Backend, error) {
	fd, err := unix.Socket(unix.AF_ROUTE, unix.SOCK_RAW, unix.AF_UNSPEC)
	if err != nil {
		return nil, wrapErr("open", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, wrapErr("open", err)
	}

	seq := make(chan int32, 1)
	seq <- 1

	ctx, cancel := context.WithCancel(context.Background())
	b := &Backend{
		fd:      fd,
		retries: cfg.SysctlRetries,
		bus:     fanout.NewWithCapacity[rtypes.RouteChange](cfg.FanoutCapacity),
		log:     log,
		seq:     seq,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go b.listenLoop(ctx)

	return b, nil
}

func (b *Backend) nextSeq() int32 {
	s := <-b.seq
	b.seq <- s + 1
	return s
}

// listenLoop reads RTM_ADD/RTM_DELETE/RTM_CHANGE notifications off the
// route socket and republishes them as RouteChange events: each read is
// validated to carry at least sizeof(rt_msghdr) bytes, only the three
// mutation message types are forwarded, and the trailing attribute block
// is parsed with the same sockaddr walk List uses.
func (b *Backend) listenLoop(ctx context.Context) {
	defer close(b.done)
	buf := make([]byte, listenBufSize)
	pfd := []unix.PollFd{{Fd: int32(b.fd), Events: unix.POLLIN}}

	for {
		if ctx.Err() != nil {
			return
		}
		n, err := unix.Poll(pfd, 500)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			b.log.Warn("PF_ROUTE poll failed", "error", err)
			return
		}
		if n == 0 {
			continue
		}

		nr, err := unix.Read(b.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			select {
			case <-ctx.Done():
				return
			default:
				b.log.Warn("PF_ROUTE read failed", "error", err)
				return
			}
		}
		if nr < int(unsafe.Sizeof(rtMsghdr{})) {
			continue
		}

		pm := parseMessage(buf[:nr])
		if !pm.ok {
			continue
		}

		var change rtypes.ChangeType
		switch pm.msgtype {
		case rtmAdd:
			change = rtypes.RouteAdded
		case rtmDelete:
			change = rtypes.RouteDeleted
		case rtmChange:
			change = rtypes.RouteChanged
		default:
			continue
		}

		b.log.BackendEvent("bsd", change.String(), pm.route.Destination.String())
		b.bus.Publish(rtypes.RouteChange{Type: change, Route: pm.route})
	}
}

// Add installs r by writing an RTM_ADD message and validating the kernel's
// reply.
func (b *Backend) Add(ctx context.Context, r *rtypes.Route) error {
	return b.send(ctx, "add", rtmAdd, r)
}

// Delete removes the route exact-matching r's destination by writing an
// RTM_DELETE message. RTF_GATEWAY is set unconditionally regardless of
// whether r.Gateway is populated; some BSD variants reject a delete for a
// gateway route that omits the flag, and setting it unconditionally costs
// nothing for a route that has none.
func (b *Backend) Delete(ctx context.Context, r *rtypes.Route) error {
	return b.send(ctx, "delete", rtmDelete, r)
}

func (b *Backend) send(ctx context.Context, op string, msgType uint8, r *rtypes.Route) error {
	if r.Gateway != nil && (r.Destination.To4() != nil) != (r.Gateway.To4() != nil) {
		return wrapErr(op, fmt.Errorf("gateway address family must match destination"))
	}

	msg, err := buildMessage(msgType, r, b.nextSeq())
	if err != nil {
		return wrapErr(op, err)
	}

	errCh := make(chan error, 1)
	go func() {
		if _, err := unix.Write(b.fd, msg); err != nil {
			errCh <- err
			return
		}
		errCh <- b.awaitReply(msg)
	}()

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

// awaitReply reads the route socket until it sees the kernel's echoed
// reply to the message just written (same pid, matching msgtype), then
// surfaces any non-zero rtm_errno as a typed error.
func (b *Backend) awaitReply(sent []byte) error {
	sentHdr := (*rtMsghdr)(unsafe.Pointer(&sent[0]))
	pid := int32(unix.Getpid())
	buf := make([]byte, listenBufSize)
	pfd := []unix.PollFd{{Fd: int32(b.fd), Events: unix.POLLIN}}

	for i := 0; i < 50; i++ {
		if _, err := unix.Poll(pfd, 200); err != nil && err != unix.EINTR {
			return err
		}
		n, err := unix.Read(b.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return err
		}
		if n < int(unsafe.Sizeof(rtMsghdr{})) {
			continue
		}
		hdr := (*rtMsghdr)(unsafe.Pointer(&buf[0]))
		if hdr.version != 5 {
			panic("bsd: route socket reply has unexpected rtm_version; kernel ABI drift")
		}
		if hdr.pid != pid || hdr.seq != sentHdr.seq || hdr.msgtype != sentHdr.msgtype {
			continue
		}
		if hdr.errno != 0 {
			return &errnoError{errno: hdr.errno}
		}
		return nil
	}
	return fmt.Errorf("timed out waiting for route socket reply")
}

type errnoError struct{ errno int32 }

func (e *errnoError) Error() string { return fmt.Sprintf("rtm_errno %d", e.errno) }

// List enumerates every IPv4 and IPv6 route via the two-call
// sysctl(NET_RT_DUMP) pattern, retrying up to cfg.SysctlRetries times
// since the required buffer size can race with concurrent kernel updates
// between the sizing call and the fill call.
func (b *Backend) List(ctx context.Context) ([]rtypes.Route, error) {
	var buf []byte
	var err error
	for attempt := 0; attempt < b.retries; attempt++ {
		buf, err = dumpRouteTable()
		if err == nil {
			break
		}
		b.log.DumpRetry(attempt+1, b.retries, err)
	}
	if err != nil {
		return nil, wrapErr("list", err)
	}

	var routes []rtypes.Route
	offset := 0
	for offset+int(unsafe.Sizeof(rtMsghdr{})) <= len(buf) {
		hdr := (*rtMsghdr)(unsafe.Pointer(&buf[offset]))
		if hdr.version != 5 {
			panic("bsd: sysctl(NET_RT_DUMP) record has unexpected rtm_version; kernel ABI drift")
		}
		if hdr.errno != 0 {
			return nil, wrapErrno("list", hdr.errno)
		}
		msgLen := int(hdr.msglen)
		if msgLen <= 0 || offset+msgLen > len(buf) {
			break
		}

		pm := parseMessage(buf[offset : offset+msgLen])
		if pm.ok {
			routes = append(routes, pm.route)
		}
		offset += msgLen

		select {
		case <-ctx.Done():
			return nil, wrapErr("list", ctx.Err())
		default:
		}
	}
	return routes, nil
}

// DefaultRoute returns the first route in dump order whose destination is
// unspecified with a zero prefix, preferring IPv4 over IPv6 since List's
// sysctl dump returns IPv4 records before IPv6 ones.
func (b *Backend) DefaultRoute(ctx context.Context) (*rtypes.Route, error) {
	routes, err := b.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range routes {
		if routes[i].Prefix == 0 && routes[i].Destination.IsUnspecified() && routes[i].Gateway != nil {
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

// Close stops the listener and closes the route socket. Close is
// idempotent.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.cancel()
		b.bus.Close()
		if cerr := unix.Close(b.fd); cerr != nil {
			err = cerr
		}
		<-b.done
	})
	return err
}

// dumpRouteTable performs the two-call sysctl({CTL_NET, AF_ROUTE, 0, 0,
// NET_RT_DUMP, 0}) pattern: one call with a nil buffer to learn the
// required size, a second to fill it.
func dumpRouteTable() ([]byte, error) {
	mib := [6]int32{unix.CTL_NET, unix.AF_ROUTE, 0, 0, unix.NET_RT_DUMP, 0}

	var size uintptr
	if err := sysctl(mib[:], nil, &size); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}

	buf := make([]byte, size)
	if err := sysctl(mib[:], &buf, &size); err != nil {
		return nil, err
	}
	return buf[:size], nil
}

// sysctl wraps the raw __sysctl syscall used for NET_RT_DUMP, which
// golang.org/x/sys/unix does not expose a typed helper for (its Sysctl
// helpers take a dotted name string, not a numeric MIB array).
func sysctl(mib []int32, oldp *[]byte, oldlenp *uintptr) error {
	var oldPtr unsafe.Pointer
	if oldp != nil && *oldp != nil {
		oldPtr = unsafe.Pointer(&(*oldp)[0])
	}
	_, _, errno := unix.Syscall6(
		unix.SYS___SYSCTL,
		uintptr(unsafe.Pointer(&mib[0])),
		uintptr(len(mib)),
		uintptr(oldPtr),
		uintptr(unsafe.Pointer(oldlenp)),
		0,
		0,
	)
	if errno != 0 {
		return errno
	}
	return nil
}
