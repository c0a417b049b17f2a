//go:build darwin || freebsd

package bsd

import (
	"net"
	"syscall"
	"unsafe"

	"github.com/wesleywu/route-table/internal/rtypes"
)

// structBytes copies n bytes starting at the address of v into a fresh
// slice, overlaying the wire struct directly onto memory rather than
// hand-writing a field-by-field encoder.
func structBytes(v interface{}, n int) []byte {
	var ptr unsafe.Pointer
	switch p := v.(type) {
	case *sockaddrInet4:
		ptr = unsafe.Pointer(p)
	case *sockaddrInet6:
		ptr = unsafe.Pointer(p)
	case *sockaddrDL:
		ptr = unsafe.Pointer(p)
	default:
		panic("bsd: structBytes: unsupported type")
	}
	out := make([]byte, n)
	copy(out, (*[64]byte)(ptr)[:n])
	return out
}

// buildMessage encodes r into a raw rt_msghdr-framed buffer for msgType
// (rtmAdd or rtmDelete). RTF_STATIC|RTF_UP are always set; RTF_GATEWAY is
// set unconditionally on delete (the kernel ignores it if no gateway is
// actually installed, and omitting it risks the delete being rejected for
// routes that do have one) and whenever a gateway is supplied on add. The
// gateway sockaddr itself is only written on add — a delete identifies the
// route by destination and mask alone.
func buildMessage(msgType uint8, r *rtypes.Route, seq int32) ([]byte, error) {
	isV6 := r.Destination.To4() == nil

	dst := encodeSockaddr(r.Destination)
	mask := encodeMask(r.Mask(), isV6)

	var gw, ifp []byte
	addrs := int32(rtaDst | rtaNetmsk)
	flags := int32(rtfUp | rtfStatic)

	if msgType == rtmDelete {
		flags |= rtfGateway
	} else if r.Gateway != nil {
		flags |= rtfGateway
		gw = encodeSockaddr(r.Gateway)
		addrs |= rtaGway
	} else if r.IfIndex != nil {
		ifp = encodeIfp(*r.IfIndex)
		addrs |= rtaIfp
	}

	hdrSize := int(unsafe.Sizeof(rtMsghdr{}))
	size := hdrSize + roundUp(len(dst)) + roundUp(len(gw)) + roundUp(len(mask)) + roundUp(len(ifp))

	buf := make([]byte, size)
	hdr := (*rtMsghdr)(unsafe.Pointer(&buf[0]))
	hdr.msglen = uint16(size)
	hdr.version = 5 // RTM_VERSION
	hdr.msgtype = msgType
	hdr.hdrlen = uint16(hdrSize)
	hdr.flags = flags
	hdr.addrs = addrs
	hdr.pid = int32(syscall.Getpid())
	hdr.seq = seq

	offset := hdrSize
	offset = writeAt(buf, offset, dst)
	if len(gw) > 0 {
		offset = writeAt(buf, offset, gw)
	}
	offset = writeAt(buf, offset, mask)
	if len(ifp) > 0 {
		writeAt(buf, offset, ifp)
	}

	return buf, nil
}

func writeAt(buf []byte, offset int, sa []byte) int {
	if len(sa) == 0 {
		return offset
	}
	copy(buf[offset:], sa)
	return offset + roundUp(len(sa))
}

// parsedMessage is the decoded form of a single rt_msghdr-framed message.
type parsedMessage struct {
	msgtype uint8
	errno   int32
	route   rtypes.Route
	ok      bool
}

// parseMessage decodes a single raw message read from the PF_ROUTE socket
// or one frame of a sysctl(NET_RT_DUMP) buffer. Requires RTAX_DST to be
// present; returns ok=false for messages that should be skipped
// (RTF_WASCLONED, or a missing destination).
func parseMessage(buf []byte) parsedMessage {
	if len(buf) < int(unsafe.Sizeof(rtMsghdr{})) {
		return parsedMessage{}
	}
	hdr := (*rtMsghdr)(unsafe.Pointer(&buf[0]))
	if hdr.flags&rtfWasCloned != 0 {
		return parsedMessage{}
	}

	offset := int(hdr.hdrlen)
	var dst, gw net.IP
	var maskRaw []byte
	haveMask := false
	var ifidx uint32

	for bit := 1; bit <= rtaBrd && offset < len(buf); bit <<= 1 {
		if hdr.addrs&int32(bit) == 0 {
			continue
		}
		if offset >= len(buf) {
			break
		}
		saLen := int(buf[offset])

		switch bit {
		case rtaDst, rtaGway:
			family := buf[offset+1]
			ip, idx, ok := decodeAddr(buf[offset:], family)
			if ok {
				if bit == rtaDst {
					dst = ip
				} else if ip != nil {
					gw = ip
				} else {
					ifidx = idx
				}
			}
		case rtaNetmsk:
			// The netmask sockaddr's own family/len bytes are
			// unreliable: a default route's netmask commonly arrives
			// with sa_len == 0 and sa_family == 0, carrying no address
			// bytes at all. The mask's width and header size instead
			// follow the destination's family, and any bytes the
			// sockaddr is too short to supply are treated as trailing
			// zeros rather than left undecoded.
			headerLen, maskLen := 4, 4
			if dst != nil && dst.To4() == nil {
				headerLen, maskLen = 8, 16
			}
			raw := make([]byte, maskLen)
			if saLen > headerLen {
				end := offset + saLen
				if end > len(buf) {
					end = len(buf)
				}
				start := offset + headerLen
				if start < end {
					copy(raw, buf[start:end])
				}
			}
			maskRaw = raw
			haveMask = true
		}

		adv := saLen
		if adv == 0 {
			adv = 4
		}
		offset += roundUp(adv)
	}

	if dst == nil {
		return parsedMessage{}
	}

	width := 32
	if dst.To4() == nil {
		width = 128
	}

	prefix := uint8(width)
	if haveMask {
		prefix = prefixFromMask(maskRaw, width)
	}

	route := rtypes.Route{
		Destination: dst,
		Prefix:      prefix,
		Gateway:     gw,
	}
	if ifidx != 0 {
		idx := ifidx
		route.IfIndex = &idx
	}

	return parsedMessage{
		msgtype: hdr.msgtype,
		errno:   hdr.errno,
		route:   route,
		ok:      true,
	}
}

// decodeAddr reads a single sockaddr at the front of buf. Returns the IP
// for an inet/inet6 family, or a zero IP plus an interface index for a
// link-layer (sockaddr_dl) family.
func decodeAddr(buf []byte, family byte) (net.IP, uint32, bool) {
	switch family {
	case afInet:
		if len(buf) < 8 {
			return nil, 0, false
		}
		ip := net.IP(append([]byte(nil), buf[4:8]...))
		return ip, 0, true
	case afInet6:
		if len(buf) < 24 {
			return nil, 0, false
		}
		ip := stripZone(net.IP(append([]byte(nil), buf[8:24]...)))
		return ip, 0, true
	case afLink:
		if len(buf) < 4 {
			return nil, 0, false
		}
		sa := (*sockaddrDL)(unsafe.Pointer(&buf[0]))
		return nil, uint32(sa.index), true
	default:
		return nil, 0, false
	}
}
