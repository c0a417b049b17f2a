//go:build darwin || freebsd

package bsd

import (
	"encoding/binary"
	"math/bits"
	"net"

	"github.com/wesleywu/route-table/internal/rtypes"
)

// encodeSockaddr returns the raw bytes for ip's sockaddr, sized per its
// address family. IPv4 uses sockaddr_in (16 bytes incl. len/family/port),
// IPv6 uses sockaddr_in6.
func encodeSockaddr(ip net.IP) []byte {
	if v4 := ip.To4(); v4 != nil {
		sa := sockaddrInet4{len: 16, family: afInet}
		copy(sa.addr[:], v4)
		return structBytes(&sa, 16)
	}
	sa := sockaddrInet6{len: 28, family: afInet6}
	v6 := ip.To16()
	copy(sa.addr[:], embedZone(v6, 0))
	return structBytes(&sa, 28)
}

// encodeMask returns the raw sockaddr bytes for a netmask. BSD encodes a
// netmask sockaddr with family 0 and only as many address bytes as the
// mask's leading-ones prefix requires; callers commonly encode the full
// width for simplicity, which every BSD route(4) consumer accepts.
func encodeMask(mask net.IPMask, isV6 bool) []byte {
	if !isV6 {
		sa := sockaddrInet4{len: 16, family: afInet}
		copy(sa.addr[:], mask)
		return structBytes(&sa, 16)
	}
	sa := sockaddrInet6{len: 28, family: afInet6}
	copy(sa.addr[:], mask)
	return structBytes(&sa, 28)
}

// encodeIfp returns the sockaddr_dl bytes identifying an interface solely
// by index, used when a route specifies IfIndex instead of Gateway.
func encodeIfp(ifindex uint32) []byte {
	sa := sockaddrDL{len: 20, family: afLink, index: uint16(ifindex)}
	return structBytes(&sa, 20)
}

// embedZone mirrors the kernel's in6_embedscope: for a link-local address,
// the interface index is folded into bytes 2:4 of the address on the wire.
// Decoding must reverse this before returning the address to callers, see
// stripZone.
func embedZone(ip net.IP, zone uint32) net.IP {
	out := make(net.IP, len(ip))
	copy(out, ip)
	if out.IsLinkLocalUnicast() && zone != 0 {
		binary.BigEndian.PutUint16(out[2:4], uint16(zone))
	}
	return out
}

// stripZone reverses embedZone: if addr is link-local, bytes 2:4 may carry
// an embedded scope id rather than address bits and must be cleared so the
// returned net.IP matches the address an application would recognize.
func stripZone(addr net.IP) net.IP {
	out := make(net.IP, len(addr))
	copy(out, addr)
	if out.IsLinkLocalUnicast() {
		out[2] = 0
		out[3] = 0
	}
	return out
}

// prefixFromMask returns the number of leading one-bits in a netmask
// payload that is known to have been present on the wire (the caller
// tracks presence separately). An empty or all-zero mask — the common
// encoding for a default route's netmask, whose sockaddr carries sa_len
// == 0 — correctly yields prefix 0, not width; a route with no netmask
// address at all is a distinct case the caller handles by defaulting to
// width itself rather than going through this function.
func prefixFromMask(mask []byte, width int) uint8 {
	ones := 0
	for _, b := range mask {
		if b == 0 {
			break
		}
		ones += bits.OnesCount8(b)
	}
	if ones > width {
		ones = width
	}
	return uint8(ones)
}

// rtmErrnoToKind maps a BSD rtm_errno value (as echoed back in rt_msghdr
// on a failed request) to the portable Kind taxonomy.
func rtmErrnoToKind(errno int32) rtypes.Kind {
	switch errno {
	case 17: // EEXIST
		return rtypes.KindAlreadyExists
	case 3: // ESRCH (no such route)
		return rtypes.KindNotFound
	case 1: // EPERM
		return rtypes.KindPermissionDenied
	case 55: // ENOBUFS
		return rtypes.KindOutOfMemory
	case 22: // EINVAL
		return rtypes.KindInvalidInput
	default:
		return rtypes.KindOther
	}
}
