//go:build darwin || freebsd

package bsd

import (
	"net"
	"testing"
	"unsafe"
)

// buildDumpFrame assembles a minimal rt_msghdr-framed message carrying only
// RTAX_DST and, optionally, a zero-filled RTAX_NETMASK sockaddr whose sa_len
// is maskSaLen (the whole sockaddr length, header included). A maskSaLen of
// zero, as a default route's netmask sockaddr commonly carries, yields a
// 4-byte slot of zeros.
func buildDumpFrame(dst net.IP, includeMask bool, maskSaLen int) []byte {
	hdrSize := int(unsafe.Sizeof(rtMsghdr{}))
	dstSA := encodeSockaddr(dst)

	addrs := int32(rtaDst)
	var maskSA []byte
	if includeMask {
		addrs |= rtaNetmsk
		maskSA = make([]byte, roundUp(maskSaLen))
		if maskSaLen > 0 {
			maskSA[0] = byte(maskSaLen)
		}
	}

	size := hdrSize + roundUp(len(dstSA)) + len(maskSA)
	buf := make([]byte, size)
	hdr := (*rtMsghdr)(unsafe.Pointer(&buf[0]))
	hdr.msglen = uint16(size)
	hdr.version = 5
	hdr.msgtype = rtmAdd
	hdr.hdrlen = uint16(hdrSize)
	hdr.addrs = addrs

	offset := hdrSize
	copy(buf[offset:], dstSA)
	offset += roundUp(len(dstSA))
	if includeMask {
		copy(buf[offset:], maskSA)
	}
	return buf
}

func TestParseMessageEmptyNetmaskIsDefaultRoute(t *testing.T) {
	buf := buildDumpFrame(net.IPv4zero, true, 0)
	pm := parseMessage(buf)
	if !pm.ok {
		t.Fatal("expected parseMessage to succeed")
	}
	if pm.route.Prefix != 0 {
		t.Errorf("Prefix = %d, want 0 for an empty netmask sockaddr", pm.route.Prefix)
	}
}

func TestParseMessageAbsentNetmaskDefaultsToFullWidth(t *testing.T) {
	buf := buildDumpFrame(net.IPv4(192, 0, 2, 1), false, 0)
	pm := parseMessage(buf)
	if !pm.ok {
		t.Fatal("expected parseMessage to succeed")
	}
	if pm.route.Prefix != 32 {
		t.Errorf("Prefix = %d, want 32 when no netmask address is present at all", pm.route.Prefix)
	}
}

func TestParseMessagePresentNetmaskComputesPrefix(t *testing.T) {
	buf := buildDumpFrame(net.IPv4(192, 0, 2, 0), true, 8)
	// The mask payload bytes default to zero from make(); overwrite with a
	// /24 mask at the offset decodeAddr-style code expects (4 bytes in,
	// matching sockaddr_in's addr field).
	hdrSize := int(unsafe.Sizeof(rtMsghdr{}))
	dstSA := encodeSockaddr(net.IPv4(192, 0, 2, 0))
	maskOffset := hdrSize + roundUp(len(dstSA))
	buf[maskOffset+4] = 255
	buf[maskOffset+5] = 255
	buf[maskOffset+6] = 255
	buf[maskOffset+7] = 0

	pm := parseMessage(buf)
	if !pm.ok {
		t.Fatal("expected parseMessage to succeed")
	}
	if pm.route.Prefix != 24 {
		t.Errorf("Prefix = %d, want 24", pm.route.Prefix)
	}
}
