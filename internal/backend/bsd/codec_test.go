//go:build darwin || freebsd

package bsd

import (
	"net"
	"testing"

	"github.com/wesleywu/route-table/internal/rtypes"
)

func TestPrefixFromMask(t *testing.T) {
	cases := []struct {
		mask  []byte
		width int
		want  uint8
	}{
		{nil, 32, 0},
		{[]byte{255, 255, 255, 0}, 32, 24},
		{[]byte{255, 255, 255, 248}, 32, 29},
		{[]byte{192, 0, 0, 0}, 32, 2},
		{[]byte{0, 0, 0, 0}, 32, 0},
	}
	for _, tc := range cases {
		if got := prefixFromMask(tc.mask, tc.width); got != tc.want {
			t.Errorf("prefixFromMask(%v, %d) = %d, want %d", tc.mask, tc.width, got, tc.want)
		}
	}
}

func TestRoundUpAlignment(t *testing.T) {
	cases := map[int]int{0: 4, 1: 4, 4: 4, 5: 8, 16: 16, 17: 20}
	for in, want := range cases {
		if got := roundUp(in); got != want {
			t.Errorf("roundUp(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestStripZoneClearsLinkLocalBytes(t *testing.T) {
	addr := net.ParseIP("fe80::1")
	addr[2] = 0x12
	addr[3] = 0x34

	stripped := stripZone(addr)
	if stripped[2] != 0 || stripped[3] != 0 {
		t.Errorf("expected bytes 2:4 cleared, got %v", stripped[2:4])
	}
}

func TestStripZoneLeavesGlobalAddressUntouched(t *testing.T) {
	addr := net.ParseIP("2001:db8::1")
	stripped := stripZone(addr)
	if !stripped.Equal(addr) {
		t.Errorf("expected global address untouched, got %s", stripped)
	}
}

func TestRtmErrnoToKind(t *testing.T) {
	cases := map[int32]rtypes.Kind{
		17: rtypes.KindAlreadyExists,
		3:  rtypes.KindNotFound,
		1:  rtypes.KindPermissionDenied,
		22: rtypes.KindInvalidInput,
		99: rtypes.KindOther,
	}
	for errno, want := range cases {
		if got := rtmErrnoToKind(errno); got != want {
			t.Errorf("rtmErrnoToKind(%d) = %v, want %v", errno, got, want)
		}
	}
}

func TestEncodeDecodeSockaddrRoundTripIPv4(t *testing.T) {
	ip := net.IPv4(192, 0, 2, 1).To4()
	raw := encodeSockaddr(ip)

	gotIP, _, ok := decodeAddr(raw, afInet)
	if !ok {
		t.Fatal("expected decodeAddr to succeed")
	}
	if !gotIP.Equal(ip) {
		t.Errorf("round-tripped IP = %s, want %s", gotIP, ip)
	}
}
