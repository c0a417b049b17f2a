//go:build darwin || freebsd

// Package bsd implements the routing-table backend for macOS and FreeBSD
// using a raw PF_ROUTE socket and the two-call sysctl(NET_RT_DUMP) pattern
// described in route(4), covering IPv4, IPv6, and link-layer addresses.
package bsd

// Route message types.
const (
	rtmAdd    = 0x1
	rtmDelete = 0x2
	rtmChange = 0x3
	rtmGet    = 0x4
)

// Route flags.
const (
	rtfUp        = 0x1
	rtfGateway   = 0x2
	rtfHost      = 0x4
	rtfStatic    = 0x800
	rtfWasCloned = 0x20000
)

// rtm_addrs bits, in sockaddr walk order (RTAX_DST, RTAX_GATEWAY,
// RTAX_NETMASK, RTAX_GENMASK, RTAX_IFP, RTAX_IFA, RTAX_AUTHOR, RTAX_BRD).
const (
	rtaDst    = 0x1
	rtaGway   = 0x2
	rtaNetmsk = 0x4
	rtaGenmsk = 0x8
	rtaIfp    = 0x10
	rtaIfa    = 0x20
	rtaAuthor = 0x40
	rtaBrd    = 0x80
)

// Address-family constants used in sockaddr.family; mirrored here rather
// than imported from golang.org/x/sys/unix since this package hand-rolls
// the wire structs those constants describe.
const (
	afInet  = 2
	afInet6 = 30 // AF_INET6 on Darwin/FreeBSD (not the Linux value)
	afLink  = 18
)

// rtMsghdr is the BSD rt_msghdr, unsafe.Pointer-overlaid onto the raw
// message buffer rather than decoded field by field.
type rtMsghdr struct {
	msglen  uint16
	version uint8
	msgtype uint8
	hdrlen  uint16
	index   uint16
	flags   int32
	addrs   int32
	pid     int32
	seq     int32
	errno   int32
	use     int32
	inits   uint32
	rmx     rtMetrics
}

type rtMetrics struct {
	locks    uint32
	mtu      uint32
	hopcount uint32
	expire   int32
	recvpipe uint32
	sendpipe uint32
	ssthresh uint32
	rtt      uint32
	rttvar   uint32
	pksent   uint32
	weight   uint32
	filler   [3]uint32
}

// sockaddrInet4 is sockaddr_in: 4-byte address, 4-byte aligned.
type sockaddrInet4 struct {
	len    uint8
	family uint8
	port   uint16
	addr   [4]byte
	zero   [8]byte
}

// sockaddrInet6 is sockaddr_in6.
type sockaddrInet6 struct {
	len      uint8
	family   uint8
	port     uint16
	flowinfo uint32
	addr     [16]byte
	scopeID  uint32
}

// sockaddrDL is sockaddr_dl, used to carry an interface index without a
// name when adding a route via RTAX_IFP.
type sockaddrDL struct {
	len    uint8
	family uint8
	index  uint16
	dtype  uint8
	nlen   uint8
	alen   uint8
	slen   uint8
	data   [12]byte
}

// roundUp 4-byte-aligns size, matching the BSD sockaddr walk's alignment
// rule (every sockaddr in the rt_msghdr addrs array is padded to a
// multiple of 4 bytes regardless of its own .len field).
func roundUp(size int) int {
	if size == 0 {
		return 4
	}
	return (size + 3) &^ 3
}
