//go:build windows

// Package windows implements the routing-table backend for Windows using
// the IP Helper API (GetIpForwardTable2, CreateIpForwardEntry2,
// DeleteIpForwardEntry2, NotifyRouteChange2), called through
// golang.org/x/sys/windows's lazy DLL binding rather than cgo.
package windows

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modIPHlpAPI = windows.NewLazySystemDLL("iphlpapi.dll")

	procInitializeIpForwardEntry = modIPHlpAPI.NewProc("InitializeIpForwardEntry")
	procCreateIpForwardEntry2    = modIPHlpAPI.NewProc("CreateIpForwardEntry2")
	procDeleteIpForwardEntry2    = modIPHlpAPI.NewProc("DeleteIpForwardEntry2")
	procGetIpForwardTable2       = modIPHlpAPI.NewProc("GetIpForwardTable2")
	procFreeMibTable             = modIPHlpAPI.NewProc("FreeMibTable")
	procNotifyRouteChange2       = modIPHlpAPI.NewProc("NotifyRouteChange2")
	procCancelMibChangeNotify2   = modIPHlpAPI.NewProc("CancelMibChangeNotify2")
)

// mibNotificationType mirrors MIB_NOTIFICATION_TYPE.
type mibNotificationType int32

const (
	mibParameterNotification mibNotificationType = 0
	mibAddInstance           mibNotificationType = 1
	mibDeleteInstance        mibNotificationType = 2
	mibInitialNotification   mibNotificationType = 3
)

// sockaddrInet mirrors SOCKADDR_INET: a 2-byte address family followed by
// the union of sockaddr_in and sockaddr_in6 payloads, 28 bytes total (the
// size of the larger, IPv6, member).
//
//	offset 0:  si_family (2 bytes)
//	offset 2:  port / unused for routing (2 bytes)
//	offset 4:  IPv4 addr (4 bytes) or IPv6 flowinfo (4 bytes)
//	offset 8:  (IPv6 only) address (16 bytes)
//	offset 24: (IPv6 only) scope id (4 bytes)
type sockaddrInet struct {
	family uint16
	port   uint16
	data   [24]byte
}

// mibIPForwardRow2 mirrors MIB_IPFORWARD_ROW2, 104 bytes on amd64/arm64:
//
//	0:   NET_LUID          InterfaceLuid      (8)
//	8:   NET_IFINDEX       InterfaceIndex     (4)
//	12:  IP_ADDRESS_PREFIX DestinationPrefix  (32 = SOCKADDR_INET(28) + PrefixLength(1) + pad(3))
//	44:  SOCKADDR_INET     NextHop            (28)
//	72:  UCHAR             SitePrefixLength   (1 + 3 pad)
//	76:  ULONG             ValidLifetime      (4)
//	80:  ULONG             PreferredLifetime  (4)
//	84:  ULONG             Metric             (4)
//	88:  NL_ROUTE_PROTOCOL Protocol           (4)
//	92:  BOOLEAN[4]        Loopback..Immortal (4)
//	96:  ULONG             Age                (4)
//	100: NL_ROUTE_ORIGIN   Origin             (4)
type mibIPForwardRow2 struct {
	interfaceLUID      uint64
	interfaceIndex     uint32
	destPrefix         sockaddrInet
	destPrefixLength   uint8
	_                  [3]byte
	nextHop            sockaddrInet
	sitePrefixLength   uint8
	_                  [3]byte
	validLifetime      uint32
	preferredLifetime  uint32
	metric             uint32
	protocol           int32
	loopback           byte
	autoconfigAddress  byte
	publish            byte
	immortal           byte
	age                uint32
	origin             int32
}

// mibIPForwardTable2 mirrors MIB_IPFORWARD_TABLE2's header; Table is a
// variable-length array of mibIPForwardRow2 immediately following
// NumEntries (with native alignment padding on 64-bit).
type mibIPForwardTable2Header struct {
	numEntries uint32
}

func initializeIPForwardEntry(row *mibIPForwardRow2) {
	procInitializeIpForwardEntry.Call(uintptr(unsafe.Pointer(row)))
}

func createIPForwardEntry2(row *mibIPForwardRow2) uintptr {
	r, _, _ := procCreateIpForwardEntry2.Call(uintptr(unsafe.Pointer(row)))
	return r
}

func deleteIPForwardEntry2(row *mibIPForwardRow2) uintptr {
	r, _, _ := procDeleteIpForwardEntry2.Call(uintptr(unsafe.Pointer(row)))
	return r
}

// getIPForwardTable2 calls GetIpForwardTable2(AF_UNSPEC, &table) and
// returns the raw table pointer; callers must free it with
// freeMibTable.
func getIPForwardTable2() (unsafe.Pointer, error) {
	var table unsafe.Pointer
	r, _, _ := procGetIpForwardTable2.Call(
		uintptr(windows.AF_UNSPEC),
		uintptr(unsafe.Pointer(&table)),
	)
	if r != 0 {
		return nil, winError(r, "GetIpForwardTable2")
	}
	return table, nil
}

func freeMibTable(table unsafe.Pointer) {
	procFreeMibTable.Call(uintptr(table))
}

const ipForwardRow2Size = unsafe.Sizeof(mibIPForwardRow2{})

// forwardRowAt returns the i'th MIB_IPFORWARD_ROW2 in a table returned by
// getIPForwardTable2. headerSize accounts for the 8-byte alignment pad
// between the table's NumEntries field and its Table array on 64-bit
// Windows.
func forwardRowAt(table unsafe.Pointer, i uint32) *mibIPForwardRow2 {
	const headerSize = unsafe.Sizeof(uint64(0))
	return (*mibIPForwardRow2)(unsafe.Pointer(uintptr(table) + headerSize + uintptr(i)*ipForwardRow2Size))
}

func tableNumEntries(table unsafe.Pointer) uint32 {
	return *(*uint32)(table)
}

func notifyRouteChange2(callback uintptr, context unsafe.Pointer) (windows.Handle, error) {
	var handle windows.Handle
	r, _, _ := procNotifyRouteChange2.Call(
		uintptr(windows.AF_UNSPEC),
		callback,
		uintptr(context),
		0, // InitialNotification = FALSE
		uintptr(unsafe.Pointer(&handle)),
	)
	if r != 0 {
		return 0, winError(r, "NotifyRouteChange2")
	}
	return handle, nil
}

func cancelMibChangeNotify2(handle windows.Handle) {
	procCancelMibChangeNotify2.Call(uintptr(handle))
}
