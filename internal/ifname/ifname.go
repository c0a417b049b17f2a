// Package ifname provides the minimal interface name/index lookup a
// routing-table library needs; it is intentionally not a general interface
// management layer.
package ifname

import "net"

// ByIndex returns the name of the interface with the given index, or ""
// if it cannot be resolved.
func ByIndex(index uint32) string {
	iface, err := net.InterfaceByIndex(int(index))
	if err != nil {
		return ""
	}
	return iface.Name
}

// ByName returns the index of the interface with the given name, or an
// error if it does not exist.
func ByName(name string) (uint32, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return 0, err
	}
	return uint32(iface.Index), nil
}
