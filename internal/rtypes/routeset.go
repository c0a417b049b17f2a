package rtypes

import (
	"github.com/cespare/xxhash/v2"
)

// RouteSet deduplicates routes keyed on destination, prefix length, and
// table. List implementations use it to drop dump entries that repeat a
// destination/prefix already seen in the same table; the same destination
// in two different tables yields two distinct keys and both are kept.
type RouteSet struct {
	seen map[uint64]struct{}
}

// NewRouteSet returns an empty RouteSet.
func NewRouteSet() *RouteSet {
	return &RouteSet{seen: make(map[uint64]struct{})}
}

// Add reports whether r's key was not already present, inserting it if so.
// A false return means r is a duplicate of a route already added.
func (s *RouteSet) Add(r Route) bool {
	key := routeKey(r)
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// routeKey hashes the fields that identify a route's slot in the table:
// destination, prefix length, and table ID. Gateway and metric are
// deliberately excluded, matching the kernel's own notion of a route's
// identity for replace-vs-insert purposes.
func routeKey(r Route) uint64 {
	h := xxhash.New()

	dst4 := r.Destination.To4()
	if dst4 != nil {
		_, _ = h.Write(dst4)
	} else if r.Destination != nil {
		_, _ = h.Write(r.Destination.To16())
	}
	_, _ = h.Write([]byte{r.Prefix, r.Table})

	return h.Sum64()
}
