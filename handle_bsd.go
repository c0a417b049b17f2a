//go:build darwin || freebsd

package routetable

import (
	backendbsd "github.com/wesleywu/route-table/internal/backend/bsd"
)

// New opens a Handle backed by a raw PF_ROUTE socket and sysctl(NET_RT_DUMP).
func New(opts ...Option) (*Handle, error) {
	cfg, log := resolveOptions(opts)

	b, err := backendbsd.New(cfg, log)
	if err != nil {
		return nil, err
	}
	log.HandleOpened("bsd")
	return newHandle(b, cfg, log), nil
}
