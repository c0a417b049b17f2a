//go:build linux

package routetable

import (
	backendlinux "github.com/wesleywu/route-table/internal/backend/linux"
)

// New opens a Handle backed by Linux rtnetlink.
func New(opts ...Option) (*Handle, error) {
	cfg, log := resolveOptions(opts)

	b, err := backendlinux.New(cfg, log)
	if err != nil {
		return nil, err
	}
	log.HandleOpened("linux")
	return newHandle(b, cfg, log), nil
}
