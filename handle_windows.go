//go:build windows

package routetable

import (
	backendwindows "github.com/wesleywu/route-table/internal/backend/windows"
)

// New opens a Handle backed by the Windows IP Helper API.
func New(opts ...Option) (*Handle, error) {
	cfg, log := resolveOptions(opts)

	b, err := backendwindows.New(cfg, log)
	if err != nil {
		return nil, err
	}
	log.HandleOpened("windows")
	return newHandle(b, cfg, log), nil
}
