//go:build darwin || freebsd

package bsd

import "github.com/wesleywu/route-table/internal/rtypes"

func wrapErr(op string, err error) *rtypes.Error {
	if err == nil {
		return nil
	}
	return &rtypes.Error{Op: op, Kind: rtypes.KindOther, Err: err}
}

func wrapErrno(op string, errno int32) *rtypes.Error {
	if errno == 0 {
		return nil
	}
	return &rtypes.Error{Op: op, Kind: rtmErrnoToKind(errno)}
}
