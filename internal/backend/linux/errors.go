//go:build linux

package linux

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/wesleywu/route-table/internal/rtypes"
)

var errFamilyMismatch = errors.New("gateway address family must match destination")

// wrapErr maps a netlink/errno error to a *rtypes.Error, matching the
// taxonomy Linux's rtnetlink replies surface via NLMSG_ERROR.
func wrapErr(op string, err error) *rtypes.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errFamilyMismatch) {
		return &rtypes.Error{Op: op, Kind: rtypes.KindInvalidInput, Err: err}
	}
	return &rtypes.Error{Op: op, Kind: errnoToKind(err), Err: err}
}

// errnoToKind maps the Linux errno an rtnetlink request failed with onto
// the portable Kind taxonomy.
func errnoToKind(err error) rtypes.Kind {
	switch {
	case errors.Is(err, unix.EEXIST):
		return rtypes.KindAlreadyExists
	case errors.Is(err, unix.ESRCH), errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENOENT):
		return rtypes.KindNotFound
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return rtypes.KindPermissionDenied
	case errors.Is(err, unix.ENOBUFS), errors.Is(err, unix.ENOMEM):
		return rtypes.KindOutOfMemory
	case errors.Is(err, unix.EINVAL):
		return rtypes.KindInvalidInput
	default:
		return rtypes.KindOther
	}
}
