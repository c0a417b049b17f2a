//go:build windows

package windows

import (
	"fmt"

	"github.com/wesleywu/route-table/internal/rtypes"
)

// Windows error codes returned by the IP Helper API calls this package
// makes, mapped onto the portable Kind taxonomy below.
const (
	errorNotFound           = 2
	errorFileNotFound       = 1168
	errorObjectAlreadyExist = 5010
	errorAccessDenied       = 5
)

// winError wraps a non-zero Win32 return code from an IP Helper call into
// a Go error carrying the numeric code, so wrapErr can classify it.
func winError(code uintptr, api string) error {
	return &winAPIError{code: code, api: api}
}

type winAPIError struct {
	code uintptr
	api  string
}

func (e *winAPIError) Error() string {
	return fmt.Sprintf("%s failed: code %d", e.api, e.code)
}

// wrapErr maps a winAPIError's code onto the portable Kind taxonomy:
// ERROR_NOT_FOUND/ERROR_FILE_NOT_FOUND to NotFound, ERROR_OBJECT_ALREADY_EXISTS
// to AlreadyExists, ERROR_ACCESS_DENIED to PermissionDenied.
func wrapErr(op string, err error) *rtypes.Error {
	if err == nil {
		return nil
	}
	if w, ok := err.(*winAPIError); ok {
		switch w.code {
		case errorNotFound, errorFileNotFound:
			return &rtypes.Error{Op: op, Kind: rtypes.KindNotFound, Err: err}
		case errorObjectAlreadyExist:
			return &rtypes.Error{Op: op, Kind: rtypes.KindAlreadyExists, Err: err}
		case errorAccessDenied:
			return &rtypes.Error{Op: op, Kind: rtypes.KindPermissionDenied, Err: err}
		}
	}
	return &rtypes.Error{Op: op, Kind: rtypes.KindOther, Err: err}
}

func wrapCode(op string, code uintptr, api string) *rtypes.Error {
	if code == 0 {
		return nil
	}
	return wrapErr(op, winError(code, api))
}
