package rtypes

import (
	"errors"
	"testing"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := newError("add", KindInvalidInput, cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to find the wrapped cause")
	}
	if err.Error() == "" {
		t.Error("expected non-empty error message")
	}
}

func TestIsRetryable(t *testing.T) {
	if (&Error{Kind: KindOutOfMemory}).IsRetryable() != true {
		t.Error("expected KindOutOfMemory to be retryable")
	}
	if (&Error{Kind: KindNotFound}).IsRetryable() != false {
		t.Error("expected KindNotFound to not be retryable")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindInvalidInput:     "invalid_input",
		KindNotFound:         "not_found",
		KindAlreadyExists:    "already_exists",
		KindPermissionDenied: "permission_denied",
		KindOutOfMemory:      "out_of_memory",
		KindOther:            "other",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
