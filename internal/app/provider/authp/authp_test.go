package authp

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf_BoundaryError(t *testing.T) {
	err := &Error{Code: CodeInvalidCredentials, Op: "signin"}
	if got := CodeOf(err); got != CodeInvalidCredentials {
		t.Errorf("CodeOf = %q, want %q", got, CodeInvalidCredentials)
	}
}

func TestCodeOf_Wrapped(t *testing.T) {
	inner := &Error{Code: CodeRequiresRecentAuth, Op: "update-password"}
	wrapped := fmt.Errorf("change password: %w", inner)
	if got := CodeOf(wrapped); got != CodeRequiresRecentAuth {
		t.Errorf("CodeOf wrapped = %q, want %q", got, CodeRequiresRecentAuth)
	}
}

func TestCodeOf_ForeignError(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != CodeUnavailable {
		t.Errorf("CodeOf foreign = %q, want %q", got, CodeUnavailable)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &Error{Code: CodeUnavailable, Op: "signin", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the underlying cause")
	}
}
