// internal/app/provider/authp/authp.go

// Package authp defines the auth-provider boundary: the credential
// operations PrimeBug consumes and the closed set of error codes they can
// fail with. Provider-specific failures are mapped to these codes once, at
// the boundary; nothing deeper in the call chain inspects raw provider
// errors.
package authp

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is the provider-verified reference to a signed-in person.
type Identity struct {
	UID         primitive.ObjectID
	DisplayName string
	Email       string
}

// Code classifies provider failures. The set is closed: callers switch on
// these values to pick user-facing copy and must treat unknown codes as
// CodeUnavailable.
type Code string

const (
	// CodeInvalidCredentials covers wrong email/password combinations.
	CodeInvalidCredentials Code = "invalid-credentials"
	// CodeEmailInUse is returned by SignUp when the email is taken.
	CodeEmailInUse Code = "email-in-use"
	// CodeWeakPassword is returned when a password fails the policy.
	CodeWeakPassword Code = "weak-password"
	// CodeUserNotFound is returned for operations on unknown accounts.
	CodeUserNotFound Code = "user-not-found"
	// CodeRequiresRecentAuth means the caller must re-verify credentials
	// before the operation (stale session changing a password).
	CodeRequiresRecentAuth Code = "requires-recent-auth"
	// CodeExpiredToken is returned for used or expired reset tokens.
	CodeExpiredToken Code = "expired-token"
	// CodeUnavailable covers transport and storage failures.
	CodeUnavailable Code = "unavailable"
)

// Error is the tagged error every Provider method returns on failure.
type Error struct {
	Code Code
	Op   string // operation name, e.g. "signin"
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authp: %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("authp: %s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the provider code from err, or CodeUnavailable when err
// is not a boundary error.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeUnavailable
}

// Provider is the credential service boundary.
type Provider interface {
	// SignUp creates an account and returns its identity. The caller is
	// responsible for creating the matching profile record.
	SignUp(ctx context.Context, email, password, displayName string) (Identity, error)

	// SignIn verifies credentials and returns the identity.
	SignIn(ctx context.Context, email, password string) (Identity, error)

	// SendPasswordReset issues a reset token and mails it. Unknown emails
	// return CodeUserNotFound; callers may choose not to reveal that.
	SendPasswordReset(ctx context.Context, email string) error

	// ResetPassword completes an emailed reset with its one-time token.
	ResetPassword(ctx context.Context, token, newPassword string) error

	// UpdatePassword changes uid's password after re-verifying the current
	// one. A wrong current password fails with CodeRequiresRecentAuth.
	UpdatePassword(ctx context.Context, uid primitive.ObjectID, currentPassword, newPassword string) error
}
