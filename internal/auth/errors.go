package auth

import (
	"errors"
	"fmt"
)

// Kind classifies flow failures.
type Kind int

// Failure kinds. The zero value is KindInternal so unclassified errors stay opaque.
const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidRequest
	KindInvalidCredentials
	KindConflict
	KindInvalidAssertion
	KindConfiguration
	KindIdentityResolution
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindInvalidRequest:
		return "invalid_request"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindConflict:
		return "conflict"
	case KindInvalidAssertion:
		return "invalid_assertion"
	case KindConfiguration:
		return "configuration_error"
	case KindIdentityResolution:
		return "identity_resolution_failed"
	default:
		return "internal_error"
	}
}

// Error codes that refine a Kind.
const (
	CodeTokenUsedTooEarly = "token_used_too_early"
	CodeEmailMissing      = "email_missing"
)

// Client-facing messages.
const (
	msgInvalidCredentials   = "Invalid Email or Password"
	msgEmailTaken           = "User with given email already Exist!"
	msgInternal             = "Internal Server Error"
	msgGoogleInternal       = "Google authentication failed"
	msgGoogleNotConfigured  = "Google OAuth not configured"
	msgCredentialRequired   = "Google credential is required"
	msgInvalidGoogleToken   = "Invalid Google token"
	msgTokenTooEarly        = "Token validation failed. Please try again."
	msgEmailMissing         = "Email not provided by Google"
	msgResolutionFailed     = "Failed to create or update user"
	msgHashingNotConfigured = "Password hashing not configured"
	msgSigningNotConfigured = "Token signing not configured"
)

// Error is a flow failure. Message is safe to show to clients; Err holds the
// internal cause and must only be exposed in development diagnostics.
type Error struct {
	Kind    Kind
	Code    string
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Detail returns the internal cause, if any.
func (e *Error) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// KindOf returns the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Code: kind.String(), Message: message, Err: cause}
}
