package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind is the closed set of failures the core can report. Provider
// errors are translated into exactly one of these at the client boundary
// and never propagate raw.
type ErrorKind int

const (
	// ErrInvalidCredentials means the api_id/api_hash pair is unusable.
	// Fatal; retrying cannot help.
	ErrInvalidCredentials ErrorKind = iota
	// ErrInvalidPhone means the phone number was rejected.
	ErrInvalidPhone
	// ErrInvalidCode means the one-time code was wrong; the caller retries
	// the same step.
	ErrInvalidCode
	// ErrCodeExpired means the one-time code lapsed; the caller must
	// restart from the phone step.
	ErrCodeExpired
	// ErrPasswordRequired signals that the account has 2FA enabled. It is
	// a flow signal, intercepted by the login sequence and surfaced as a
	// password_needed status rather than an error.
	ErrPasswordRequired
	// ErrInvalidPassword means the 2FA password was wrong.
	ErrInvalidPassword
	// ErrRateLimited means the provider asked us to back off. RetryAfter
	// carries the wait hint; the caller decides whether to honor it.
	ErrRateLimited
	// ErrNotAuthenticated means the session is not authenticated.
	ErrNotAuthenticated
	// ErrNotFound means the chat or message does not exist or the ID is
	// not resolvable.
	ErrNotFound
	// ErrInvalidArgument means an argument failed validation before any
	// remote call was made.
	ErrInvalidArgument
	// ErrUnavailable is the catch-all for unexpected provider failures;
	// the message carries the raw diagnostic text.
	ErrUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidCredentials:
		return "invalid_credentials"
	case ErrInvalidPhone:
		return "invalid_phone"
	case ErrInvalidCode:
		return "invalid_code"
	case ErrCodeExpired:
		return "code_expired"
	case ErrPasswordRequired:
		return "password_required"
	case ErrInvalidPassword:
		return "invalid_password"
	case ErrRateLimited:
		return "rate_limited"
	case ErrNotAuthenticated:
		return "not_authenticated"
	case ErrNotFound:
		return "not_found"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// Error is the single error type crossing the core's boundary.
type Error struct {
	Kind ErrorKind
	// Message is human-readable detail; for ErrUnavailable it is the raw
	// provider diagnostic.
	Message string
	// RetryAfter is set for ErrRateLimited only.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Errorf builds an Error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewRateLimited builds an ErrRateLimited carrying the wait hint.
func NewRateLimited(wait time.Duration) *Error {
	return &Error{
		Kind:       ErrRateLimited,
		Message:    fmt.Sprintf("rate limited, retry after %s", wait),
		RetryAfter: wait,
	}
}

// KindOf extracts the kind from err. The second return is false when err
// is not a domain Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is a domain Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
