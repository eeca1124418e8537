package model

import "errors"

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned by stores on a unique key collision.
	ErrAlreadyExists = errors.New("already exists")
)

// ErrorKind classifies failures surfaced to callers.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindBadRequest
	KindConflict
	KindInvalidCredentials
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidOTP
	KindOTPExpired
)

func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindConflict:
		return "conflict"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidOTP:
		return "invalid_otp"
	case KindOTPExpired:
		return "otp_expired"
	default:
		return "internal"
	}
}

// Error is a failure produced on purpose by the service layer.
// Message is safe to show to the client.
type Error struct {
	Kind                 ErrorKind
	Message              string
	RequiresVerification bool
}

func (e *Error) Error() string {
	return e.Message
}

// KindOf returns the kind of err, or KindInternal for anything that is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func NewErrBadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

func NewErrConflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func NewErrInvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "Invalid credentials"}
}

func NewErrUnauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func NewErrForbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NewErrVerificationRequired is the Forbidden answer to a login of an unverified account.
func NewErrVerificationRequired() *Error {
	return &Error{
		Kind:                 KindForbidden,
		Message:              "Account not verified. We sent you a fresh OTP.",
		RequiresVerification: true,
	}
}

func NewErrNotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func NewErrInvalidOTP() *Error {
	return &Error{Kind: KindInvalidOTP, Message: "Invalid OTP"}
}

func NewErrOTPExpired() *Error {
	return &Error{Kind: KindOTPExpired, Message: "OTP expired"}
}
