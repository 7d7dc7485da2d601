// Package apperrors defines the error taxonomy surfaced by the service layer.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is a stable, client-visible error class.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotFound
	KindPermissionDenied
	KindUnauthenticated
	KindConflict
	KindRateLimited
	KindStorageFailure
)

var kindNames = map[Kind]string{
	KindUnknown:          "Unknown",
	KindInvalidArgument:  "InvalidArgument",
	KindNotFound:         "NotFound",
	KindPermissionDenied: "PermissionDenied",
	KindUnauthenticated:  "Unauthenticated",
	KindConflict:         "Conflict",
	KindRateLimited:      "RateLimited",
	KindStorageFailure:   "StorageFailure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// storageMessage is the only text a storage failure ever shows a client.
const storageMessage = "storage temporarily unavailable"

// Error carries a Kind, a client-safe message, and an optional cause that is
// never rendered to clients.
type Error struct {
	Kind    Kind
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

// IsRetryable reports whether retrying the same request may succeed.
func (e *Error) IsRetryable() bool { return e.Kind == KindStorageFailure }

// InvalidArgument reports a client-correctable input error.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing resource.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// PermissionDenied reports a resource owned by someone else.
func PermissionDenied(format string, args ...any) *Error {
	return &Error{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated reports missing or bad credentials.
func Unauthenticated(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthenticated, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness violation.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// RateLimited reports a throttled client.
func RateLimited(format string, args ...any) *Error {
	return &Error{Kind: KindRateLimited, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence error. The cause stays available to logs
// through Unwrap but the message is generic.
func Storage(err error) *Error {
	return &Error{Kind: KindStorageFailure, Message: storageMessage, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
