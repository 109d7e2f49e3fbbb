// Package exoerr implements the error taxonomy of the GraphQL request
// pipeline (spec.md §7): each error kind carries the HTTP status and
// user-visible message it must surface as, independent of how deep in the
// pipeline it originated.
package exoerr

import (
	"errors"
	"fmt"
)

// Kind identifies a row of the spec.md §7 taxonomy table.
type Kind int

const (
	KindParse Kind = iota
	KindInvalidRequest
	KindInvalidParams
	KindValidation
	KindAuthorization
	KindExpiredAuthentication
	KindNotFound
	KindUserDisplay
	KindDatabase
	KindInternal
)

// Error is the concrete error type returned across the pipeline. Every
// public-facing error constructed anywhere in this module is an *Error so
// that the HTTP layer (a documented collaborator, not implemented here) can
// do a single type switch to pick a status code.
type Error struct {
	Kind Kind
	// Message is what is safe to put in the `errors[].message` field of the
	// GraphQL response. For KindDatabase/KindInternal this is always the
	// generic "Internal server error" — the real detail goes in Detail,
	// which is for server-side logging only and never serialized.
	Message string
	Detail  error
}

func (e *Error) Error() string {
	if e.Detail != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Detail)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Detail }

// Status returns the HTTP status code for this error. authenticated
// distinguishes the 403-vs-401 case for KindAuthorization (spec.md §7:
// "403 if authed, else 401").
func (e *Error) Status(authenticated bool) int {
	switch e.Kind {
	case KindParse, KindInvalidRequest, KindInvalidParams, KindValidation:
		return 400
	case KindAuthorization:
		if authenticated {
			return 403
		}
		return 401
	case KindExpiredAuthentication:
		return 401
	case KindNotFound:
		return 404
	case KindUserDisplay:
		return 400
	case KindDatabase, KindInternal:
		return 500
	default:
		return 500
	}
}

// RequiresWWWAuthenticate reports whether the response must carry a
// WWW-Authenticate header (only KindExpiredAuthentication, per spec.md §7).
func (e *Error) RequiresWWWAuthenticate() bool {
	return e.Kind == KindExpiredAuthentication
}

func newf(kind Kind, format string, a ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

func Parse(format string, a ...any) *Error           { return newf(KindParse, format, a...) }
func InvalidRequest(format string, a ...any) *Error   { return newf(KindInvalidRequest, format, a...) }
func InvalidParams(format string, a ...any) *Error    { return newf(KindInvalidParams, format, a...) }
func Validation(format string, a ...any) *Error       { return newf(KindValidation, format, a...) }
func ExpiredAuthentication() *Error {
	return &Error{Kind: KindExpiredAuthentication, Message: "Expired token"}
}

// Authorization returns the fixed "Not authorized" error mandated by
// spec.md §7; authenticated-vs-anonymous is resolved at Status() time, not
// at construction time, since the solver doesn't know about the transport.
func Authorization() *Error {
	return &Error{Kind: KindAuthorization, Message: "Not authorized"}
}

func NotFound(name string) *Error {
	return &Error{Kind: KindNotFound, Message: name}
}

// UserDisplay wraps a message thrown by JS/TS business logic via
// `ExographError` (spec.md §4.4, §7): it propagates verbatim.
func UserDisplay(message string) *Error {
	return &Error{Kind: KindUserDisplay, Message: message}
}

// Database wraps a driver-level error. The detail is retained for logging
// but never surfaced to the client.
func Database(detail error) *Error {
	return &Error{Kind: KindDatabase, Message: "Internal server error", Detail: detail}
}

// Internal wraps any other unexpected failure.
func Internal(detail error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Detail: detail}
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
