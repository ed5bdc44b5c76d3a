// Package apperr defines the error taxonomy shared by all services.
// Every failure that crosses a service boundary is wrapped in an *Error
// so the transport layer can map it to a status code without string
// matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindNotFound
	KindRateLimited
	KindUpstreamUnavailable
	KindUpstreamMalformed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindUpstreamMalformed:
		return "upstream_malformed"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind     Kind
	Resource string // what was missing/invalid: "clan", "player", ...
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

func InvalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Msg: msg}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Resource: resource, Msg: resource + " not found"}
}

func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimited, Msg: msg}
}

func UpstreamUnavailable(err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Err: err}
}

func UpstreamMalformed(err error) *Error {
	return &Error{Kind: KindUpstreamMalformed, Err: err}
}

// KindOf extracts the taxonomy kind from an error chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ResourceOf returns the resource attached to a NotFound error, if any.
func ResourceOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Resource
	}
	return ""
}
