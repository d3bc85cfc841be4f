// Package domain contains the release and build registration pipelines.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. Each kind maps to exactly one response status.
type Kind int

const (
	// KindInternal is anything unexpected.
	KindInternal Kind = iota
	// KindUnauthorized is a secret mismatch.
	KindUnauthorized
	// KindDeclined is a well-formed request the relay chooses not to act on.
	KindDeclined
	// KindInvalid is a malformed request field.
	KindInvalid
	// KindUpstream is a failure of the metadata source or the ledger node.
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindDeclined:
		return "declined"
	case KindInvalid:
		return "invalid"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is a classified pipeline failure. Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err != nil:
		return e.Err.Error()
	case e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unauthorized is returned when the secret gate rejects a request.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "Invalid secret"}
}

// Declined reports a request that is understood but intentionally not actioned.
func Declined(format string, args ...any) *Error {
	return &Error{Kind: KindDeclined, Message: fmt.Sprintf(format, args...)}
}

// Invalid reports a malformed request field.
func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps a failure of a collaborator with the step that failed.
func Upstream(err error, format string, args ...any) *Error {
	return &Error{Kind: KindUpstream, Message: fmt.Sprintf(format, args...), Err: err}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
