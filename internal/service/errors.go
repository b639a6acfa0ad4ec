package service

import (
	"errors"
	"fmt"

	"github.com/chepyr/go-project-tracker/internal/db"
	"github.com/rs/zerolog"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindBadRequest
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal"
}

// Error is returned by every service operation. Message is safe to show to
// the caller; Err is the underlying cause and is only logged.
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

func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func BadRequest(msg string) *Error   { return &Error{Kind: KindBadRequest, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

const (
	msgInternal     = "Internal server error"
	msgMissingTable = "Database table not found. Please contact support."
)

func Internal(err error) *Error {
	msg := msgInternal
	if db.IsUndefinedTable(err) {
		msg = msgMissingTable
	}
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the kind of err. Errors that did not come from this package
// are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return msgInternal
}

// fail passes service errors through unchanged and turns anything else into
// a logged Internal error.
func fail(log zerolog.Logger, op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	log.Error().Err(err).Str("op", op).Msg("store failure")
	return Internal(err)
}
