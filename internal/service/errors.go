package service

import (
	"errors"
)

// Kinds. Every error returned by AuthService wraps exactly one of these.
var (
	ErrBadRequest         = errors.New("bad request")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrInternal           = errors.New("internal error")
)

// Error carries a client-facing Message next to its kind. Err, when set, is
// the underlying cause and is never shown to clients.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func fail(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func internal(msg string, err error) *Error {
	return &Error{Kind: ErrInternal, Message: msg, Err: err}
}

// Message returns the client-facing text of err.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return "Internal error"
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	switch {
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
