// Package apperr classifies failures so the HTTP boundary can pick a status
// code without inspecting error strings. Wrap tags an error with one of the
// exported markers; callers test with errors.Is. Only validation, not-found
// and conflict messages are safe to show to clients.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrProcessing = errors.New("processing error")
	ErrStorage    = errors.New("storage error")
)

type Error struct {
	marker error
	op     string
	msg    string
	err    error
}

// Wrap tags err with marker and operation context. A nil err still produces
// a classified error carrying msg.
func Wrap(marker error, op, msg string, err error) error {
	if marker == nil {
		marker = ErrStorage
	}
	return &Error{marker: marker, op: op, msg: msg, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%v: %s: %s: %v", e.marker, e.op, e.msg, e.err)
	}
	return fmt.Sprintf("%v: %s: %s", e.marker, e.op, e.msg)
}

func (e *Error) Unwrap() []error {
	if e.err != nil {
		return []error{e.marker, e.err}
	}
	return []error{e.marker}
}

// Public returns the client-facing message for errors whose cause may be
// exposed, and fallback for everything else.
func Public(err error, fallback string) string {
	var ce *Error
	if !errors.As(err, &ce) {
		return fallback
	}
	switch {
	case errors.Is(ce.marker, ErrValidation), errors.Is(ce.marker, ErrNotFound), errors.Is(ce.marker, ErrConflict):
		return ce.msg
	default:
		return fallback
	}
}
