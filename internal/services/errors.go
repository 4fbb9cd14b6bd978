package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure so the transport can pick a status code.
type Kind int

const (
	// KindUnavailable covers store, connection and other internal failures.
	KindUnavailable Kind = iota
	KindValidationFailed
	KindConflict
	KindNotFound
	KindUnauthorized
	KindDeliveryFailed
)

func (k Kind) String() string {
	switch k {
	case KindValidationFailed:
		return "validation_failed"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindDeliveryFailed:
		return "delivery_failed"
	default:
		return "unavailable"
	}
}

// Error is a failure returned by the account service. Message is safe to
// show to clients; Err keeps the underlying cause for logs.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, treating unknown errors as unavailable.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnavailable
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return "Internal server error"
}

func invalid(msg string) error {
	return &Error{Kind: KindValidationFailed, Message: msg}
}

func notFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func unavailable(msg string, err error) error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}
