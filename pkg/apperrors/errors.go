package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error for the transport boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthorized
	KindUnauthenticated
	KindInvalidInvite
	KindInvalidParams
)

// AppError carries a kind and a user-visible message around a wrapped cause.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *AppError {
	return New(KindNotFound, message)
}

func Unauthorized(message string) *AppError {
	return New(KindUnauthorized, message)
}

func Unauthenticated(message string) *AppError {
	return New(KindUnauthenticated, message)
}

func InvalidInvite(message string) *AppError {
	return New(KindInvalidInvite, message)
}

func InvalidParams(message string) *AppError {
	return New(KindInvalidParams, message)
}

// KindOf extracts the kind from err, or KindInternal if it is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf extracts the user-visible message from err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
