package models

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable classification surfaced to callers.
type ErrorKind string

const (
	ErrKindValidation   ErrorKind = "validation"
	ErrKindNotFound     ErrorKind = "not_found"
	ErrKindPrecondition ErrorKind = "precondition"
	ErrKindConflict     ErrorKind = "conflict"
	ErrKindInternal     ErrorKind = "internal"
)

// AppError carries a kind + message; kinds are part of the wire contract.
type AppError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func ValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: ErrKindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: ErrKindNotFound, Message: fmt.Sprintf(format, args...)}
}

func PreconditionError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: ErrKindPrecondition, Message: fmt.Sprintf(format, args...)}
}

func ConflictError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: ErrKindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf classifies any error; unknown errors are internal and their detail
// must not be exposed to clients.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrKindInternal
}

// IsNotFound checks if an error is a not-found type error
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}
