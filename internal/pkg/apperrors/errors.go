package apperrors

import (
	"errors"
	"fmt"
)

// Code is a stable error code handlers map to HTTP statuses.
type Code string

const (
	CodeValidation  Code = "validation"
	CodePersistence Code = "persistence"
	CodeAuth        Code = "auth"
	CodeStorage     Code = "storage"
	CodeForbidden   Code = "forbidden"
	CodeNotFound    Code = "not_found"
	CodeConflict    Code = "conflict"
	CodeUnavailable Code = "unavailable"
)

// AppError carries a code, a caller-safe message, the wrapped cause and optional details.
type AppError struct {
	Code    Code
	Message string
	Err     error
	Meta    map[string]any
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithMeta attaches a detail entry returned to the client.
func (e *AppError) WithMeta(k string, v any) *AppError {
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	e.Meta[k] = v
	return e
}

func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) *AppError {
	if err == nil {
		return New(code, message)
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode checks if err carries code anywhere in its chain.
func IsCode(err error, code Code) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// As extracts the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func Validation(message string) *AppError { return New(CodeValidation, message) }

func NotFound(message string) *AppError { return New(CodeNotFound, message) }

func Forbidden(message string) *AppError { return New(CodeForbidden, message) }

func Conflict(message string) *AppError { return New(CodeConflict, message) }

func Auth(message string) *AppError { return New(CodeAuth, message) }

// Persistence wraps a database failure. The message stays generic.
func Persistence(err error) *AppError {
	if ae, ok := As(err); ok {
		return ae
	}
	return Wrap(err, CodePersistence, "Internal Server Error")
}

func Storage(err error, message string) *AppError { return Wrap(err, CodeStorage, message) }
