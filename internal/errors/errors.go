package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeNotFound        ErrorType = "NOT_FOUND"
	ErrorTypeAlreadyExists   ErrorType = "ALREADY_EXISTS"
	ErrorTypeAlreadyFrozen   ErrorType = "ALREADY_FROZEN"
	ErrorTypeNoParent        ErrorType = "NO_PARENT"
	ErrorTypeVersionNotFound ErrorType = "VERSION_NOT_FOUND"
	ErrorTypeValidation      ErrorType = "VALIDATION"
	ErrorTypeInternal        ErrorType = "INTERNAL"
)

// Error is a recoverable failure reported to the caller of a store operation.
// Code is the HTTP status the API answers with.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details any       `json:"details,omitempty"`

	err error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

func NotFound(filename string) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("File '%s' does not exist.", filename),
		Code:    http.StatusNotFound,
	}
}

func AlreadyExists(filename string) *Error {
	return &Error{
		Type:    ErrorTypeAlreadyExists,
		Message: fmt.Sprintf("File '%s' already exists.", filename),
		Code:    http.StatusConflict,
	}
}

func AlreadyFrozen() *Error {
	return &Error{
		Type:    ErrorTypeAlreadyFrozen,
		Message: "Current version is already a snapshot.",
		Code:    http.StatusConflict,
	}
}

func NoParent() *Error {
	return &Error{
		Type:    ErrorTypeNoParent,
		Message: "Cannot rollback - no parent version exists.",
		Code:    http.StatusConflict,
	}
}

func VersionNotFound(id int) *Error {
	return &Error{
		Type:    ErrorTypeVersionNotFound,
		Message: fmt.Sprintf("Version %d does not exist.", id),
		Code:    http.StatusNotFound,
	}
}

func ValidationError(message string, details any) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Message: message,
		Code:    http.StatusBadRequest,
		Details: details,
	}
}

// Internal wraps a storage failure. The cause stays reachable through Unwrap
// but is not serialized.
func Internal(message string, err error) *Error {
	return &Error{
		Type:    ErrorTypeInternal,
		Message: fmt.Sprintf("%s: %v", message, err),
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// Is reports whether any error in err's chain is an *Error of type t.
func Is(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// TypeOf returns the type of the first *Error in err's chain, or
// ErrorTypeInternal when there is none.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeInternal
}
