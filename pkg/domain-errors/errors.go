// Package domainerrors carries the error kinds that pipeline stages return to
// the command entry point. Stores return plain wrapped errors or sentinels;
// services translate them into a coded Error exactly once.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error by how the entry point must surface it.
type Code string

const (
	// CodeUsage marks a malformed invocation. Reported, clean exit.
	CodeUsage Code = "usage"
	// CodeValidation marks bad operator input. Reported, no mutation.
	CodeValidation Code = "validation"
	// CodeStorage marks any failure returned by the storage backend.
	CodeStorage Code = "storage"
	// CodeInternal marks failures outside the storage backend.
	CodeInternal Code = "internal"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is New with a format string.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to err. A nil err stays nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// CodeOf returns the code of the outermost coded error in the chain, or
// CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any coded error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Cause
	}
	return false
}

// Is reports whether the outermost coded error carries code.
func Is(err error, code Code) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}
