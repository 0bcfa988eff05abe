package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the kinds of failure the pipeline distinguishes
type ErrorType string

const (
	// ErrorTypeFetch: a page or image request did not return usable content
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeWrite: a directory, cache file or image file could not be written
	ErrorTypeWrite ErrorType = "write"
	// ErrorTypeMalformedMetadata: a metadata block did not parse
	ErrorTypeMalformedMetadata ErrorType = "malformed_metadata"
)

// Error carries a failure kind, a message and the underlying cause
type Error struct {
	Type    ErrorType
	Message string
	// Code is the HTTP status for fetch failures, 0 otherwise
	Code int
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Type, e.Message)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fetch builds a fetch failure
func Fetch(message string, code int, err error) *Error {
	return &Error{Type: ErrorTypeFetch, Message: message, Code: code, Err: err}
}

// Write builds a write failure
func Write(message string, err error) *Error {
	return &Error{Type: ErrorTypeWrite, Message: message, Err: err}
}

// Malformed builds a malformed metadata failure
func Malformed(message string, err error) *Error {
	return &Error{Type: ErrorTypeMalformedMetadata, Message: message, Err: err}
}

// Is reports whether any error in err's chain is an *Error of the given type
func Is(err error, errorType ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == errorType
	}
	return false
}
