package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures by the pipeline stage that raised them.
type ErrorKind string

const (
	ErrorKindValidation    ErrorKind = "validation"
	ErrorKindAcquisition   ErrorKind = "acquisition"
	ErrorKindTranscription ErrorKind = "transcription"
	ErrorKindCleanup       ErrorKind = "cleanup"
	ErrorKindCancelled     ErrorKind = "cancelled"
)

// Error is a stage-aware failure carrying a human-readable message.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error formats the failure for logs and UI.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: ErrorKindValidation, Message: fmt.Sprintf(format, args...)}
}

// AsError converts any error into an *Error, defaulting to kind.
func AsError(err error, kind ErrorKind) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
