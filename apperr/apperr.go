// Package apperr defines the user-facing error taxonomy. Every failure that
// ends a user action is reported as an *Error carrying a Kind, so the CLI and
// the preview server can decide how to present it.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an application error.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindEmptyResult  Kind = "empty_result"
	KindDocumentOpen Kind = "document_open"
	KindExtraction   Kind = "extraction"
	KindEncoding     Kind = "encoding"
	KindSave         Kind = "save"
	KindCanceled     Kind = "canceled"
)

// Error is a structured application error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface. Causes are appended verbatim so that
// encoder and I/O messages reach the user unchanged.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation creates a validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// EmptyResult reports that an operation produced nothing to encode.
func EmptyResult(message string) *Error {
	return &Error{Kind: KindEmptyResult, Message: message}
}

// Canceled reports that the user declined a confirmation.
func Canceled(message string) *Error {
	return &Error{Kind: KindCanceled, Message: message}
}

// Wrap creates an error of the given kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// StatusCode maps an error to the HTTP status used by the preview server.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindEmptyResult:
		return http.StatusUnprocessableEntity
	case KindCanceled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
