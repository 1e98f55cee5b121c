// Package apperr defines the error kinds surfaced by the services and the
// HTTP status each one maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Kind categorizes an application error.
type Kind string

const (
	// KindValidation indicates malformed or missing input fields.
	KindValidation Kind = "VALIDATION"

	// KindNotFound indicates a referenced id or identifier does not resolve.
	KindNotFound Kind = "NOT_FOUND"

	// KindForbidden indicates an authenticated caller lacking permission.
	KindForbidden Kind = "FORBIDDEN"

	// KindUnauthenticated indicates a missing or invalid bearer token.
	KindUnauthenticated Kind = "UNAUTHENTICATED"

	// KindConflict indicates a unique constraint violation.
	KindConflict Kind = "CONFLICT"

	// KindInternal indicates an unexpected storage or runtime failure.
	KindInternal Kind = "INTERNAL"
)

// Error is the error type returned by the identity, group and content
// services.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Message is safe to show to API clients.
	Message string

	// Fields holds per-field messages for validation errors.
	Fields map[string][]string

	// Err is the underlying cause, never shown to clients.
	Err error
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

func Validation(message string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Field builds a validation error for a single field.
func Field(field, message string) *Error {
	return Validation(message, map[string][]string{field: {message}})
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

func Conflict(field, message string) *Error {
	return &Error{Kind: KindConflict, Message: message, Fields: map[string][]string{field: {message}}}
}

// Internal wraps an unexpected failure behind a generic client message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// FromDB translates a gorm error. Record-not-found becomes NotFound with the
// given message, duplicate keys become Conflict, anything else Internal.
// Errors that are already *Error pass through unchanged.
func FromDB(err error, notFound string) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Message: notFound, Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindConflict, Message: "The resource already exists.", Err: err}
	default:
		return Internal(err)
	}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
