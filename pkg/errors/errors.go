// Package errors defines the coded errors every layer returns and how each
// code is presented over HTTP.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeForbidden      Code = "FORBIDDEN"
	CodePermissionView Code = "PERMISSION_ERROR_VIEW"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodeStateConflict  Code = "STATE_CONFLICT"
	// CodeProfileMissing means the identity has no usuarios row; the session is revoked.
	CodeProfileMissing Code = "PROFILE_MISSING"
	CodeRoleNotFound   Code = "ROLE_NOT_FOUND"
	// CodeQuery is a failed read against one of the dashboard sources.
	CodeQuery       Code = "QUERY_ERROR"
	CodeIdempotency Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit   Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal    Code = "INTERNAL_ERROR"
	CodeDependency  Code = "DEPENDENCY_ERROR"
)

// Metadata is the HTTP presentation of a code.
type Metadata struct {
	HTTPStatus int
	Retryable  bool
	// PublicMessage replaces the error's own message unless OwnMessage is set.
	PublicMessage  string
	OwnMessage     bool
	DetailsAllowed bool
}

const (
	retryable = 1 << iota
	ownMessage
	withDetails
)

func meta(status int, flags int, public string) Metadata {
	return Metadata{
		HTTPStatus:     status,
		Retryable:      flags&retryable != 0,
		PublicMessage:  public,
		OwnMessage:     flags&ownMessage != 0,
		DetailsAllowed: flags&withDetails != 0,
	}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:     meta(http.StatusBadRequest, ownMessage|withDetails, "validation failed"),
	CodeUnauthorized:   meta(http.StatusUnauthorized, ownMessage, "authentication required"),
	CodeForbidden:      meta(http.StatusForbidden, ownMessage, "access denied"),
	CodePermissionView: meta(http.StatusForbidden, ownMessage|withDetails, "your role has no view in this application"),
	CodeNotFound:       meta(http.StatusNotFound, ownMessage, "resource not found"),
	CodeConflict:       meta(http.StatusConflict, ownMessage, "conflict detected"),
	CodeStateConflict:  meta(http.StatusUnprocessableEntity, ownMessage|withDetails, "state transition disallowed"),
	CodeProfileMissing: meta(http.StatusUnauthorized, 0, "user profile not found; session was closed"),
	CodeRoleNotFound:   meta(http.StatusUnprocessableEntity, ownMessage|withDetails, "role not found; contact an administrator"),
	CodeQuery:          meta(http.StatusBadGateway, retryable|withDetails, "data source query failed"),
	CodeIdempotency:    meta(http.StatusConflict, ownMessage|withDetails, "idempotency key reused"),
	CodeRateLimit:      meta(http.StatusTooManyRequests, ownMessage, "rate limit exceeded"),
	CodeInternal:       meta(http.StatusInternalServerError, retryable, "internal server error"),
	CodeDependency:     meta(http.StatusServiceUnavailable, retryable|withDetails, "dependency unavailable"),
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error with an optional cause and client-facing details.
// Methods are safe on a nil receiver.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets details in place and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.code) + ": " + e.message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}
