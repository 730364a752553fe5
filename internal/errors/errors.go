// Package errors defines the service error taxonomy and its mapping to HTTP
// status codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure that callers can act on.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeDuplicateAccount   Code = "DUPLICATE_ACCOUNT"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeUpstreamFailure    Code = "UPSTREAM_FAILURE"
	CodeInternal           Code = "INTERNAL"
)

// ServiceError carries a taxonomy code, an HTTP status, and a caller-safe
// message. The wrapped error is for logs only and must never reach a response
// body.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails attaches a key/value pair for diagnostics.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Validation reports a missing or malformed required field.
func Validation(message string) *ServiceError {
	return &ServiceError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

// DuplicateAccount reports a username/email uniqueness violation.
func DuplicateAccount(message string) *ServiceError {
	return &ServiceError{Code: CodeDuplicateAccount, Message: message, HTTPStatus: http.StatusConflict}
}

// InvalidCredentials is returned for both unknown accounts and wrong secrets.
// The message is fixed so callers cannot enumerate accounts.
func InvalidCredentials() *ServiceError {
	return &ServiceError{Code: CodeInvalidCredentials, Message: "invalid credentials", HTTPStatus: http.StatusUnauthorized}
}

// Unauthorized reports a missing or unverifiable identity.
func Unauthorized(message string) *ServiceError {
	return &ServiceError{Code: CodeUnauthenticated, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// InvalidToken wraps a token verification failure as an authentication error.
func InvalidToken(err error) *ServiceError {
	return &ServiceError{Code: CodeUnauthenticated, Message: "invalid or expired token", HTTPStatus: http.StatusUnauthorized, Err: err}
}

// Forbidden reports an ownership or role mismatch.
func Forbidden(message string) *ServiceError {
	return &ServiceError{Code: CodeForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

// NotFound reports an absent resource.
func NotFound(message string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// Upstream reports a failure from an external collaborator (media host, DB).
func Upstream(message string, err error) *ServiceError {
	return &ServiceError{Code: CodeUpstreamFailure, Message: message, HTTPStatus: http.StatusBadGateway, Err: err}
}

// Internal is the catch-all for unexpected failures.
func Internal(message string, err error) *ServiceError {
	return &ServiceError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}

// GetServiceError extracts a *ServiceError from an error chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	return nil
}

// Is reports whether err carries the given taxonomy code.
func Is(err error, code Code) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == code
}
