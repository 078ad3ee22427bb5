// Package derrors is the domain error catalog. Services return coded errors;
// the HTTP layer translates codes to statuses. Unknown codes map to 500 so a
// missing catalog entry can never leak a misleading status.
package derrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, client-visible error identifier.
type Code string

const (
	CodeBadRequest      Code = "bad_request"
	CodeInvalidInput    Code = "invalid_input"
	CodeInvalidLanguage Code = "invalid_language"
	CodeUnauthorized    Code = "unauthorized"
	CodeForbidden       Code = "forbidden"
	CodeNotFound        Code = "not_found"
	CodeConflict        Code = "conflict"
	CodeRateLimited     Code = "rate_limited"
	CodeTimeout         Code = "timeout"
	CodeUnavailable     Code = "service_unavailable"
	CodeInternal        Code = "internal_error"
)

// statusCatalog maps error codes to HTTP statuses.
var statusCatalog = map[Code]int{
	CodeBadRequest:      http.StatusBadRequest,
	CodeInvalidInput:    http.StatusBadRequest,
	CodeInvalidLanguage: http.StatusBadRequest,
	CodeUnauthorized:    http.StatusUnauthorized,
	CodeForbidden:       http.StatusForbidden,
	CodeNotFound:        http.StatusNotFound,
	CodeConflict:        http.StatusConflict,
	CodeRateLimited:     http.StatusTooManyRequests,
	CodeTimeout:         http.StatusGatewayTimeout,
	CodeUnavailable:     http.StatusServiceUnavailable,
	CodeInternal:        http.StatusInternalServerError,
}

// ToHTTPStatus resolves a code against the catalog, defaulting to 500.
func ToHTTPStatus(code Code) int {
	if status, ok := statusCatalog[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a coded domain error. Message is safe to show to clients for 4xx
// codes; internal codes omit it from responses.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(cause error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code
	}
	return CodeInternal
}

// MessageOf extracts the domain message from an error chain, empty if uncoded.
func MessageOf(err error) string {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Message
	}
	return ""
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code == code
	}
	return false
}
