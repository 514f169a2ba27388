// Package errors defines the service error taxonomy shared by all HTTP
// handlers and middleware. Every error that reaches a client is a
// ServiceError with a stable code and an HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of service error.
type ErrorCode string

const (
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	CodeExpiredToken       ErrorCode = "EXPIRED_TOKEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeBadRequest         ErrorCode = "BAD_REQUEST"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeRateLimited        ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// ServiceError carries an error code, a client-safe message and the HTTP
// status it maps to. The wrapped cause is never serialized.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	cause      error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.cause }

// WithDetails attaches a key/value pair to the error for the response body.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code ErrorCode, message string, status int, cause error) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		cause:      cause,
	}
}

// InvalidToken indicates a malformed or unverifiable authentication token.
func InvalidToken(cause error) *ServiceError {
	return newError(CodeInvalidToken, "Invalid or missing authentication token", http.StatusUnauthorized, cause)
}

// ExpiredToken indicates an authentication token past its expiry.
func ExpiredToken(cause error) *ServiceError {
	return newError(CodeExpiredToken, "Authentication token has expired", http.StatusUnauthorized, cause)
}

// InvalidCredentials indicates a failed email/password check.
func InvalidCredentials(message string) *ServiceError {
	if message == "" {
		message = "Could not validate credentials"
	}
	return newError(CodeInvalidCredentials, message, http.StatusUnauthorized, nil)
}

// Unauthorized indicates an authenticated caller lacking permission.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "Permission denied"
	}
	return newError(CodeUnauthorized, message, http.StatusForbidden, nil)
}

// BadRequest indicates a malformed request.
func BadRequest(message string) *ServiceError {
	if message == "" {
		message = "Bad request"
	}
	return newError(CodeBadRequest, message, http.StatusBadRequest, nil)
}

// NotFound indicates a missing resource.
func NotFound(message string) *ServiceError {
	if message == "" {
		message = "Resource not found"
	}
	return newError(CodeNotFound, message, http.StatusNotFound, nil)
}

// Conflict indicates a resource conflict such as a duplicate email.
func Conflict(message string) *ServiceError {
	if message == "" {
		message = "Resource conflict"
	}
	return newError(CodeConflict, message, http.StatusConflict, nil)
}

// Validation indicates request payload validation failure.
func Validation(message string) *ServiceError {
	if message == "" {
		message = "Validation error"
	}
	return newError(CodeValidation, message, http.StatusUnprocessableEntity, nil)
}

// RateLimitExceeded indicates the caller exhausted its request budget.
func RateLimitExceeded(limit int, window string) *ServiceError {
	err := newError(CodeRateLimited, "Rate limit exceeded", http.StatusTooManyRequests, nil)
	return err.WithDetails("limit", limit).WithDetails("window", window)
}

// Internal indicates an unexpected server-side failure.
func Internal(message string, cause error) *ServiceError {
	if message == "" {
		message = "Internal server error"
	}
	return newError(CodeInternal, message, http.StatusInternalServerError, cause)
}

// GetServiceError returns the ServiceError in err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}

// HTTPStatus maps any error to an HTTP status, defaulting to 500.
func HTTPStatus(err error) int {
	if svcErr := GetServiceError(err); svcErr != nil {
		return svcErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
