// Package errors provides the typed error taxonomy for the reminder service.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Code represents a specific error class for reminder operations.
type Code string

const (
	// CodeUnparseable indicates the time phrase could not be interpreted.
	CodeUnparseable Code = "UNPARSEABLE"
	// CodeNotInFuture indicates the parsed instant is not after now.
	CodeNotInFuture Code = "NOT_IN_FUTURE"
	// CodeInvalidTimezone indicates the timezone text could not be resolved.
	CodeInvalidTimezone Code = "INVALID_TIMEZONE"
	// CodeQuotaExceeded indicates the owner is at the active reminder limit.
	CodeQuotaExceeded Code = "QUOTA_EXCEEDED"
	// CodeRateLimited indicates the creation cooldown is active.
	CodeRateLimited Code = "RATE_LIMITED"
	// CodeUndeliverable indicates delivery is not recoverable.
	CodeUndeliverable Code = "UNDELIVERABLE"
	// CodeStoreFailure indicates a store I/O error.
	CodeStoreFailure Code = "STORE_FAILURE"
	// CodeInvalidArgument indicates invalid input parameters.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeNotFound indicates the requested record does not exist.
	CodeNotFound Code = "NOT_FOUND"
)

// ServiceError is a structured error carrying a reminder error class.
type ServiceError struct {
	Code    Code
	Message string
	Cause   error

	// RetryAfter is set for RATE_LIMITED errors.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// New creates a ServiceError with the given code and message.
func New(code Code, format string, args ...any) *ServiceError {
	return &ServiceError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a ServiceError wrapping a cause.
func Wrap(cause error, code Code, format string, args ...any) *ServiceError {
	return &ServiceError{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Unparseable reports a phrase the time parser could not interpret.
func Unparseable(reason string) *ServiceError {
	return New(CodeUnparseable, "could not parse time: %s", reason)
}

// NotInFuture reports a due instant at or before now.
func NotInFuture() *ServiceError {
	return New(CodeNotInFuture, "time must be in the future")
}

// InvalidTimezone reports unresolvable timezone text.
func InvalidTimezone(text string) *ServiceError {
	return New(CodeInvalidTimezone, "invalid timezone %q", text)
}

// QuotaExceeded reports an owner at the active reminder limit.
func QuotaExceeded(limit int) *ServiceError {
	return New(CodeQuotaExceeded, "reminder limit (%d)", limit)
}

// RateLimited reports an active creation cooldown.
func RateLimited(retryAfter time.Duration) *ServiceError {
	err := New(CodeRateLimited, "too many reminders, retry in %s", retryAfter.Round(time.Second))
	err.RetryAfter = retryAfter
	return err
}

// StoreFailure wraps a store I/O error.
func StoreFailure(cause error) *ServiceError {
	return Wrap(cause, CodeStoreFailure, "store operation failed")
}

// CodeOf extracts the error class, or empty when err carries none.
func CodeOf(err error) Code {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
