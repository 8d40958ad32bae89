// Package domain defines the core domain models for LinkHub.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a client-side domain error with a structured error code.
//
// Codes follow the LH-{AREA}-{NNNN} layout, the last four digits mirroring the
// closest HTTP status.
type DomainError struct {
	Code    string // Error code (e.g., "LH-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Authentication errors.
var (
	// ErrCredentialInvalidated indicates the backend rejected the current token.
	// Receiving it from a profile fetch clears the local session.
	ErrCredentialInvalidated = NewDomainError("LH-AUTH-4010", "credential invalidated")

	// ErrNotAuthenticated indicates an operation that needs a token ran without one.
	ErrNotAuthenticated = NewDomainError("LH-AUTH-4011", "not authenticated")
)

// System errors.
var (
	// ErrTransport indicates the request could not be completed.
	ErrTransport = NewDomainError("LH-SYS-5030", "request could not be completed")

	// ErrStorage indicates the durable token store failed.
	ErrStorage = NewDomainError("LH-STOR-5001", "storage error")
)

// Argument errors.
var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("LH-ARG-1001", "invalid argument")
)
