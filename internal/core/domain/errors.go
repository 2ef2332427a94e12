package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes follow the FP-<AREA>-<HTTP><SEQ> scheme, e.g. "FP-AUTH-4290".
type DomainError struct {
	Code    string // Error code (e.g., "FP-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
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

// PublicMessage returns the message safe to show to a caller.
// Details and causes stay server-side.
func PublicMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return ErrInternal.Message
}

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrNotAllowed indicates the email domain is not on the allow-list.
	// It is never returned to callers; login answers with the ambiguous message.
	ErrNotAllowed = NewDomainError("FP-AUTH-4030", "email domain not allowed")

	// ErrRateLimited indicates too many attempts within the limiter window.
	ErrRateLimited = NewDomainError("FP-AUTH-4290", "Rate limit exceeded. Too many requests.")

	// ErrInvalidToken indicates a magic link token that was never issued,
	// was already redeemed, or was removed after expiry.
	ErrInvalidToken = NewDomainError("FP-AUTH-4010", "Invalid token.")

	// ErrExpiredToken indicates a magic link token older than the token TTL.
	ErrExpiredToken = NewDomainError("FP-AUTH-4011", "Token expired.")

	// ErrSessionInvalid indicates a session cookie that failed decryption or validation.
	ErrSessionInvalid = NewDomainError("FP-AUTH-4012", "invalid session")

	// ErrUnauthenticated indicates a protected resource was requested without a session.
	ErrUnauthenticated = NewDomainError("FP-AUTH-4013", "Authentication required to access this resource.")
)

// ============================================================================
// Data Errors (DATA)
// ============================================================================

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = NewDomainError("FP-DATA-4040", "not found")

	// ErrDigestConflict indicates a token digest that is already stored.
	ErrDigestConflict = NewDomainError("FP-DATA-4090", "token digest conflict")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternal indicates an internal server error.
	ErrInternal = NewDomainError("FP-SYS-5000", "internal server error")

	// ErrStorage indicates a storage layer error.
	ErrStorage = NewDomainError("FP-SYS-5001", "storage error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("FP-SYS-4000", "bad request")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("FP-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("FP-ARG-1002", "missing required argument")
)
