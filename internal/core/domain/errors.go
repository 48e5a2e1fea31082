// Package domain defines the core domain models for AeroSense.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes follow the pattern AS-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "AS-SESS-4040")
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

// Is implements errors.Is() support for error comparison.
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

// ============================================================================
// Storage Errors (STOR)
// ============================================================================

var (
	// ErrStorageUnavailable indicates the medium is absent or failed its
	// health probe. The operation was not attempted and state is unchanged.
	ErrStorageUnavailable = NewDomainError("AS-STOR-5030", "storage unavailable")

	// ErrStorage indicates an I/O failure on a present medium.
	ErrStorage = NewDomainError("AS-STOR-5001", "storage error")
)

// ============================================================================
// Record Errors (REC)
// ============================================================================

var (
	// ErrChecksumMismatch indicates a stored record failed verification.
	ErrChecksumMismatch = NewDomainError("AS-REC-4220", "record checksum mismatch")

	// ErrIndexOutOfRange indicates a logical index at or beyond the stored count.
	ErrIndexOutOfRange = NewDomainError("AS-REC-4160", "record index out of range")

	// ErrCorruptRecord indicates a record buffer of the wrong size.
	ErrCorruptRecord = NewDomainError("AS-REC-4221", "corrupt record")
)

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrSessionNotFound indicates the requested session file does not exist.
	ErrSessionNotFound = NewDomainError("AS-SESS-4040", "session not found")

	// ErrSessionAlreadyOpen indicates a session is already open.
	ErrSessionAlreadyOpen = NewDomainError("AS-SESS-4090", "session already open")

	// ErrSessionNotOpen indicates no session is open.
	ErrSessionNotOpen = NewDomainError("AS-SESS-4091", "no open session")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("AS-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("AS-ARG-1002", "missing required argument")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternal indicates an unexpected failure, such as a recovered panic.
	ErrInternal = NewDomainError("AS-SYS-5000", "internal error")

	// ErrRateLimited indicates a client exceeded its request rate.
	ErrRateLimited = NewDomainError("AS-SYS-4290", "too many requests")
)
