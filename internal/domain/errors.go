package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidState      = "INVALID_STATE"
	ErrCodeUpstreamProvider  = "UPSTREAM_PROVIDER_ERROR"
	ErrCodeStorage           = "STORAGE_ERROR"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidAgentID     = NewDomainError(ErrCodeValidation, "invalid agent id format")
	ErrInvalidAgentStatus = NewDomainError(ErrCodeValidation, "invalid agent status")
	ErrInvalidProvider    = NewDomainError(ErrCodeValidation, "invalid api provider")
	ErrEmptyMessage       = NewDomainError(ErrCodeValidation, "message cannot be empty")
	ErrEmptyDocument      = NewDomainError(ErrCodeValidation, "document contains no extractable text")
)

// Not found errors
var (
	ErrAgentNotFound = NewDomainError(ErrCodeNotFound, "agent not found")
)

// NewUpstreamError wraps an embedding or generation provider failure.
func NewUpstreamError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeUpstreamProvider, message, err)
}

// NewStorageError wraps a persistence layer failure.
func NewStorageError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeStorage, message, err)
}

// NewInternalError wraps an unexpected failure, keeping the cause for logging.
func NewInternalError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeInternalError, message, err)
}
