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

// Is lets sentinel DomainErrors match wrapped instances by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
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
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeParseFailure        = "PARSE_FAILURE"
	ErrCodeModelUnavailable    = "MODEL_UNAVAILABLE"
	ErrCodeStoreUnavailable    = "STORE_UNAVAILABLE"
	ErrCodeNoProviderAvailable = "NO_PROVIDER_AVAILABLE"
	ErrCodeDimensionMismatch   = "DIMENSION_MISMATCH"
	ErrCodeTaskCancelled       = "TASK_CANCELLED"
)

// Parse errors: per-file, non-fatal, logged and skipped by batch jobs
var (
	ErrParseFailure        = NewDomainError(ErrCodeParseFailure, "failed to parse source file")
	ErrUnsupportedLanguage = NewDomainError(ErrCodeParseFailure, "unsupported file extension")
)

// Backend availability errors: surfaced to callers, never silently
// downgraded to empty results
var (
	ErrModelUnavailable    = NewDomainError(ErrCodeModelUnavailable, "embedding or generation model unreachable")
	ErrStoreUnavailable    = NewDomainError(ErrCodeStoreUnavailable, "vector store unreachable")
	ErrNoProviderAvailable = NewDomainError(ErrCodeNoProviderAvailable, "no generation provider available")
)

// Dimension mismatch is a warning-level condition; the sentinel exists for
// callers that want to detect it, not to block operation
var ErrDimensionMismatch = NewDomainError(ErrCodeDimensionMismatch, "collection dimension does not match embedding model")

// Session errors
var (
	ErrTaskCancelled   = NewDomainError(ErrCodeTaskCancelled, "generation stopped")
	ErrSessionNotFound = NewDomainError(ErrCodeNotFound, "streaming session not found")
)

// Validation errors
var (
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidChunkKind     = NewDomainError(ErrCodeValidation, "invalid chunk kind")
	ErrInvalidFilterField   = NewDomainError(ErrCodeValidation, "filter references an unindexed field")
)
