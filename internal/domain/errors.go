package domain

import (
	"errors"
	"fmt"
	"time"
)

// QueryError represents a standardized error response
type QueryError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrValidation     = "VALIDATION_ERROR"
	ErrRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrExternalAPI    = "EXTERNAL_API_ERROR"
	ErrDatabaseError  = "DATABASE_ERROR"
	ErrCatalogRefresh = "CATALOG_REFRESH_ERROR"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
)

// Pipeline failure kinds. None of these reach a caller as a raw error; the
// resolver turns each into a terminal QueryResult tagged with ErrorKind.
var (
	ErrProviderUnavailable     = errors.New("interpreter provider unavailable")
	ErrMalformedOutput         = errors.New("malformed interpreter output")
	ErrNoEntityDetected        = errors.New("no gene detected in query")
	ErrLowConfidence           = errors.New("interpretation confidence below threshold")
	ErrUnknownEntity           = errors.New("gene not present in catalog")
	ErrExternalDataUnavailable = errors.New("external data unavailable")
	ErrGeneNotFound            = errors.New("gene not found")
	ErrSnapshotNotFound        = errors.New("catalog snapshot not found")
)

// Result error kinds carried by QueryResult.ErrorKind
const (
	KindMalformedOutput         = "malformed_output"
	KindNoEntityDetected        = "no_entity_detected"
	KindLowConfidence           = "low_confidence"
	KindUnknownEntity           = "unknown_entity"
	KindExternalDataUnavailable = "external_data_unavailable"
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrMalformedOutput, KindMalformedOutput},
	{ErrNoEntityDetected, KindNoEntityDetected},
	{ErrLowConfidence, KindLowConfidence},
	{ErrUnknownEntity, KindUnknownEntity},
	{ErrExternalDataUnavailable, KindExternalDataUnavailable},
}

// ErrorKind names the pipeline failure err wraps, or "" for anything else.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return ""
}

// ProviderFailure classifies why an interpreter provider call failed.
type ProviderFailure string

const (
	// ProviderNotConfigured covers missing credentials and an open circuit.
	ProviderNotConfigured ProviderFailure = "unavailable"
	// ProviderTransport covers network errors, timeouts and non-2xx replies.
	ProviderTransport ProviderFailure = "transport"
)

// ProviderError is returned by every interpreter provider. It always matches
// ErrProviderUnavailable under errors.Is.
type ProviderError struct {
	Provider string
	Kind     ProviderFailure
	Err      error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("provider %s %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is reports provider errors as ErrProviderUnavailable.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// NewProviderError wraps err with the provider name and failure kind.
func NewProviderError(provider string, kind ProviderFailure, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewQueryError creates a new QueryError with timestamp
func NewQueryError(code, message, details, requestID string) *QueryError {
	return &QueryError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
