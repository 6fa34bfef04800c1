// internal/common/errors/errors.go

// Package errors provides standardized error handling for the directory engine.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeRecordNotFound  ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeMalformedRecord ErrorCode = "MALFORMED_RECORD"
	ErrCodeStaleReference  ErrorCode = "STALE_REFERENCE"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"

	ErrCodeStoreConnectionFailed ErrorCode = "STORE_CONNECTION_FAILED"
	ErrCodeStoreQueryFailed      ErrorCode = "STORE_QUERY_FAILED"
	ErrCodeStoreTimeout          ErrorCode = "STORE_TIMEOUT"

	ErrCodeImportFailed          ErrorCode = "IMPORT_FAILED"
	ErrCodeFamiliesConfigInvalid ErrorCode = "FAMILIES_CONFIG_INVALID"
	ErrCodeReconcileFailed       ErrorCode = "RECONCILE_FAILED"
)

// ErrNotFound is the sentinel returned by lookups when no record exists.
// Callers that treat absence as a normal outcome test for it with errors.Is.
var ErrNotFound = errors.New("record not found")

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is resolve the sentinel behind a not-found StandardError.
func (e *StandardError) Unwrap() error {
	if e.Code == ErrCodeRecordNotFound {
		return ErrNotFound
	}
	return nil
}

// ==========================
// 2. Error Constructors
// ==========================

// NewRecordNotFoundError creates a non-retryable lookup error.
func NewRecordNotFoundError(kind, key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordNotFound,
		Message:   fmt.Sprintf("%s not found", kind),
		Details:   fmt.Sprintf("key: %s", key),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedRecordError creates a non-retryable decode error.
func NewMalformedRecordError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedRecord,
		Message:   "Stored record could not be decoded",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStaleReferenceError creates a non-retryable error for an index member
// whose forward record no longer exists.
func NewStaleReferenceError(indexKey, member string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStaleReference,
		Message:   "Index references a missing record",
		Details:   fmt.Sprintf("index: %s, member: %s", indexKey, member),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreConnectionFailedError creates a retryable store connection error.
func NewStoreConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreConnectionFailed,
		Message:   "Store connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreQueryFailedError creates a retryable store query error.
func NewStoreQueryFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreQueryFailed,
		Message:   "Store query error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreTimeoutError creates a retryable store timeout error.
func NewStoreTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreTimeout,
		Message:   "Store operation timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewImportFailedError creates a non-retryable bulk import error.
func NewImportFailedError(details string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeImportFailed,
		Message:   "Bulk import failed",
		Details:   fmt.Sprintf("%s: %s", details, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFamiliesConfigInvalidError creates a non-retryable configuration error.
func NewFamiliesConfigInvalidError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFamiliesConfigInvalid,
		Message:   "Category families configuration is invalid",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReconcileFailedError creates a retryable reconciliation error.
func NewReconcileFailedError(phase string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReconcileFailed,
		Message:   "Reconciliation pass failed",
		Details:   fmt.Sprintf("phase: %s, error: %s", phase, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// IsRetryableErrorCode reports whether errors with this code should be retried.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeStoreConnectionFailed, ErrCodeStoreQueryFailed, ErrCodeStoreTimeout, ErrCodeReconcileFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory maps an error code to a coarse category for logging and metrics.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "STORE"):
		return "store"
	case strings.Contains(codeStr, "IMPORT"):
		return "import"
	case strings.Contains(codeStr, "RECONCILE"):
		return "reconcile"
	case strings.Contains(codeStr, "FAMILIES"):
		return "configuration"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "MALFORMED"):
		return "validation"
	case strings.Contains(codeStr, "NOT_FOUND") || strings.Contains(codeStr, "STALE"):
		return "lookup"
	default:
		return "unknown"
	}
}
