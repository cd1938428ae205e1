// Package errors provides a lightweight structured error type (BeetmoverError)
// for category-based classification and retry semantics across the mover and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a beetmover error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryTask       ErrorCategory = "task"
	CategoryManifest   ErrorCategory = "manifest"

	// Security and source-vetting errors
	CategorySource ErrorCategory = "source"

	// Transfer errors
	CategoryNetwork  ErrorCategory = "network"
	CategoryDownload ErrorCategory = "download"
	CategoryUpload   ErrorCategory = "upload"

	// Runtime and infrastructure errors
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// BeetmoverError is a structured error with category, retryability, and context.
// Retryable marks a transient failure; a non-retryable transfer error is
// permanent and must not consume retry budget.
type BeetmoverError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BeetmoverError
type ContextFields map[string]any

// Error implements the error interface
func (e *BeetmoverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *BeetmoverError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BeetmoverError) WithContext(key string, value any) *BeetmoverError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new BeetmoverError
func New(category ErrorCategory, severity ErrorSeverity, message string) *BeetmoverError {
	return &BeetmoverError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new BeetmoverError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *BeetmoverError {
	return &BeetmoverError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// Retryable creates a new retryable BeetmoverError
func Retryable(category ErrorCategory, severity ErrorSeverity, message string) *BeetmoverError {
	return &BeetmoverError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: true,
	}
}

// WrapRetryable creates a new retryable BeetmoverError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *BeetmoverError {
	return &BeetmoverError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if bme, ok := err.(*BeetmoverError); ok {
		return bme.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if bme, ok := err.(*BeetmoverError); ok {
		return bme.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a BeetmoverError
func GetCategory(err error) ErrorCategory {
	if bme, ok := err.(*BeetmoverError); ok {
		return bme.Category
	}
	return CategoryInternal
}
