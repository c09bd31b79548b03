// Package errors provides structured error types for FitPlan.
//
// All errors in FitPlan should use these types to enable consistent
// error handling, logging, and retry logic across the codebase.
package errors

import (
	"fmt"
)

// ErrorCode represents a unique error identifier for categorization.
type ErrorCode string

// Common error codes used throughout FitPlan.
const (
	// User errors
	CodeUserNotAuthenticated ErrorCode = "USER_NOT_AUTHENTICATED"

	// Backend call errors
	CodeBackendUnreachable ErrorCode = "BACKEND_UNREACHABLE"
	CodeBackendTimeout     ErrorCode = "BACKEND_TIMEOUT"
	CodeBackendRejected    ErrorCode = "BACKEND_REJECTED"

	// Document errors
	CodeUploadNotFound     ErrorCode = "UPLOAD_NOT_FOUND"
	CodePredictionNotFound ErrorCode = "PREDICTION_NOT_FOUND"
	CodePlanNotFound       ErrorCode = "PLAN_NOT_FOUND"

	// Infrastructure errors
	CodeStoreError        ErrorCode = "STORE_ERROR"
	CodeSubscriptionError ErrorCode = "SUBSCRIPTION_ERROR"
	CodePublishError      ErrorCode = "PUBLISH_ERROR"
	CodeSecretError       ErrorCode = "SECRET_ERROR"

	// General errors
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternalError   ErrorCode = "INTERNAL_ERROR"
)

// FitPlanError is the base error type for all FitPlan errors.
// It provides structured error information including error codes,
// retry semantics, and contextual metadata.
type FitPlanError struct {
	Code      ErrorCode         // Unique error code for categorization
	Message   string            // Human-readable error message
	Cause     error             // Underlying error (if any)
	Retryable bool              // Whether the operation can be retried
	Metadata  map[string]string // Additional context
}

// Error implements the error interface.
func (e *FitPlanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *FitPlanError) Unwrap() error {
	return e.Cause
}

// Is matches on error code so that sentinel comparisons survive wrapping.
func (e *FitPlanError) Is(target error) bool {
	if t, ok := target.(*FitPlanError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithCause wraps an underlying error.
func (e *FitPlanError) WithCause(cause error) *FitPlanError {
	return &FitPlanError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     cause,
		Retryable: e.Retryable,
		Metadata:  e.Metadata,
	}
}

// WithMessage adds a custom message.
func (e *FitPlanError) WithMessage(msg string) *FitPlanError {
	return &FitPlanError{
		Code:      e.Code,
		Message:   msg,
		Cause:     e.Cause,
		Retryable: e.Retryable,
		Metadata:  e.Metadata,
	}
}

// WithMetadata adds contextual metadata.
func (e *FitPlanError) WithMetadata(key, value string) *FitPlanError {
	meta := make(map[string]string)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	return &FitPlanError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     e.Cause,
		Retryable: e.Retryable,
		Metadata:  meta,
	}
}

// Pre-defined sentinel errors for common cases.
// Use these with errors.Is() or wrap them with .WithCause().
var (
	ErrNotAuthenticated = &FitPlanError{Code: CodeUserNotAuthenticated, Message: "user not authenticated", Retryable: false}

	ErrBackendUnreachable = &FitPlanError{Code: CodeBackendUnreachable, Message: "could not reach backend", Retryable: true}
	ErrBackendTimeout     = &FitPlanError{Code: CodeBackendTimeout, Message: "backend call timed out", Retryable: true}
	ErrBackendRejected    = &FitPlanError{Code: CodeBackendRejected, Message: "backend rejected request", Retryable: false}

	ErrUploadNotFound     = &FitPlanError{Code: CodeUploadNotFound, Message: "upload not found", Retryable: false}
	ErrPredictionNotFound = &FitPlanError{Code: CodePredictionNotFound, Message: "prediction not found", Retryable: false}
	ErrPlanNotFound       = &FitPlanError{Code: CodePlanNotFound, Message: "plan not found", Retryable: false}

	ErrStore        = &FitPlanError{Code: CodeStoreError, Message: "document store error", Retryable: true}
	ErrSubscription = &FitPlanError{Code: CodeSubscriptionError, Message: "subscription error", Retryable: false}
	ErrPublish      = &FitPlanError{Code: CodePublishError, Message: "publish error", Retryable: true}
	ErrSecret       = &FitPlanError{Code: CodeSecretError, Message: "secret access error", Retryable: true}

	ErrValidation = &FitPlanError{Code: CodeValidationError, Message: "validation error", Retryable: false}
	ErrInternal   = &FitPlanError{Code: CodeInternalError, Message: "internal error", Retryable: false}
)

// New creates a new FitPlanError with the given code and message.
func New(code ErrorCode, message string) *FitPlanError {
	return &FitPlanError{
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// NewRetryable creates a new retryable FitPlanError.
func NewRetryable(code ErrorCode, message string) *FitPlanError {
	return &FitPlanError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// Wrap wraps an error with a FitPlanError.
func Wrap(cause error, code ErrorCode, message string) *FitPlanError {
	return &FitPlanError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: false,
	}
}

// WrapRetryable wraps an error with a retryable FitPlanError.
func WrapRetryable(cause error, code ErrorCode, message string) *FitPlanError {
	return &FitPlanError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: true,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if fpErr, ok := err.(*FitPlanError); ok {
		return fpErr.Retryable
	}
	return false
}

// GetCode extracts the error code, or CodeInternalError for foreign errors.
func GetCode(err error) ErrorCode {
	if fpErr, ok := err.(*FitPlanError); ok {
		return fpErr.Code
	}
	return CodeInternalError
}
