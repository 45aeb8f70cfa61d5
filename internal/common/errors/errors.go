// Package errors provides standardized error handling for the agent gateway.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Configuration errors: the request can never succeed as configured.
	ErrCodeUnknownTemplate ErrorCode = "UNKNOWN_TEMPLATE"
	ErrCodeConfigMissing   ErrorCode = "CONFIG_MISSING"
	ErrCodeInvalidRequest  ErrorCode = "INVALID_REQUEST"

	// Guardrail violations: rejected by policy before any network call.
	ErrCodeReadOnlyViolation ErrorCode = "READ_ONLY_VIOLATION"
	ErrCodeTableAccessDenied ErrorCode = "TABLE_ACCESS_DENIED"

	// Transient backend failures: retried, then surfaced.
	ErrCodeSQLBackendUnavailable    ErrorCode = "SQL_BACKEND_UNAVAILABLE"
	ErrCodeSearchBackendUnavailable ErrorCode = "SEARCH_BACKEND_UNAVAILABLE"
)

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

// ==========================
// 2. Error Constructors
// ==========================

// NewUnknownTemplateError creates a non-retryable configuration error.
func NewUnknownTemplateError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownTemplate,
		Message:   "SQL template is not registered",
		Details:   name,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigMissingError creates a non-retryable configuration error.
func NewConfigMissingError(setting string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigMissing,
		Message:   "Required setting is not configured",
		Details:   setting,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable request error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Request payload is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReadOnlyViolationError creates a guardrail error for non-SELECT statements.
func NewReadOnlyViolationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReadOnlyViolation,
		Message:   "Only read-only SELECT statements are permitted",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTableAccessDeniedError creates a guardrail error for non-view references.
func NewTableAccessDeniedError(identifier string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTableAccessDenied,
		Message:   "Statement references an object outside the curated view surface",
		Details:   identifier,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSQLBackendUnavailableError creates a retryable backend error.
func NewSQLBackendUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSQLBackendUnavailable,
		Message:   "SQL backend did not answer within the retry budget",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchBackendUnavailableError creates a retryable backend error.
func NewSearchBackendUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchBackendUnavailable,
		Message:   "Search backend did not answer within the retry budget",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// AsStandard extracts a *StandardError from err when present.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsGuardrailViolation reports whether err was rejected by policy.
func IsGuardrailViolation(err error) bool {
	stdErr, ok := AsStandard(err)
	if !ok {
		return false
	}
	return stdErr.Code == ErrCodeReadOnlyViolation || stdErr.Code == ErrCodeTableAccessDenied
}

// IsConfigError reports whether err is a configuration problem.
func IsConfigError(err error) bool {
	stdErr, ok := AsStandard(err)
	if !ok {
		return false
	}
	switch stdErr.Code {
	case ErrCodeUnknownTemplate, ErrCodeConfigMissing, ErrCodeInvalidRequest:
		return true
	}
	return false
}

// IsRetryable reports whether err represents a transient condition.
func IsRetryable(err error) bool {
	stdErr, ok := AsStandard(err)
	if !ok {
		return false
	}
	return stdErr.Retryable
}

// HTTPStatus maps an error to the response status the transport should use:
// policy rejections become 403, configuration and request errors 400, and
// transient backend failures 502.
func HTTPStatus(err error) int {
	switch {
	case IsGuardrailViolation(err):
		return http.StatusForbidden
	case IsConfigError(err):
		return http.StatusBadRequest
	case IsRetryable(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
