// Package services provides the business logic layer between handlers and the
// analysis engine. Services load data, run analyses, publish events and map
// failures to ServiceError codes.
package services

import (
	"context"
	"errors"

	"github.com/soltixdb/orelens/internal/engine"
	"github.com/soltixdb/orelens/internal/source"
)

// Service error codes
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	CodeSourceMalformed   = "SOURCE_MALFORMED"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeAnalysisFailed    = "ANALYSIS_FAILED"
	CodeRenderFailed      = "RENDER_FAILED"
	CodeCanceled          = "CANCELED"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// classify converts an engine, source or context error into a ServiceError
func classify(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}

	var ve *engine.ValidationError
	switch {
	case errors.As(err, &ve):
		return &ServiceError{
			Code:    CodeInvalidInput,
			Message: ve.Error(),
			Details: map[string]interface{}{"field": ve.Field, "reason": ve.Reason},
			Err:     err,
		}
	case errors.Is(err, engine.ErrInvalidInput):
		return &ServiceError{Code: CodeInvalidInput, Message: err.Error(), Err: err}
	case errors.Is(err, source.ErrMalformed):
		return &ServiceError{Code: CodeSourceMalformed, Message: err.Error(), Err: err}
	case errors.Is(err, source.ErrUnavailable):
		return &ServiceError{Code: CodeSourceUnavailable, Message: err.Error(), Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &ServiceError{Code: CodeCanceled, Message: "request canceled or timed out", Err: err}
	default:
		return &ServiceError{Code: CodeAnalysisFailed, Message: "analysis failed", Details: map[string]interface{}{"error": err.Error()}, Err: err}
	}
}
