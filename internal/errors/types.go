package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType defines the category of the error
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "CONFIGURATION_ERROR"
	ErrorTypeValidation    ErrorType = "VALIDATION_ERROR"
	ErrorTypeUpload        ErrorType = "UPLOAD_ERROR"
	ErrorTypeSubmission    ErrorType = "SUBMISSION_ERROR"
	ErrorTypeProviderJob   ErrorType = "PROVIDER_JOB_ERROR"
	ErrorTypeTransport     ErrorType = "TRANSPORT_ERROR"
	ErrorTypeTimeout       ErrorType = "TIMEOUT_ERROR"
	ErrorTypeCanceled      ErrorType = "CANCELED_ERROR"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
)

// StatusClientClosedRequest is reported when the caller went away mid-request.
const StatusClientClosedRequest = 499

// AppError represents a structured error for the application
type AppError struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	StatusCode    int       `json:"statusCode"`
	ErrorCode     string    `json:"errorCode"`
	IsOperational bool      `json:"isOperational"`
	Recovery      string    `json:"recoverySuggestion,omitempty"`
	Err           error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Code returns the application-specific error code
func (e *AppError) Code() string {
	return e.ErrorCode
}

// RecoverySuggestion returns the suggestion on how to recover from the error
func (e *AppError) RecoverySuggestion() string {
	return e.Recovery
}

// IsServerError reports whether the error should be treated as a failure on our side.
func (e *AppError) IsServerError() bool {
	return e.StatusCode >= 500
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err is an *AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// NewConfigurationError creates a new server configuration error (500)
func NewConfigurationError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeConfiguration,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: false,
		Recovery:      "The server is missing required configuration. Contact the operator.",
		Err:           err,
	}
}

// NewValidationError creates a new validation error (400)
func NewValidationError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeValidation,
		Message:       message,
		StatusCode:    http.StatusBadRequest,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewPayloadTooLargeError creates a validation error for oversized uploads (413)
func NewPayloadTooLargeError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeValidation,
		Message:       message,
		StatusCode:    http.StatusRequestEntityTooLarge,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Send a smaller file or provide an audio URL instead.",
		Err:           err,
	}
}

// NewUploadError creates a new upload error (500)
func NewUploadError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeUpload,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Check the audio file and try again.",
		Err:           err,
	}
}

// NewSubmissionError creates a new transcript submission error (500)
func NewSubmissionError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeSubmission,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Verify the audio URL is publicly reachable and try again.",
		Err:           err,
	}
}

// NewProviderJobError creates an error for a transcript job the provider marked as failed (500)
func NewProviderJobError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeProviderJob,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Try providing a clearer or differently encoded audio source.",
		Err:           err,
	}
}

// NewTransportError creates a new network level error (500)
func NewTransportError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeTransport,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Wait a moment and submit the request again.",
		Err:           err,
	}
}

// NewTimeoutError creates a new timeout error (504)
func NewTimeoutError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeTimeout,
		Message:       message,
		StatusCode:    http.StatusGatewayTimeout,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "The transcription took too long. Try a shorter recording.",
		Err:           err,
	}
}

// NewCanceledError creates an error for requests abandoned by the caller (499)
func NewCanceledError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeCanceled,
		Message:       message,
		StatusCode:    StatusClientClosedRequest,
		ErrorCode:     errorCode,
		IsOperational: true,
		Err:           err,
	}
}

// NewInternalError creates a new unexpected error (500)
func NewInternalError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeInternal,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: false,
		Err:           err,
	}
}
