// Package core holds the shared error taxonomy for the kanojo conversation
// engine. Every failure that crosses a component boundary is typed here so the
// caller decides recovery policy instead of string-matching.
package core

import (
	"errors"
	"fmt"
)

// Error represents a typed engine error.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    string    `json:"code,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes errors.
type ErrorType string

const (
	// ErrInputRejected is a client-side rejection; no remote call was made.
	ErrInputRejected ErrorType = "input_rejected"
	// ErrGateway is a remote inference failure: network, quota, safety filter.
	ErrGateway ErrorType = "gateway_error"
	// ErrTranscription is a speech-to-text failure.
	ErrTranscription ErrorType = "transcription_error"
	// ErrSynthesis is a text-to-speech failure.
	ErrSynthesis ErrorType = "synthesis_error"
	// ErrImageGeneration is an image generation failure.
	ErrImageGeneration ErrorType = "image_generation_error"
	// ErrLocationUnavailable means the environment denied or failed a
	// geolocation request.
	ErrLocationUnavailable ErrorType = "location_unavailable"
	// ErrPermissionDenied means a device permission (microphone, location)
	// was refused.
	ErrPermissionDenied ErrorType = "permission_denied"
	// ErrStoreCorrupt means a persisted value failed to decode. Always
	// recovered locally, never surfaced to the user.
	ErrStoreCorrupt ErrorType = "store_corrupt"
)

// NewInputRejectedError creates an input rejection error.
func NewInputRejectedError(message string) *Error {
	return &Error{Type: ErrInputRejected, Message: message}
}

// NewGatewayError creates a gateway error wrapping the remote failure.
func NewGatewayError(message string, cause error) *Error {
	return &Error{Type: ErrGateway, Message: message, Cause: cause}
}

// NewTranscriptionError creates a transcription error.
func NewTranscriptionError(message string, cause error) *Error {
	return &Error{Type: ErrTranscription, Message: message, Cause: cause}
}

// NewSynthesisError creates a speech synthesis error.
func NewSynthesisError(message string, cause error) *Error {
	return &Error{Type: ErrSynthesis, Message: message, Cause: cause}
}

// NewImageGenerationError creates an image generation error.
func NewImageGenerationError(message string, cause error) *Error {
	return &Error{Type: ErrImageGeneration, Message: message, Cause: cause}
}

// NewLocationUnavailableError creates a location error.
func NewLocationUnavailableError(message string) *Error {
	return &Error{Type: ErrLocationUnavailable, Message: message}
}

// NewPermissionDeniedError creates a permission error.
func NewPermissionDeniedError(message string) *Error {
	return &Error{Type: ErrPermissionDenied, Message: message}
}

// NewStoreCorruptError creates a store corruption error.
func NewStoreCorruptError(key string, cause error) *Error {
	return &Error{Type: ErrStoreCorrupt, Message: fmt.Sprintf("corrupt value for key %q", key), Cause: cause}
}

// TypeOf returns the ErrorType of err, or "" when err carries no typed engine
// error in its chain.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsType reports whether err carries the given error type.
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}
