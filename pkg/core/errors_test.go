package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Type:    ErrGateway,
		Message: "model overloaded",
	}

	expected := "gateway_error: model overloaded"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestError_WithCode(t *testing.T) {
	err := &Error{
		Type:    ErrGateway,
		Message: "too many requests",
		Code:    "rate_limit_exceeded",
	}

	expected := "gateway_error: too many requests (code: rate_limit_exceeded)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewGatewayError("converse", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestTypeOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorType
	}{
		{NewInputRejectedError("empty"), ErrInputRejected},
		{NewTranscriptionError("bad clip", nil), ErrTranscription},
		{NewSynthesisError("no audio", nil), ErrSynthesis},
		{NewImageGenerationError("quota", nil), ErrImageGeneration},
		{NewLocationUnavailableError("denied"), ErrLocationUnavailable},
		{NewPermissionDeniedError("mic"), ErrPermissionDenied},
		{NewStoreCorruptError("history:x", nil), ErrStoreCorrupt},
		{fmt.Errorf("wrapped: %w", NewGatewayError("boom", nil)), ErrGateway},
		{errors.New("plain"), ""},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := TypeOf(tc.err); got != tc.want {
			t.Errorf("TypeOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestIsType(t *testing.T) {
	err := NewLocationUnavailableError("denied")
	if !IsType(err, ErrLocationUnavailable) {
		t.Error("expected IsType to match")
	}
	if IsType(err, ErrGateway) {
		t.Error("expected IsType to reject a different type")
	}
}
