package errors_test

import (
	"errors"
	"fmt"
	"testing"

	. "codeduel/pkg/errors"
)

func TestErrorCode_Message(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{Success, "Success"},
		{InvalidParams, "Invalid parameters"},
		{LanguageNotSupported, "Programming language not supported"},
		{BackendUnavailable, "Execution backend unavailable"},
		{ErrorCode(99999), "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.Message(); got != tt.want {
				t.Errorf("Message() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code       ErrorCode
		wantStatus int
	}{
		{Success, 200},
		{InvalidParams, 400},
		{ValidationFailed, 400},
		{LanguageNotSupported, 400},
		{ProblemNotFound, 404},
		{BackendUnavailable, 503},
		{TooManyRequests, 429},
		{Timeout, 504},
		{ConfigurationError, 500},
	}

	for _, tt := range tests {
		t.Run(tt.code.Message(), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.wantStatus {
				t.Errorf("HTTPStatus() = %v, want %v", got, tt.wantStatus)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(LanguageNotSupported, "language %q is not supported", "cobol")

	want := `language "cobol" is not supported`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
	if err.Stack == "" {
		t.Error("expected stack to be captured")
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("connection refused")
	wrappedErr := Wrap(originalErr, BackendUnavailable)

	if wrappedErr.Code != BackendUnavailable {
		t.Errorf("Code = %v, want %v", wrappedErr.Code, BackendUnavailable)
	}
	if wrappedErr.Unwrap() != originalErr {
		t.Error("Unwrap() should return original error")
	}
	if Wrap(nil, BackendUnavailable) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapLeavesInnerErrorUntouched(t *testing.T) {
	inner := ValidationError("code", "cannot be blank")
	outer := Wrap(inner, InvalidFormat)

	if inner.Code != ValidationFailed {
		t.Fatalf("inner code changed to %v", inner.Code)
	}
	if outer.Code != InvalidFormat || outer.Error() != "code: cannot be blank" {
		t.Fatalf("unexpected outer error %v %q", outer.Code, outer.Error())
	}
	if outer.Details["field"] != "code" {
		t.Fatalf("expected details to be carried over")
	}
	if GetCode(outer) != InvalidFormat {
		t.Fatalf("expected outermost code to win")
	}
}

func TestIsServerSide(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: New(BackendUnavailable), want: true},
		{err: New(Timeout), want: true},
		{err: errors.New("boom"), want: true},
		{err: ValidationError("code", "cannot be blank"), want: false},
		{err: New(LanguageNotSupported), want: false},
		{err: New(ProblemNotFound), want: false},
		{err: nil, want: false},
	}
	for _, tt := range tests {
		if got := IsServerSide(tt.err); got != tt.want {
			t.Errorf("IsServerSide(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestGetCodeThroughWrapChain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "nil error", err: nil, want: Success},
		{name: "custom error", err: New(ProblemNotFound), want: ProblemNotFound},
		{name: "fmt wrapped", err: fmt.Errorf("dispatch: %w", New(BackendUnavailable)), want: BackendUnavailable},
		{name: "standard error", err: errors.New("standard error"), want: InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(ConfigurationError)

	if !Is(err, ConfigurationError) {
		t.Error("Is() should return true for matching code")
	}
	if Is(err, BackendUnavailable) {
		t.Error("Is() should return false for non-matching code")
	}
	if Is(nil, ConfigurationError) {
		t.Error("Is() should return false for nil error")
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError("language", "is required")

	if err.Code != ValidationFailed {
		t.Errorf("Code = %v, want %v", err.Code, ValidationFailed)
	}
	if err.Details["field"] != "language" {
		t.Error("Field detail not set correctly")
	}
	if err.Error() != "language: is required" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestConfigError(t *testing.T) {
	err := ConfigError("JUDGE_BACKEND_API_KEY")
	if err.Code != ConfigurationError {
		t.Fatalf("Code = %v, want %v", err.Code, ConfigurationError)
	}
	if err.Details["setting"] != "JUDGE_BACKEND_API_KEY" {
		t.Fatalf("setting detail not set")
	}
}
