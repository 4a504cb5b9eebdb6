package server

import (
	"errors"
	"strings"
	"testing"

	"github.com/summarion/summarion/internal/errortypes"
)

func TestErrorCode(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", errortypes.ValidationError(base, "bad input"), CodeValidationError},
		{"config", errortypes.ConfigError(base, "bad config"), CodeConfigError},
		{"provider", errortypes.ProviderError(base, "provider down"), CodeProviderError},
		{"storage", errortypes.StorageError(base, "disk full"), CodeStorageError},
		{"parse", errortypes.ParseError(base, "unusable output"), CodeParseError},
		{"internal", errortypes.InternalError(base, "bug"), CodeInternalError},
		{"plain error", base, CodeUnknownError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorCode(tt.err); got != tt.want {
				t.Errorf("errorCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToolError(t *testing.T) {
	err := errortypes.StorageError(errors.New("disk full"), "failed to persist summary")

	msg := toolError(err)
	if !strings.HasPrefix(msg, CodeStorageError+": ") {
		t.Errorf("Expected code prefix, got %q", msg)
	}
	if !strings.Contains(msg, "failed to persist summary") {
		t.Errorf("Expected error message, got %q", msg)
	}
}
