package server

import (
	"errors"
	"fmt"

	"github.com/summarion/summarion/internal/errortypes"
)

// Error codes surfaced in tool responses
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeConfigError     = "CONFIG_ERROR"
	CodeProviderError   = "PROVIDER_ERROR"
	CodeStorageError    = "STORAGE_ERROR"
	CodeParseError      = "PARSE_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeUnknownError    = "UNKNOWN_ERROR"
)

// errorCode maps an application error to the stable code clients switch on.
func errorCode(err error) string {
	var appErr *errortypes.AppError
	if !errors.As(err, &appErr) {
		return CodeUnknownError
	}

	switch appErr.Type {
	case errortypes.ErrorTypeValidation:
		return CodeValidationError
	case errortypes.ErrorTypeConfig:
		return CodeConfigError
	case errortypes.ErrorTypeProvider:
		return CodeProviderError
	case errortypes.ErrorTypeStorage:
		return CodeStorageError
	case errortypes.ErrorTypeParse:
		return CodeParseError
	case errortypes.ErrorTypeInternal:
		return CodeInternalError
	default:
		return CodeUnknownError
	}
}

// toolError formats an error for a tool response as "CODE: message".
func toolError(err error) string {
	return fmt.Sprintf("%s: %v", errorCode(err), err)
}
