package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Sentinel errors for the two transient failure classes. Callers match them
// with errors.Is and decide backoff themselves.
var (
	// ErrRateLimited indicates the provider rejected the request due to
	// rate limiting. The caller should back off and may retry.
	ErrRateLimited = errors.New("llm: rate limited")

	// ErrTimedOut indicates the request did not complete in time. The
	// caller may retry with backoff.
	ErrTimedOut = errors.New("llm: request timed out")
)

// ProviderError is the generic failure class: anything that is neither a
// rate limit nor a timeout. Retrying is the caller's choice and is not
// guaranteed to be safe.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm: %s provider error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm: %s provider error: %s", e.Provider, e.Message)
}

// Retryable reports whether the error is one the orchestrator may safely
// retry with backoff.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimedOut)
}

// statusError maps an HTTP status to the three-way taxonomy. Used by every
// built-in client after reading a non-2xx response.
func statusError(provider string, status int, message string) error {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: %s", ErrRateLimited, provider, message)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s: %s", ErrTimedOut, provider, message)
	default:
		return &ProviderError{Provider: provider, StatusCode: status, Message: message}
	}
}

// transportError maps a transport-level failure (connection refused, context
// deadline, socket timeout) to the taxonomy.
func transportError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrTimedOut, provider, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: %v", ErrTimedOut, provider, err)
	}
	return &ProviderError{Provider: provider, Message: err.Error()}
}
