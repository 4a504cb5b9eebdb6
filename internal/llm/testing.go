package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockResponseConfig holds configuration for mock API responses.
type MockResponseConfig struct {
	StatusCode   int
	ResponseBody interface{}
	Headers      map[string]string
}

// MockServer creates a test server that returns the configured response.
func MockServer(t *testing.T, config MockResponseConfig) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range config.Headers {
			w.Header().Set(k, v)
		}
		if _, exists := config.Headers["Content-Type"]; !exists {
			w.Header().Set("Content-Type", "application/json")
		}

		w.WriteHeader(config.StatusCode)

		if config.ResponseBody == nil {
			return
		}

		var respBytes []byte
		var err error
		switch body := config.ResponseBody.(type) {
		case string:
			respBytes = []byte(body)
		case []byte:
			respBytes = body
		default:
			respBytes, err = json.Marshal(body)
			if err != nil {
				t.Fatalf("Failed to marshal mock response: %v", err)
			}
		}

		if _, err := w.Write(respBytes); err != nil {
			t.Errorf("Failed to write response body: %v", err)
		}
	}))
}

// StubClient is a Client implementation for tests. It returns a fixed
// completion or error and records the inputs it was called with.
type StubClient struct {
	ClientName string
	Output     string
	Err        error

	// DefaultModel is what ResolvedModel reports when the request leaves
	// the model unset.
	DefaultModel string

	// FailFirst makes the first N calls fail with Err before succeeding.
	FailFirst int

	mu           sync.Mutex
	calls        int
	lastPrompt   string
	lastOptions  CompleteOptions
	promptsByOrd []string
}

// Complete returns the configured output or error.
func (s *StubClient) Complete(_ context.Context, prompt string, opts CompleteOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.lastPrompt = prompt
	s.lastOptions = opts
	s.promptsByOrd = append(s.promptsByOrd, prompt)

	if s.Err != nil && (s.FailFirst == 0 || s.calls <= s.FailFirst) {
		return "", s.Err
	}
	return s.Output, nil
}

// Name returns the configured name, or "stub".
func (s *StubClient) Name() string {
	if s.ClientName == "" {
		return "stub"
	}
	return s.ClientName
}

// ResolvedModel returns the requested model, or DefaultModel when unset.
func (s *StubClient) ResolvedModel(requested string) string {
	if requested != "" {
		return requested
	}
	return s.DefaultModel
}

// Calls returns how many times Complete was invoked.
func (s *StubClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// LastPrompt returns the prompt from the most recent Complete call.
func (s *StubClient) LastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPrompt
}

// LastOptions returns the options from the most recent Complete call.
func (s *StubClient) LastOptions() CompleteOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOptions
}
