// Package llm defines the uniform completion contract that every language
// model provider adapter implements, together with the error taxonomy the
// orchestrator relies on for its retry policy.
package llm

import (
	"context"
	"time"
)

// Provider name constants. The factory resolves clients by these names and
// SummarizerConfig.LLMProvider selects among them.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderXAI       = "xai"
)

const (
	// DefaultTimeout bounds a single completion request. Clients surface
	// ErrTimedOut rather than hang past it.
	DefaultTimeout = 30 * time.Second

	// DefaultTemperature is applied when the caller does not set one.
	DefaultTemperature = 0.7

	// DefaultMaxOutputTokens is the per-request output cap used when the
	// caller leaves MaxTokens unset.
	DefaultMaxOutputTokens = 1024
)

// CompleteOptions carries the per-call parameters for a completion.
type CompleteOptions struct {
	// Model is the provider-specific model identifier. Empty selects the
	// client's configured or built-in default.
	Model string

	// Temperature is the sampling temperature, sent as given.
	Temperature float64

	// MaxTokens caps the generated output. Zero means the client default.
	MaxTokens int

	// Extra is an open, provider-specific option bag. Keys have
	// provider-defined effects; clients may ignore or interpret them.
	Extra map[string]any
}

// DefaultCompleteOptions returns options with every default made explicit.
func DefaultCompleteOptions() CompleteOptions {
	return CompleteOptions{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxOutputTokens,
	}
}

// Client adapts one LLM provider to a uniform completion interface.
//
// Complete is synchronous from the caller's perspective and must be safe for
// concurrent use. It returns raw text, or fails with ErrRateLimited,
// ErrTimedOut, or a *ProviderError. Clients never retry internally; retry
// policy belongs to the orchestrator.
type Client interface {
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)

	// Name returns the stable provider name (one of the Provider constants
	// for the built-in clients).
	Name() string
}

// ModelResolver is implemented by clients that can report the concrete
// model id a request would use once defaults are applied. Callers that
// record the model (metadata, audit) should prefer this over the requested
// model, which may be empty.
type ModelResolver interface {
	ResolvedModel(requested string) string
}

// Config holds the common configuration shared by the built-in clients.
type Config struct {
	APIKey  string
	ModelID string

	// BaseURL overrides the provider endpoint. Empty uses the real API.
	BaseURL string
}

// resolveModel applies the model default chain: the requested model, then
// the configured ModelID, then the client's built-in default.
func (c Config) resolveModel(requested, builtin string) string {
	if requested != "" {
		return requested
	}
	if c.ModelID != "" {
		return c.ModelID
	}
	return builtin
}
