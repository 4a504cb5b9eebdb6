package core

import (
	"errors"
	"fmt"
)

// MemoryLevel is the time horizon a summary is stored under within a
// namespace. Levels are sub-partitions of a namespace.
type MemoryLevel string

const (
	// MemoryRolling is a short-lived buffer of the most recent summary.
	MemoryRolling MemoryLevel = "rolling"

	// MemorySession covers the current conversation.
	MemorySession MemoryLevel = "session"

	// MemoryCanonical is long-lived consolidated memory.
	MemoryCanonical MemoryLevel = "canonical"
)

// Valid reports whether the level is one of the defined memory levels.
func (l MemoryLevel) Valid() bool {
	switch l {
	case MemoryRolling, MemorySession, MemoryCanonical:
		return true
	}
	return false
}

// Defaults applied by NewSummarizerConfig. Every default is explicit here
// rather than relying on zero values.
const (
	DefaultLLMProvider = "openai"
	DefaultMaxTokens   = 4000
	DefaultMaxCostUSD  = 0.05
	DefaultTemperature = 0.7
)

// ErrEmptyNamespace indicates a config without a namespace. The namespace is
// the partition key for all storage and audit operations; there is no
// sensible default for it.
var ErrEmptyNamespace = errors.New("namespace must not be empty")

// SummarizerConfig is the per-call (or per-tenant) configuration crossing
// from the caller into the core. It is read-only to the core.
type SummarizerConfig struct {
	// Namespace isolates tenants and conversations. Required.
	Namespace string `json:"namespace"`

	// LLMProvider selects the client implementation by name.
	LLMProvider string `json:"llm_provider"`

	// Model is the provider-specific model identifier. Empty selects the
	// provider's default.
	Model string `json:"model,omitempty"`

	MaxTokens   int     `json:"max_tokens"`
	MaxCostUSD  float64 `json:"max_cost_usd"`
	Temperature float64 `json:"temperature"`

	// EnablePIIRedaction is consulted by the redaction collaborator
	// before message content reaches a prompt.
	EnablePIIRedaction bool `json:"enable_pii_redaction"`

	// MemoryLevel selects the storage sub-partition for prior context and
	// persistence.
	MemoryLevel MemoryLevel `json:"memory_level"`
}

// NewSummarizerConfig returns a config for the given namespace with all
// defaults filled in explicitly.
func NewSummarizerConfig(namespace string) SummarizerConfig {
	return SummarizerConfig{
		Namespace:          namespace,
		LLMProvider:        DefaultLLMProvider,
		MaxTokens:          DefaultMaxTokens,
		MaxCostUSD:         DefaultMaxCostUSD,
		Temperature:        DefaultTemperature,
		EnablePIIRedaction: true,
		MemoryLevel:        MemorySession,
	}
}

// Validate checks the config invariants.
func (c SummarizerConfig) Validate() error {
	if c.Namespace == "" {
		return ErrEmptyNamespace
	}
	if !c.MemoryLevel.Valid() {
		return fmt.Errorf("unknown memory level %q", c.MemoryLevel)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative, got %d", c.MaxTokens)
	}
	if c.MaxCostUSD < 0 {
		return fmt.Errorf("max_cost_usd must not be negative, got %g", c.MaxCostUSD)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be in [0, 2], got %g", c.Temperature)
	}
	return nil
}
