// Package mode defines the summarization mode contract: each mode turns a
// message list into a prompt and parses raw LLM output back into a
// structured SummaryResult. Modes are an open set; new ones implement
// ModeStrategy and register themselves, nothing dispatches on names.
package mode

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/summarion/summarion/internal/core"
)

// DefaultModeVersion is the parse-logic version modes report unless they
// have been revised. Changing a mode's Parse behavior without bumping its
// version risks silently reinterpreting stored results.
const DefaultModeVersion = "1"

// ErrEmptyOutput indicates LLM output that is genuinely unusable (empty or
// whitespace only). Anything nonempty must degrade gracefully instead.
var ErrEmptyOutput = errors.New("mode: empty llm output")

// ModeStrategy encapsulates one summarization style as a pair of pure
// functions plus identity.
type ModeStrategy interface {
	// ModeName is the stable identifier persisted into SummaryResult.Mode.
	ModeName() string

	// ModeVersion versions the parsing logic for forward/backward
	// compatibility of stored results.
	ModeVersion() string

	// Prompt builds a prompt from the messages. It is deterministic for
	// identical input and must return a valid (if degenerate) prompt for
	// an empty message list, never fail.
	Prompt(messages []core.Message) string

	// Parse converts raw LLM output into a SummaryResult, attributing
	// structured fragments back to the input messages. Malformed but
	// nonempty output yields a fallback result with Summary populated;
	// only empty output returns ErrEmptyOutput.
	Parse(output string, messages []core.Message) (*core.SummaryResult, error)
}

// ContextAware is implemented by modes that can fold a prior summary into
// their prompt. Modes without it simply ignore hierarchical memory.
type ContextAware interface {
	PromptWithContext(prior *core.SummaryResult, messages []core.Message) string
}

// Registry holds registered mode strategies keyed by mode name.
type Registry struct {
	mu    sync.RWMutex
	modes map[string]ModeStrategy
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modes: make(map[string]ModeStrategy)}
}

// BuiltinRegistry returns a registry pre-populated with the built-in modes.
func BuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, m := range []ModeStrategy{
		NewPointwiseMode(),
		NewKeyDecisionsMode(),
		NewTimelineMode(),
		NewActionItemsMode(),
		NewNarrativeMode(),
	} {
		// Built-in names are distinct, Register cannot fail here.
		_ = r.Register(m)
	}
	return r
}

// Register adds a mode to the registry. Registering a second mode under an
// already-taken name is an error.
func (r *Registry) Register(m ModeStrategy) error {
	if m == nil || m.ModeName() == "" {
		return errors.New("mode: cannot register unnamed mode")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modes[m.ModeName()]; exists {
		return fmt.Errorf("mode: %q already registered", m.ModeName())
	}
	r.modes[m.ModeName()] = m
	return nil
}

// Get returns the mode registered under name.
func (r *Registry) Get(name string) (ModeStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, exists := r.modes[name]
	if !exists {
		return nil, fmt.Errorf("mode: unknown mode %q", name)
	}
	return m, nil
}

// Names returns the registered mode names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modes))
	for name := range r.modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
