package llm

import (
	"fmt"
	"sort"
)

// Factory creates clients for configured providers.
type Factory struct {
	configs map[string]Config
}

// NewFactory creates a factory from per-provider configuration, keyed by
// provider name.
func NewFactory(configs map[string]Config) *Factory {
	if configs == nil {
		configs = make(map[string]Config)
	}
	return &Factory{configs: configs}
}

// Get returns an initialized client for the named provider.
func (f *Factory) Get(name string) (Client, error) {
	config, exists := f.configs[name]
	if !exists {
		return nil, fmt.Errorf("configuration for provider %q not found", name)
	}

	switch name {
	case ProviderAnthropic:
		return NewAnthropicClient(config), nil
	case ProviderOpenAI:
		return NewOpenAIClient(config), nil
	case ProviderGoogle:
		return NewGoogleClient(config), nil
	case ProviderXAI:
		return NewXAIClient(config), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}

// Names returns the configured provider names in sorted order.
func (f *Factory) Names() []string {
	names := make([]string, 0, len(f.configs))
	for name := range f.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
