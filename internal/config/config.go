package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/localrivet/configurator"

	"github.com/summarion/summarion/internal/core"
	"github.com/summarion/summarion/internal/llm"
	"github.com/summarion/summarion/internal/logger"
)

// Global configuration instance
var (
	// Global is the global configuration instance
	Global *Config
	// initOnce ensures initialization happens only once
	initOnce sync.Once
)

// InitGlobal initializes the global configuration
func InitGlobal(configPath string) (*Config, error) {
	var err error
	initOnce.Do(func() {
		Global, err = LoadConfigWithPath(configPath)
	})
	return Global, err
}

// ProviderConfig holds the credentials and model selection for one LLM
// provider.
type ProviderConfig struct {
	// ApiKey is the API key for the provider.
	ApiKey string `json:"api_key"`

	// Model is the provider-specific model identifier. Empty selects the
	// provider's default model.
	Model string `json:"model"`
}

// Config represents the Summarion configuration
type Config struct {
	// Store contains storage-related configuration.
	Store struct {
		// SQLitePath is the path to the SQLite database file. Empty
		// selects the in-memory store.
		SQLitePath string `json:"sqlite_path" env:"SQLITE_PATH"`
	} `json:"store"`

	// Providers contains per-provider LLM configuration.
	Providers struct {
		Anthropic ProviderConfig `json:"anthropic"`
		OpenAI    ProviderConfig `json:"openai"`
		Google    ProviderConfig `json:"google"`
		XAI       ProviderConfig `json:"xai"`
	} `json:"providers"`

	// Summarizer contains the per-call defaults applied when a request
	// does not override them.
	Summarizer struct {
		// Provider is the default LLM provider name.
		Provider string `json:"provider" env:"SUMMARIZER_PROVIDER"`

		// Mode is the default summarization mode.
		Mode string `json:"mode" env:"SUMMARIZER_MODE"`

		MaxTokens          int     `json:"max_tokens" env:"SUMMARIZER_MAX_TOKENS"`
		MaxCostUSD         float64 `json:"max_cost_usd" env:"SUMMARIZER_MAX_COST_USD"`
		Temperature        float64 `json:"temperature" env:"SUMMARIZER_TEMPERATURE"`
		EnablePIIRedaction bool    `json:"enable_pii_redaction" env:"SUMMARIZER_REDACT_PII"`

		// MemoryLevel is the default storage partition ("rolling",
		// "session", or "canonical").
		MemoryLevel string `json:"memory_level" env:"SUMMARIZER_MEMORY_LEVEL"`
	} `json:"summarizer"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level to display ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`
	} `json:"logging"`

	// Internal state (not saved to config file)
	configPath     string       `json:"-"`
	mutex          sync.RWMutex `json:"-"`
	lastModifiedAt time.Time    `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename = ".summarionconfig"
	DefaultSQLitePath     = ".summarion.db"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultMode           = "pointwise"
)

// NewConfig creates a new Config instance with default values
func NewConfig() *Config {
	config := &Config{}
	config.Store.SQLitePath = DefaultSQLitePath
	config.Summarizer.Provider = core.DefaultLLMProvider
	config.Summarizer.Mode = DefaultMode
	config.Summarizer.MaxTokens = core.DefaultMaxTokens
	config.Summarizer.MaxCostUSD = core.DefaultMaxCostUSD
	config.Summarizer.Temperature = core.DefaultTemperature
	config.Summarizer.EnablePIIRedaction = true
	config.Summarizer.MemoryLevel = string(core.MemorySession)
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	return config
}

// LoadConfig loads the configuration from the default path
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath(DefaultConfigFilename)
}

// LoadConfigWithPath loads the configuration from a specific path
func LoadConfigWithPath(configPath string) (*Config, error) {
	// Create a default logger for configuration loading
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Create default configuration
	cfg := NewConfig()

	// Try to find config file if path is default
	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	// Check if the file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// File doesn't exist, return default config
		stdLogger.Info("Config file not found, using default configuration", "path", configPath)
		cfg.fillProviderKeysFromEnv()
		cfg.configPath = configPath
		cfg.lastModifiedAt = time.Now()
		return cfg, nil
	}

	stdLogger.Info("Loading configuration", "path", configPath)

	// Create configurator instance
	config := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider()).
		WithProvider(configurator.NewFileProvider(configPath)).
		WithProvider(configurator.NewEnvProvider("SUMMARION")).
		WithValidator(configurator.NewDefaultValidator())

	// Load configuration
	ctx := context.Background()
	if err := config.Load(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.fillProviderKeysFromEnv()

	// Store the config path for future operations
	cfg.configPath = configPath
	cfg.lastModifiedAt = time.Now()

	return cfg, nil
}

// fillProviderKeysFromEnv fills in API keys from the conventional provider
// environment variables when the config file left them empty.
func (c *Config) fillProviderKeysFromEnv() {
	if c.Providers.Anthropic.ApiKey == "" {
		c.Providers.Anthropic.ApiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if c.Providers.OpenAI.ApiKey == "" {
		c.Providers.OpenAI.ApiKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Providers.Google.ApiKey == "" {
		c.Providers.Google.ApiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if c.Providers.XAI.ApiKey == "" {
		c.Providers.XAI.ApiKey = os.Getenv("XAI_API_KEY")
	}
}

// ProviderConfigs converts the provider section into the client
// configuration map consumed by llm.NewFactory. Providers without an API key
// are omitted.
func (c *Config) ProviderConfigs() map[string]llm.Config {
	configs := make(map[string]llm.Config)

	add := func(name string, pc ProviderConfig) {
		if pc.ApiKey == "" {
			return
		}
		configs[name] = llm.Config{APIKey: pc.ApiKey, ModelID: pc.Model}
	}
	add(llm.ProviderAnthropic, c.Providers.Anthropic)
	add(llm.ProviderOpenAI, c.Providers.OpenAI)
	add(llm.ProviderGoogle, c.Providers.Google)
	add(llm.ProviderXAI, c.Providers.XAI)

	return configs
}

// SummarizerDefaults builds the per-call configuration for a namespace from
// the configured defaults.
func (c *Config) SummarizerDefaults(namespace string) core.SummarizerConfig {
	cfg := core.NewSummarizerConfig(namespace)
	if c.Summarizer.Provider != "" {
		cfg.LLMProvider = c.Summarizer.Provider
	}
	if c.Summarizer.MaxTokens > 0 {
		cfg.MaxTokens = c.Summarizer.MaxTokens
	}
	if c.Summarizer.MaxCostUSD > 0 {
		cfg.MaxCostUSD = c.Summarizer.MaxCostUSD
	}
	if c.Summarizer.Temperature > 0 {
		cfg.Temperature = c.Summarizer.Temperature
	}
	cfg.EnablePIIRedaction = c.Summarizer.EnablePIIRedaction
	if c.Summarizer.MemoryLevel != "" {
		cfg.MemoryLevel = core.MemoryLevel(c.Summarizer.MemoryLevel)
	}

	switch cfg.LLMProvider {
	case llm.ProviderAnthropic:
		cfg.Model = c.Providers.Anthropic.Model
	case llm.ProviderOpenAI:
		cfg.Model = c.Providers.OpenAI.Model
	case llm.ProviderGoogle:
		cfg.Model = c.Providers.Google.Model
	case llm.ProviderXAI:
		cfg.Model = c.Providers.XAI.Model
	}

	return cfg
}

// SaveToFile saves the configuration to the specified file
func (c *Config) SaveToFile(path string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Create directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Save using configurator's SaveToFile function
	if err := configurator.SaveToFile(c, path, configurator.FormatJSON); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	// Update internal state
	c.configPath = path
	c.lastModifiedAt = time.Now()

	return nil
}

// Save saves the configuration to the last used file path
func (c *Config) Save() error {
	if c.configPath == "" {
		c.configPath = DefaultConfigFilename
	}
	return c.SaveToFile(c.configPath)
}

// GetConfigPath returns the path of the currently loaded configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// NewLogger creates an internal logger matching the logging configuration.
func (c *Config) NewLogger() *logger.Logger {
	logConfig := logger.DefaultConfig()
	logConfig.Level = logger.ParseLevel(c.Logging.Level)
	if c.Logging.Format == "json" {
		logConfig.Format = logger.JSON
	}
	return logger.New(logConfig)
}
