// Package summarion provides conversation summarization with pluggable
// summarization modes, LLM providers, and hierarchical namespaced memory.
package summarion

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/summarion/summarion/internal/config"
	"github.com/summarion/summarion/internal/core"
	"github.com/summarion/summarion/internal/errortypes"
	"github.com/summarion/summarion/internal/llm"
	"github.com/summarion/summarion/internal/memstore"
	"github.com/summarion/summarion/internal/mode"
	"github.com/summarion/summarion/internal/server"
	"github.com/summarion/summarion/internal/summarize"
)

// Config represents the configuration for the Summarion service.
type Config = config.Config

// Message is a single conversation turn.
type Message = core.Message

// SummaryResult is a structured summary with attribution and metadata.
type SummaryResult = core.SummaryResult

// SummarizerConfig is the per-call summarization configuration.
type SummarizerConfig = core.SummarizerConfig

// AuditEntry is one append-only audit record.
type AuditEntry = memstore.AuditEntry

// Server represents the Summarion service.
type Server struct {
	config     *config.Config
	store      memstore.Store
	clients    *llm.Factory
	orch       *summarize.Orchestrator
	toolServer server.SummaryToolServer
	logger     *slog.Logger
}

// ServerOptions defines the options for creating a new Server.
type ServerOptions struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil. If both are empty, DefaultConfig() is used.
	Logger     *slog.Logger // External logger. If nil, slog.Default() is used.
}

// NewServer creates a new Summarion Server with the given options.
// If opts.Config is provided, it will be used directly.
// Otherwise, if opts.ConfigPath is provided, configuration will be loaded from that path.
// If neither is provided, DefaultConfig() will be used.
// If opts.Logger is nil, slog.Default() will be used.
func NewServer(opts ServerOptions) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var cfg *Config
	var err error

	if opts.Config != nil {
		cfg = opts.Config
		logger.Info("Using provided Config object for server initialization")
	} else if opts.ConfigPath != "" {
		logger.Info("Loading configuration for server initialization", "path", opts.ConfigPath)
		cfg, err = config.LoadConfigWithPath(opts.ConfigPath)
		if err != nil {
			logger.Error("Failed to load configuration from path", "path", opts.ConfigPath, "error", err)
			return nil, errortypes.ConfigError(err, "Failed to load configuration from path: "+opts.ConfigPath)
		}
	} else {
		logger.Warn("No Config object or ConfigPath provided, using default configuration for server initialization")
		cfg = DefaultConfig()
	}

	store, clients, orch, err := CreateComponents(cfg, logger)
	if err != nil {
		// CreateComponents already logs the specific error
		logger.Error("Failed to create components during server initialization", "error", err)
		return nil, err
	}

	logger.Info("Initializing summary tool server component")
	mcpServer := server.NewSummaryToolServer(orch, cfg)
	err = mcpServer.Initialize()
	if err != nil {
		logger.Error("Failed to initialize MCP summary tool server component", "error", err)
		return nil, errortypes.ConfigError(err, "Failed to initialize MCP summary tool server component")
	}

	logger.Info("Summarion server successfully initialized")
	return &Server{
		config:     cfg,
		store:      store,
		clients:    clients,
		orch:       orch,
		toolServer: mcpServer,
		logger:     logger,
	}, nil
}

// DefaultConfig returns the default configuration for the Summarion service.
func DefaultConfig() *Config {
	return config.NewConfig()
}

// SaveConfig marshals the configuration and returns the JSON content.
func SaveConfig(config *Config, path string) ([]byte, error) {
	// Pretty-print the JSON for better readability
	content, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, errortypes.ConfigError(err, "failed to marshal configuration")
	}

	return content, nil
}

// Start starts the Summarion service.
func (s *Server) Start() error {
	s.logger.Info("Starting Summarion service")
	return s.toolServer.Start()
}

// Stop stops the Summarion service.
func (s *Server) Stop() error {
	s.logger.Info("Stopping Summarion service")
	err := s.toolServer.Stop()
	if err != nil {
		s.logger.Error("Error stopping tool server", "error", err)
		return err
	}

	// Close the store
	s.logger.Info("Closing store")
	err = s.store.Close()
	if err != nil {
		s.logger.Error("Failed to close store", "error", err)
		return err
	}

	s.logger.Info("Summarion service stopped")
	return nil
}

// Summarize runs the summarization pipeline for a namespace using the
// configured defaults and the given mode. An empty mode selects the
// configured default mode.
func (s *Server) Summarize(ctx context.Context, namespace string, messages []Message, modeName string) (*SummaryResult, error) {
	if modeName == "" {
		modeName = s.config.Summarizer.Mode
	}
	return s.orch.Summarize(ctx, messages, s.config.SummarizerDefaults(namespace), modeName)
}

// SummarizeWithConfig runs the pipeline with a fully caller-supplied
// configuration.
func (s *Server) SummarizeWithConfig(ctx context.Context, messages []Message, cfg SummarizerConfig, modeName string) (*SummaryResult, error) {
	return s.orch.Summarize(ctx, messages, cfg, modeName)
}

// Context returns the stored summary for the namespace at the given memory
// level, or memstore.ErrNotFound.
func (s *Server) Context(namespace string, level core.MemoryLevel) (*SummaryResult, error) {
	return s.orch.Context(namespace, level)
}

// AuditLog returns up to limit audit entries for the namespace in append
// order. limit <= 0 returns all entries.
func (s *Server) AuditLog(namespace string, limit int) ([]AuditEntry, error) {
	return s.orch.AuditLog(namespace, limit)
}

// GetStore returns the memory store instance used by the server.
func (s *Server) GetStore() memstore.Store {
	return s.store
}

// GetOrchestrator returns the summarization orchestrator used by the server.
func (s *Server) GetOrchestrator() *summarize.Orchestrator {
	return s.orch
}

// CreateComponents creates and initializes the components of the Summarion
// service without creating a server instance. This is useful for callers
// that need direct access to the store, client factory, and orchestrator.
func CreateComponents(cfg *Config, logger *slog.Logger) (memstore.Store, *llm.Factory, *summarize.Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
		logger.Debug("CreateComponents called with nil logger, defaulting to slog.Default()")
	}

	// Initialize the memory store
	var store memstore.Store
	if cfg.Store.SQLitePath == "" {
		logger.Info("Initializing in-memory store for CreateComponents")
		store = memstore.NewMemoryStore()
	} else {
		logger.Info("Initializing SQLite store for CreateComponents", "path", cfg.Store.SQLitePath)
		sqliteStore := memstore.NewSQLiteStore()
		if err := sqliteStore.Initialize(cfg.Store.SQLitePath); err != nil {
			logger.Error("Failed to initialize SQLite store in CreateComponents", "path", cfg.Store.SQLitePath, "error", err)
			return nil, nil, nil, errortypes.StorageError(err, "Failed to initialize SQLite store")
		}
		store = sqliteStore
	}

	// Initialize the LLM client factory
	providerConfigs := cfg.ProviderConfigs()
	logger.Info("Initializing LLM client factory for CreateComponents", "provider_count", len(providerConfigs))
	clients := llm.NewFactory(providerConfigs)

	// Initialize the orchestrator over the built-in modes
	orch := summarize.New(clients, store, mode.BuiltinRegistry(), summarize.Options{
		Logger: cfg.NewLogger(),
	})

	logger.Info("Components successfully initialized via CreateComponents")
	return store, clients, orch, nil
}
