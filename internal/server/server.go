// Package server provides the MCP server implementation for the Summarion
// service.
package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/localrivet/gomcp/server"

	"github.com/summarion/summarion/internal/config"
	"github.com/summarion/summarion/internal/core"
	"github.com/summarion/summarion/internal/errortypes"
	"github.com/summarion/summarion/internal/memstore"
	"github.com/summarion/summarion/internal/summarize"
	"github.com/summarion/summarion/internal/tools"
)

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
	ErrMissingDependencies  = errors.New("one or more required dependencies are nil")
)

// MCPSummaryToolServer implements the SummaryToolServer interface for
// handling MCP tool calls related to conversation summarization and stored
// context.
type MCPSummaryToolServer struct {
	orch      *summarize.Orchestrator
	cfg       *config.Config
	mcpServer server.Server
}

// NewSummaryToolServer creates a new MCPSummaryToolServer instance.
func NewSummaryToolServer(orch *summarize.Orchestrator, cfg *config.Config) *MCPSummaryToolServer {
	return &MCPSummaryToolServer{
		orch: orch,
		cfg:  cfg,
	}
}

// Initialize initializes the server with dependencies and configurations.
func (s *MCPSummaryToolServer) Initialize() error {
	slog.Info("Initializing MCP Summary Tool Server")

	if s.orch == nil || s.cfg == nil {
		return errortypes.ConfigError(ErrMissingDependencies, "server initialization failed")
	}

	// Create the MCP server
	srv := server.NewServer("summarion")

	// Register summarize_conversation tool
	srv = srv.Tool(tools.ToolSummarizeConversation, "Summarize a conversation and store the result",
		s.handleSummarizeConversation)

	// Register get_context tool
	srv = srv.Tool(tools.ToolGetContext, "Retrieve the stored summary for a namespace",
		s.handleGetContext)

	// Register get_audit_log tool
	srv = srv.Tool(tools.ToolGetAuditLog, "Read the audit log for a namespace",
		s.handleGetAuditLog)

	s.mcpServer = srv
	slog.Info("MCP Summary Tool Server initialized successfully", "tool_count", 3)
	return nil
}

// Start starts the MCP server on the specified transport.
func (s *MCPSummaryToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}

	slog.Info("Starting MCP Summary Tool Server")

	// Start the server using stdio transport
	stdioServer := s.mcpServer.AsStdio()
	return stdioServer.Run()
}

// Stop gracefully shuts down the MCP server.
func (s *MCPSummaryToolServer) Stop() error {
	slog.Info("Stopping MCP Summary Tool Server")
	// The server will exit when stdin is closed
	return nil
}

// requestConfig builds the per-call configuration from the configured
// defaults plus the request's overrides.
func (s *MCPSummaryToolServer) requestConfig(req tools.SummarizeConversationRequest) core.SummarizerConfig {
	cfg := s.cfg.SummarizerDefaults(req.Namespace)
	if req.Provider != "" {
		cfg.LLMProvider = req.Provider
	}
	if req.Model != "" {
		cfg.Model = req.Model
	}
	if req.MemoryLevel != "" {
		cfg.MemoryLevel = core.MemoryLevel(req.MemoryLevel)
	}
	if req.MaxCostUSD > 0 {
		cfg.MaxCostUSD = req.MaxCostUSD
	}
	return cfg
}

// handleSummarizeConversation handles the summarize_conversation MCP tool call.
func (s *MCPSummaryToolServer) handleSummarizeConversation(ctx *server.Context, req tools.SummarizeConversationRequest) (tools.SummarizeConversationResponse, error) {
	slog.Info("Processing summarize_conversation request",
		"namespace", req.Namespace, "mode", req.Mode, "message_count", len(req.Messages))

	response := tools.SummarizeConversationResponse{
		Status: "success",
	}

	modeName := req.Mode
	if modeName == "" {
		modeName = s.cfg.Summarizer.Mode
	}

	result, err := s.orch.Summarize(context.Background(), req.Messages, s.requestConfig(req), modeName)
	if err != nil {
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = toolError(err)
		return response, nil
	}

	response.Result = result
	slog.Info("Successfully summarized conversation",
		"namespace", req.Namespace, "mode", result.Mode)

	return response, nil
}

// handleGetContext handles the get_context MCP tool call.
func (s *MCPSummaryToolServer) handleGetContext(ctx *server.Context, req tools.GetContextRequest) (tools.GetContextResponse, error) {
	slog.Info("Processing get_context request",
		"namespace", req.Namespace, "memory_level", req.MemoryLevel)

	response := tools.GetContextResponse{
		Status: "success",
	}

	level := core.MemoryLevel(req.MemoryLevel)
	if req.MemoryLevel == "" {
		level = core.MemoryLevel(s.cfg.Summarizer.MemoryLevel)
	}

	result, err := s.orch.Context(req.Namespace, level)
	if err != nil {
		// Absence is a normal outcome, not a tool error.
		if errors.Is(err, memstore.ErrNotFound) {
			slog.Info("No stored context found", "namespace", req.Namespace, "memory_level", level)
			return response, nil
		}

		err = errortypes.StorageError(err, "failed to load context").
			WithField("namespace", req.Namespace)
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = toolError(err)
		return response, nil
	}

	response.Result = result
	response.Found = true
	slog.Info("Successfully retrieved context", "namespace", req.Namespace)

	return response, nil
}

// handleGetAuditLog handles the get_audit_log MCP tool call.
func (s *MCPSummaryToolServer) handleGetAuditLog(ctx *server.Context, req tools.GetAuditLogRequest) (tools.GetAuditLogResponse, error) {
	slog.Info("Processing get_audit_log request", "namespace", req.Namespace, "limit", req.Limit)

	response := tools.GetAuditLogResponse{
		Status: "success",
	}

	// Set default limit if not specified
	limit := req.Limit
	if limit <= 0 {
		limit = tools.DefaultAuditLimit
		slog.Debug("Using default limit for get_audit_log", "limit", limit)
	}

	entries, err := s.orch.AuditLog(req.Namespace, limit)
	if err != nil {
		err = errortypes.StorageError(err, "failed to read audit log").
			WithField("namespace", req.Namespace)
		errortypes.LogError(nil, err)

		response.Status = "error"
		response.Error = toolError(err)
		return response, nil
	}

	response.Entries = entries
	slog.Info("Successfully read audit log", "namespace", req.Namespace, "count", len(entries))

	return response, nil
}
