// Package tools defines the MCP tool names and request/response schemas
// for the Summarion service.
package tools

import (
	"github.com/summarion/summarion/internal/core"
	"github.com/summarion/summarion/internal/memstore"
)

const (
	// ToolSummarizeConversation is the name of the summarize_conversation MCP tool
	ToolSummarizeConversation = "summarize_conversation"

	// ToolGetContext is the name of the get_context MCP tool
	ToolGetContext = "get_context"

	// ToolGetAuditLog is the name of the get_audit_log MCP tool
	ToolGetAuditLog = "get_audit_log"

	// DefaultAuditLimit is the default number of audit entries to return
	// when no limit is specified in a get_audit_log request
	DefaultAuditLimit = 20
)

// SummarizeConversationRequest defines the input schema for the
// summarize_conversation tool
type SummarizeConversationRequest struct {
	// Namespace selects the storage partition. Required.
	Namespace string `json:"namespace"`

	// Messages is the conversation to summarize.
	Messages []core.Message `json:"messages"`

	// Mode selects the summarization mode. Empty uses the configured
	// default mode.
	Mode string `json:"mode,omitempty"`

	// Provider overrides the configured default LLM provider.
	Provider string `json:"provider,omitempty"`

	// Model overrides the provider's configured model.
	Model string `json:"model,omitempty"`

	// MemoryLevel overrides the configured default memory level.
	MemoryLevel string `json:"memory_level,omitempty"`

	// MaxCostUSD overrides the configured cost budget for this call.
	MaxCostUSD float64 `json:"max_cost_usd,omitempty"`
}

// SummarizeConversationResponse defines the output schema for the
// summarize_conversation tool
type SummarizeConversationResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Result is the structured summary produced by the selected mode
	Result *core.SummaryResult `json:"result,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// GetContextRequest defines the input schema for the get_context tool
type GetContextRequest struct {
	// Namespace selects the storage partition. Required.
	Namespace string `json:"namespace"`

	// MemoryLevel selects the sub-partition ("rolling", "session", or
	// "canonical"). Empty uses the configured default level.
	MemoryLevel string `json:"memory_level,omitempty"`
}

// GetContextResponse defines the output schema for the get_context tool
type GetContextResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Result is the stored summary, absent when none exists
	Result *core.SummaryResult `json:"result,omitempty"`

	// Found reports whether a stored summary existed for the partition
	Found bool `json:"found"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// GetAuditLogRequest defines the input schema for the get_audit_log tool
type GetAuditLogRequest struct {
	// Namespace selects the storage partition. Required.
	Namespace string `json:"namespace"`

	// Limit is the maximum number of entries to return
	// If not specified, DefaultAuditLimit will be used
	Limit int `json:"limit,omitempty"`
}

// GetAuditLogResponse defines the output schema for the get_audit_log tool
type GetAuditLogResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Entries contains the audit records in append order
	Entries []memstore.AuditEntry `json:"entries"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}
