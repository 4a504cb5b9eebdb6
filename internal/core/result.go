package core

import (
	"time"
)

// Priority levels for tasks. An empty priority means unspecified.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// ValidPriority reports whether p is a recognized task priority.
// The empty string is valid and means "unspecified".
func ValidPriority(p string) bool {
	switch p {
	case "", PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// AttributedPoint is a key point extracted from the conversation, with
// provenance back to the messages that contributed to it.
type AttributedPoint struct {
	Text         string   `json:"text"`
	SourceMsgIDs []string `json:"source_msg_ids,omitempty"`
}

// Decision is a decision the conversation arrived at. Decision and Rationale
// are required; Owner and Date are optional.
type Decision struct {
	Decision     string   `json:"decision"`
	Rationale    string   `json:"rationale"`
	Owner        string   `json:"owner,omitempty"`
	Date         string   `json:"date,omitempty"`
	SourceMsgIDs []string `json:"source_msg_ids,omitempty"`
}

// Task is an action item. Task is required; Owner, Due, and Priority are
// optional.
type Task struct {
	Task         string   `json:"task"`
	Owner        string   `json:"owner,omitempty"`
	Due          string   `json:"due,omitempty"`
	Priority     string   `json:"priority,omitempty"`
	SourceMsgIDs []string `json:"source_msg_ids,omitempty"`
}

// Event is a chronological entry in a timeline summary. Both fields are
// required.
type Event struct {
	Timestamp    string   `json:"timestamp"`
	Event        string   `json:"event"`
	SourceMsgIDs []string `json:"source_msg_ids,omitempty"`
}

// Well-known metadata keys stamped into SummaryResult.Metadata. The map is
// open; providers and callers may add their own keys alongside these.
const (
	MetaCostUSD          = "cost_usd"
	MetaTokenCount       = "token_count"
	MetaPromptTokens     = "prompt_tokens"
	MetaModel            = "model"
	MetaProvider         = "provider"
	MetaLatencyMS        = "latency_ms"
	MetaDroppedSourceIDs = "dropped_source_ids"
	MetaMissingRationale = "missing_rationale"
	MetaParseFallback    = "parse_fallback"
	MetaCacheHit         = "cache_hit"
)

// SummaryResult is the universal output envelope shared by all summarization
// modes. A mode populates only the fields relevant to it; everything else
// stays empty. A result is created once per summarization call by the mode's
// parse step and is immutable afterwards: updates are new instances.
type SummaryResult struct {
	// Mode identifies the strategy that produced this result.
	Mode string `json:"mode"`

	// ModeVersion records the parse-logic version of that strategy, so
	// historical stored results can be reinterpreted correctly.
	ModeVersion string `json:"mode_version,omitempty"`

	Title     string            `json:"title,omitempty"`
	Points    []AttributedPoint `json:"points,omitempty"`
	Decisions []Decision        `json:"decisions,omitempty"`
	Timeline  []Event           `json:"timeline,omitempty"`
	Tasks     []Task            `json:"tasks,omitempty"`

	// Summary is a freeform narrative. It also serves as the fallback
	// target when structured parsing degrades.
	Summary string `json:"summary,omitempty"`

	// Metadata is an open mapping for cost, token counts, model name,
	// latency, and provider-specific extras.
	Metadata map[string]any `json:"metadata,omitempty"`

	// CreatedAt is stamped by the orchestrator when the result is built.
	CreatedAt time.Time `json:"created_at"`
}

// SourceIDs collects every source_msg_ids entry across all structured fields
// of the result, in field order. Used by attribution checks.
func (r *SummaryResult) SourceIDs() []string {
	var ids []string
	for _, p := range r.Points {
		ids = append(ids, p.SourceMsgIDs...)
	}
	for _, d := range r.Decisions {
		ids = append(ids, d.SourceMsgIDs...)
	}
	for _, e := range r.Timeline {
		ids = append(ids, e.SourceMsgIDs...)
	}
	for _, t := range r.Tasks {
		ids = append(ids, t.SourceMsgIDs...)
	}
	return ids
}

// IsStructured reports whether any structured field is populated.
func (r *SummaryResult) IsStructured() bool {
	return len(r.Points) > 0 || len(r.Decisions) > 0 ||
		len(r.Timeline) > 0 || len(r.Tasks) > 0
}

// WithMeta returns a shallow copy of the result with the given metadata key
// set. The original result is left untouched.
func (r *SummaryResult) WithMeta(key string, value any) *SummaryResult {
	out := *r
	out.Metadata = make(map[string]any, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		out.Metadata[k] = v
	}
	out.Metadata[key] = value
	return &out
}
