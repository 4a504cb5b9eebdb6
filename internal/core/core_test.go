package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{
			name: "valid message",
			msg:  Message{ID: "m1", Role: "user", Content: "hello"},
		},
		{
			name: "empty content is allowed",
			msg:  Message{ID: "m2", Role: "assistant"},
		},
		{
			name:    "missing id",
			msg:     Message{Role: "user", Content: "hello"},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.msg.Validate()
			if (err != nil) != test.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}

func TestValidateMessages(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
		wantErr  bool
	}{
		{
			name:     "empty slice is valid",
			messages: nil,
		},
		{
			name: "distinct ids",
			messages: []Message{
				{ID: "m1", Role: "user"},
				{ID: "m2", Role: "assistant"},
			},
		},
		{
			name: "duplicate ids rejected",
			messages: []Message{
				{ID: "m1", Role: "user"},
				{ID: "m1", Role: "assistant"},
			},
			wantErr: true,
		},
		{
			name: "invalid member rejected",
			messages: []Message{
				{ID: "m1", Role: "user"},
				{Role: "assistant"},
			},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := ValidateMessages(test.messages)
			if (err != nil) != test.wantErr {
				t.Errorf("ValidateMessages() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}

func TestValidPriority(t *testing.T) {
	for _, p := range []string{"", PriorityHigh, PriorityMedium, PriorityLow} {
		if !ValidPriority(p) {
			t.Errorf("ValidPriority(%q) = false, want true", p)
		}
	}
	if ValidPriority("urgent") {
		t.Error("ValidPriority(\"urgent\") = true, want false")
	}
}

func TestSummaryResultSourceIDs(t *testing.T) {
	result := &SummaryResult{
		Mode:      "pointwise",
		Points:    []AttributedPoint{{Text: "a", SourceMsgIDs: []string{"m1"}}},
		Decisions: []Decision{{Decision: "d", Rationale: "r", SourceMsgIDs: []string{"m2", "m3"}}},
		Timeline:  []Event{{Timestamp: "2025-01-01T00:00:00Z", Event: "e", SourceMsgIDs: []string{"m4"}}},
		Tasks:     []Task{{Task: "t", SourceMsgIDs: []string{"m5"}}},
	}

	ids := result.SourceIDs()
	want := []string{"m1", "m2", "m3", "m4", "m5"}
	if len(ids) != len(want) {
		t.Fatalf("SourceIDs() returned %d ids, want %d", len(ids), len(want))
	}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("SourceIDs()[%d] = %q, want %q", i, ids[i], id)
		}
	}
}

func TestSummaryResultWithMeta(t *testing.T) {
	original := &SummaryResult{
		Mode:     "narrative",
		Metadata: map[string]any{MetaModel: "gpt-4o-mini"},
	}

	updated := original.WithMeta(MetaCostUSD, 0.002)

	if _, ok := original.Metadata[MetaCostUSD]; ok {
		t.Error("WithMeta() mutated the original result")
	}
	if updated.Metadata[MetaCostUSD] != 0.002 {
		t.Errorf("WithMeta() did not set key, got %v", updated.Metadata[MetaCostUSD])
	}
	if updated.Metadata[MetaModel] != "gpt-4o-mini" {
		t.Error("WithMeta() dropped existing metadata")
	}
}

func TestSummaryResultRoundTrip(t *testing.T) {
	result := &SummaryResult{
		Mode:        "key_decisions",
		ModeVersion: "1",
		Decisions: []Decision{
			{Decision: "ship Friday", Rationale: "team agreement", Owner: "assistant", SourceMsgIDs: []string{"m1", "m2"}},
		},
		Metadata:  map[string]any{MetaTokenCount: float64(42)},
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded SummaryResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Mode != result.Mode || decoded.ModeVersion != result.ModeVersion {
		t.Errorf("round trip lost mode identity: %+v", decoded)
	}
	if len(decoded.Decisions) != 1 || decoded.Decisions[0].Decision != "ship Friday" {
		t.Errorf("round trip lost decision: %+v", decoded.Decisions)
	}
	if !decoded.CreatedAt.Equal(result.CreatedAt) {
		t.Errorf("round trip lost created_at: %v", decoded.CreatedAt)
	}
}

func TestNewSummarizerConfigDefaults(t *testing.T) {
	cfg := NewSummarizerConfig("tenant-a")

	if cfg.Namespace != "tenant-a" {
		t.Errorf("Namespace = %q, want tenant-a", cfg.Namespace)
	}
	if cfg.LLMProvider != DefaultLLMProvider {
		t.Errorf("LLMProvider = %q, want %q", cfg.LLMProvider, DefaultLLMProvider)
	}
	if cfg.MaxTokens != DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", cfg.MaxTokens, DefaultMaxTokens)
	}
	if cfg.MaxCostUSD != DefaultMaxCostUSD {
		t.Errorf("MaxCostUSD = %g, want %g", cfg.MaxCostUSD, DefaultMaxCostUSD)
	}
	if cfg.Temperature != DefaultTemperature {
		t.Errorf("Temperature = %g, want %g", cfg.Temperature, DefaultTemperature)
	}
	if !cfg.EnablePIIRedaction {
		t.Error("EnablePIIRedaction = false, want true")
	}
	if cfg.MemoryLevel != MemorySession {
		t.Errorf("MemoryLevel = %q, want %q", cfg.MemoryLevel, MemorySession)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on default config error = %v", err)
	}
}

func TestSummarizerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SummarizerConfig)
		wantErr bool
	}{
		{
			name:   "defaults pass",
			mutate: func(c *SummarizerConfig) {},
		},
		{
			name:    "empty namespace",
			mutate:  func(c *SummarizerConfig) { c.Namespace = "" },
			wantErr: true,
		},
		{
			name:    "unknown memory level",
			mutate:  func(c *SummarizerConfig) { c.MemoryLevel = "weekly" },
			wantErr: true,
		},
		{
			name:    "negative max tokens",
			mutate:  func(c *SummarizerConfig) { c.MaxTokens = -1 },
			wantErr: true,
		},
		{
			name:    "negative budget",
			mutate:  func(c *SummarizerConfig) { c.MaxCostUSD = -0.01 },
			wantErr: true,
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *SummarizerConfig) { c.Temperature = 3.5 },
			wantErr: true,
		},
		{
			name:   "rolling level is valid",
			mutate: func(c *SummarizerConfig) { c.MemoryLevel = MemoryRolling },
		},
		{
			name:   "canonical level is valid",
			mutate: func(c *SummarizerConfig) { c.MemoryLevel = MemoryCanonical },
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := NewSummarizerConfig("ns")
			test.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != test.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}
