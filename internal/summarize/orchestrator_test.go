package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/summarion/summarion/internal/core"
	"github.com/summarion/summarion/internal/errortypes"
	"github.com/summarion/summarion/internal/llm"
	"github.com/summarion/summarion/internal/memstore"
	"github.com/summarion/summarion/internal/mode"
	"github.com/summarion/summarion/internal/telemetry"
)

// stubSource resolves every provider name to the same client.
type stubSource struct {
	client llm.Client
}

func (s stubSource) Get(string) (llm.Client, error) {
	return s.client, nil
}

// auditFailStore delegates to an inner store but fails every audit append.
type auditFailStore struct {
	memstore.Store
}

func (s auditFailStore) AppendLog(string, string, map[string]any) error {
	return errors.New("audit log unavailable")
}

func newTestOrchestrator(t *testing.T, client llm.Client) (*Orchestrator, memstore.Store) {
	t.Helper()
	store := memstore.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	orch := New(stubSource{client: client}, store, mode.BuiltinRegistry(), Options{
		RetryDelay: time.Millisecond,
	})
	return orch, store
}

func testMessages() []core.Message {
	return []core.Message{
		{ID: "m1", Role: "user", Content: "Can we ship the rollout on Friday?"},
		{ID: "m2", Role: "assistant", Content: "Yes, ship Friday after the rollout doc review."},
	}
}

func TestSummarizeHappyPath(t *testing.T) {
	client := &llm.StubClient{
		Output: "Title: Rollout planning\n" +
			"- Agreed to ship on Friday (sources: m1, m2)\n" +
			"- Review the rollout doc first (sources: m2)\n",
	}
	orch, store := newTestOrchestrator(t, client)
	cfg := core.NewSummarizerConfig("team-a")

	result, err := orch.Summarize(context.Background(), testMessages(), cfg, mode.ModePointwise)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if result.Mode != mode.ModePointwise {
		t.Errorf("Expected mode %q, got %q", mode.ModePointwise, result.Mode)
	}
	if result.Title != "Rollout planning" {
		t.Errorf("Expected title from output, got %q", result.Title)
	}
	if len(result.Points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(result.Points))
	}
	if len(result.Points[0].SourceMsgIDs) != 2 {
		t.Errorf("Expected first point attributed to both messages, got %v", result.Points[0].SourceMsgIDs)
	}

	// Metadata stamped by the pipeline.
	if result.Metadata[core.MetaProvider] != "stub" {
		t.Errorf("Expected provider metadata, got %v", result.Metadata[core.MetaProvider])
	}
	if tokens, ok := result.Metadata[core.MetaPromptTokens].(int); !ok || tokens <= 0 {
		t.Errorf("Expected positive prompt token count, got %v", result.Metadata[core.MetaPromptTokens])
	}
	if _, ok := result.Metadata[core.MetaCostUSD]; !ok {
		t.Error("Expected cost metadata")
	}
	if _, ok := result.Metadata[core.MetaLatencyMS]; !ok {
		t.Error("Expected latency metadata")
	}

	// Persisted at the configured level, with one audit entry.
	stored, err := store.LoadContext("team-a", cfg.MemoryLevel)
	if err != nil {
		t.Fatalf("LoadContext after summarize failed: %v", err)
	}
	if stored.Title != result.Title {
		t.Errorf("Stored result title %q does not match returned %q", stored.Title, result.Title)
	}

	entries, err := store.ReadLog("team-a", 0)
	if err != nil {
		t.Fatalf("ReadLog failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].Operation != "summarize" {
		t.Errorf("Expected summarize audit operation, got %q", entries[0].Operation)
	}
	if entries[0].Metadata["mode"] != mode.ModePointwise {
		t.Errorf("Expected mode in audit metadata, got %v", entries[0].Metadata["mode"])
	}
}

func TestSummarizeStampsResolvedModel(t *testing.T) {
	// When the config leaves the model unset, the metadata and audit entry
	// must carry the model the client actually resolves to, not "".
	client := &llm.StubClient{
		Output:       "- Ship Friday (sources: m1)",
		DefaultModel: "gpt-4o-mini",
	}
	orch, store := newTestOrchestrator(t, client)
	cfg := core.NewSummarizerConfig("team-a")
	cfg.Model = ""

	result, err := orch.Summarize(context.Background(), testMessages(), cfg, mode.ModePointwise)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got := result.Metadata[core.MetaModel]; got != "gpt-4o-mini" {
		t.Errorf("Expected resolved model in metadata, got %v", got)
	}

	entries, err := store.ReadLog("team-a", 0)
	if err != nil {
		t.Fatalf("ReadLog failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Metadata["model"] != "gpt-4o-mini" {
		t.Errorf("Expected resolved model in audit metadata, got %+v", entries)
	}

	// An explicit model wins over the client default.
	cfg.Model = "gpt-4o"
	result, err = orch.Summarize(context.Background(), testMessages(), cfg, mode.ModePointwise)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got := result.Metadata[core.MetaModel]; got != "gpt-4o" {
		t.Errorf("Expected requested model in metadata, got %v", got)
	}
}

func TestSummarizeRetriesRateLimit(t *testing.T) {
	client := &llm.StubClient{
		Output:    "- Ship Friday (sources: m1)",
		Err:       llm.ErrRateLimited,
		FailFirst: 1,
	}
	orch, _ := newTestOrchestrator(t, client)

	_, err := orch.Summarize(context.Background(), testMessages(), core.NewSummarizerConfig("ns"), mode.ModePointwise)
	if err != nil {
		t.Fatalf("Expected retry to recover, got %v", err)
	}
	if client.Calls() != 2 {
		t.Errorf("Expected 2 calls (1 failure + 1 retry), got %d", client.Calls())
	}

	metrics := orch.Metrics()
	if got := metrics.Counter(telemetry.MetricRetryAttempts); got != 1 {
		t.Errorf("Expected 1 retry attempt recorded, got %d", got)
	}
	if got := metrics.Counter(telemetry.MetricRetrySuccess); got != 1 {
		t.Errorf("Expected 1 retry success recorded, got %d", got)
	}
}

func TestSummarizeNonRetryableFailure(t *testing.T) {
	client := &llm.StubClient{
		Err: &llm.ProviderError{Provider: "stub", StatusCode: 500, Message: "server error"},
	}
	orch, store := newTestOrchestrator(t, client)
	cfg := core.NewSummarizerConfig("ns")

	_, err := orch.Summarize(context.Background(), testMessages(), cfg, mode.ModePointwise)
	if err == nil {
		t.Fatal("Expected error from failing provider")
	}
	if !errortypes.IsProviderError(err) {
		t.Errorf("Expected a provider error, got %v", err)
	}
	if client.Calls() != 1 {
		t.Errorf("Expected no retries on a non-retryable error, got %d calls", client.Calls())
	}

	// Nothing persisted on failure.
	if _, err := store.LoadContext("ns", cfg.MemoryLevel); !errors.Is(err, memstore.ErrNotFound) {
		t.Errorf("Expected no stored result, got %v", err)
	}
	entries, err := store.ReadLog("ns", 0)
	if err != nil {
		t.Fatalf("ReadLog failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no audit entries, got %d", len(entries))
	}
}

func TestSummarizeBudgetRejected(t *testing.T) {
	client := &llm.StubClient{Output: "- point (sources: m1)"}
	orch, _ := newTestOrchestrator(t, client)

	cfg := core.NewSummarizerConfig("ns")
	cfg.MaxCostUSD = 0.0000000001

	_, err := orch.Summarize(context.Background(), testMessages(), cfg, mode.ModePointwise)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("Expected ErrBudgetExceeded, got %v", err)
	}
	if client.Calls() != 0 {
		t.Errorf("Expected no provider calls after budget rejection, got %d", client.Calls())
	}
	if got := orch.Metrics().Counter(telemetry.MetricBudgetRejected); got != 1 {
		t.Errorf("Expected budget rejection recorded, got %d", got)
	}
}

func TestSummarizeParseFallbackPersisted(t *testing.T) {
	raw := "The model ignored the requested format entirely."
	client := &llm.StubClient{Output: raw}
	orch, store := newTestOrchestrator(t, client)
	cfg := core.NewSummarizerConfig("ns")

	result, err := orch.Summarize(context.Background(), testMessages(), cfg, mode.ModePointwise)
	if err != nil {
		t.Fatalf("Malformed output must degrade, not fail: %v", err)
	}
	if result.Summary != raw {
		t.Errorf("Expected raw output preserved in Summary, got %q", result.Summary)
	}
	if _, ok := result.Metadata[core.MetaParseFallback]; !ok {
		t.Error("Expected parse fallback marker in metadata")
	}
	if got := orch.Metrics().Counter(telemetry.MetricParseFallback); got != 1 {
		t.Errorf("Expected fallback recorded, got %d", got)
	}

	// A degraded result is still a result; it gets persisted.
	if _, err := store.LoadContext("ns", cfg.MemoryLevel); err != nil {
		t.Errorf("Expected fallback result persisted, got %v", err)
	}
}

func TestSummarizeEmptyOutput(t *testing.T) {
	client := &llm.StubClient{Output: "   \n"}
	orch, store := newTestOrchestrator(t, client)
	cfg := core.NewSummarizerConfig("ns")

	_, err := orch.Summarize(context.Background(), testMessages(), cfg, mode.ModePointwise)
	if err == nil {
		t.Fatal("Expected error for empty llm output")
	}
	if !errortypes.IsParseError(err) {
		t.Errorf("Expected a parse error, got %v", err)
	}
	if !errors.Is(err, mode.ErrEmptyOutput) {
		t.Errorf("Expected ErrEmptyOutput in chain, got %v", err)
	}
	if _, err := store.LoadContext("ns", cfg.MemoryLevel); !errors.Is(err, memstore.ErrNotFound) {
		t.Errorf("Expected nothing persisted, got %v", err)
	}
}

func TestSummarizeFoldsPriorContext(t *testing.T) {
	client := &llm.StubClient{
		Output: "- First round conclusion (sources: m1)",
	}
	orch, _ := newTestOrchestrator(t, client)
	cfg := core.NewSummarizerConfig("ns")

	if _, err := orch.Summarize(context.Background(), testMessages(), cfg, mode.ModePointwise); err != nil {
		t.Fatalf("First summarize failed: %v", err)
	}
	if strings.Contains(client.LastPrompt(), "Prior summary") {
		t.Error("First call must not see prior context")
	}

	followUp := []core.Message{
		{ID: "m3", Role: "user", Content: "Any update on the rollout?"},
	}
	if _, err := orch.Summarize(context.Background(), followUp, cfg, mode.ModePointwise); err != nil {
		t.Fatalf("Second summarize failed: %v", err)
	}
	if !strings.Contains(client.LastPrompt(), "Prior summary of this conversation so far") {
		t.Error("Second call should fold the stored summary into the prompt")
	}
	if got := orch.Metrics().Counter(telemetry.MetricMemoryHits); got != 1 {
		t.Errorf("Expected 1 memory hit, got %d", got)
	}
}

func TestSummarizeRollingSkipsPriorContext(t *testing.T) {
	client := &llm.StubClient{Output: "- point (sources: m1)"}
	orch, _ := newTestOrchestrator(t, client)

	cfg := core.NewSummarizerConfig("ns")
	cfg.MemoryLevel = core.MemoryRolling

	for i := 0; i < 2; i++ {
		if _, err := orch.Summarize(context.Background(), testMessages(), cfg, mode.ModePointwise); err != nil {
			t.Fatalf("Summarize %d failed: %v", i, err)
		}
	}
	if strings.Contains(client.LastPrompt(), "Prior summary") {
		t.Error("Rolling memory must not fold prior context into prompts")
	}
}

func TestSummarizeCachesRepeatedInput(t *testing.T) {
	client := &llm.StubClient{Output: "- cached point (sources: m1)"}
	orch, _ := newTestOrchestrator(t, client)

	cfg := core.NewSummarizerConfig("ns")
	cfg.MemoryLevel = core.MemoryRolling

	if _, err := orch.Summarize(context.Background(), testMessages(), cfg, mode.ModePointwise); err != nil {
		t.Fatalf("First summarize failed: %v", err)
	}
	result, err := orch.Summarize(context.Background(), testMessages(), cfg, mode.ModePointwise)
	if err != nil {
		t.Fatalf("Second summarize failed: %v", err)
	}

	if client.Calls() != 1 {
		t.Errorf("Expected cached output to skip the provider, got %d calls", client.Calls())
	}
	if hit, _ := result.Metadata[core.MetaCacheHit].(bool); !hit {
		t.Error("Expected cache hit marker in metadata")
	}
	if got := orch.Metrics().Counter(telemetry.MetricCacheHits); got != 1 {
		t.Errorf("Expected 1 cache hit, got %d", got)
	}
}

func TestSummarizeAuditFailureIsNotFatal(t *testing.T) {
	client := &llm.StubClient{Output: "- point (sources: m1)"}
	inner := memstore.NewMemoryStore()
	defer inner.Close()

	orch := New(stubSource{client: client}, auditFailStore{Store: inner}, mode.BuiltinRegistry(), Options{
		RetryDelay: time.Millisecond,
	})
	cfg := core.NewSummarizerConfig("ns")

	result, err := orch.Summarize(context.Background(), testMessages(), cfg, mode.ModePointwise)
	if err != nil {
		t.Fatalf("Audit failure must not fail the run: %v", err)
	}
	if result == nil {
		t.Fatal("Expected a result despite audit failure")
	}

	// The summary itself still landed.
	if _, err := inner.LoadContext("ns", cfg.MemoryLevel); err != nil {
		t.Errorf("Expected result persisted, got %v", err)
	}
	if got := orch.Metrics().Counter(telemetry.MetricAuditFailure); got != 1 {
		t.Errorf("Expected audit failure recorded, got %d", got)
	}
}

func TestSummarizeValidation(t *testing.T) {
	client := &llm.StubClient{Output: "- point (sources: m1)"}
	orch, _ := newTestOrchestrator(t, client)

	tests := []struct {
		name     string
		messages []core.Message
		cfg      core.SummarizerConfig
		mode     string
	}{
		{
			name:     "empty namespace",
			messages: testMessages(),
			cfg:      core.SummarizerConfig{MemoryLevel: core.MemorySession},
			mode:     mode.ModePointwise,
		},
		{
			name: "duplicate message ids",
			messages: []core.Message{
				{ID: "m1", Role: "user", Content: "a"},
				{ID: "m1", Role: "user", Content: "b"},
			},
			cfg:  core.NewSummarizerConfig("ns"),
			mode: mode.ModePointwise,
		},
		{
			name:     "unknown mode",
			messages: testMessages(),
			cfg:      core.NewSummarizerConfig("ns"),
			mode:     "haiku",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orch.Summarize(context.Background(), tt.messages, tt.cfg, tt.mode)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errortypes.IsValidationError(err) {
				t.Errorf("Expected a validation error, got %v", err)
			}
		})
	}

	if client.Calls() != 0 {
		t.Errorf("Validation failures must not reach the provider, got %d calls", client.Calls())
	}
}

func TestSummarizeCancelledContext(t *testing.T) {
	client := &llm.StubClient{Output: "- point (sources: m1)"}
	orch, _ := newTestOrchestrator(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.Summarize(ctx, testMessages(), core.NewSummarizerConfig("ns"), mode.ModePointwise)
	if err == nil {
		t.Fatal("Expected error for cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
}
