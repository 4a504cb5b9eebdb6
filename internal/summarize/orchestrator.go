// Package summarize composes the mode strategies, LLM clients, and the
// memory store into the summarization pipeline.
package summarize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/summarion/summarion/internal/core"
	"github.com/summarion/summarion/internal/errortypes"
	"github.com/summarion/summarion/internal/llm"
	"github.com/summarion/summarion/internal/logger"
	"github.com/summarion/summarion/internal/memstore"
	"github.com/summarion/summarion/internal/mode"
	"github.com/summarion/summarion/internal/redact"
	"github.com/summarion/summarion/internal/telemetry"
	"github.com/summarion/summarion/internal/tokens"
)

const (
	// Default settings
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = 2 * time.Second
	DefaultCacheCapacity = 1000
	DefaultCacheTTL      = 24 * time.Hour
)

// ErrBudgetExceeded indicates the estimated prompt cost is already over the
// configured budget, before any provider call is made.
var ErrBudgetExceeded = errors.New("summarize: estimated cost exceeds max_cost_usd")

// ClientSource resolves a provider name to a usable client. *llm.Factory
// satisfies it.
type ClientSource interface {
	Get(name string) (llm.Client, error)
}

// Options holds the optional collaborators and tuning knobs for an
// Orchestrator. Zero values select the defaults.
type Options struct {
	Redactor   redact.Redactor
	Estimator  *tokens.Estimator
	Metrics    *telemetry.Collector
	Logger     *logger.Logger
	MaxRetries int
	RetryDelay time.Duration

	CacheCapacity int
	CacheTTL      time.Duration
}

// Orchestrator runs the full summarization pipeline. It is safe for
// concurrent use: every collaborator it holds is itself concurrency safe and
// per-call state stays on the stack.
type Orchestrator struct {
	clients    ClientSource
	store      memstore.Store
	modes      *mode.Registry
	redactor   redact.Redactor
	estimator  *tokens.Estimator
	metrics    *telemetry.Collector
	log        *logger.Logger
	maxRetries int
	retryDelay time.Duration
	cache      *outputCache
}

// outputCache caches raw LLM output keyed by a hash of the prompt and the
// model coordinates. Parsing is cheap and deterministic, so only the
// provider round trip is cached.
type outputCache struct {
	items    map[string]cachedOutput
	capacity int
	ttl      time.Duration
	mu       sync.RWMutex
}

type cachedOutput struct {
	output   string
	expireAt time.Time
}

// New creates an Orchestrator over the given client source, store, and mode
// registry.
func New(clients ClientSource, store memstore.Store, modes *mode.Registry, opts Options) *Orchestrator {
	if opts.Redactor == nil {
		opts.Redactor = redact.NewRegexRedactor()
	}
	if opts.Estimator == nil {
		opts.Estimator = tokens.NewEstimator()
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NewCollector()
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger("summarize")
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.CacheCapacity <= 0 {
		opts.CacheCapacity = DefaultCacheCapacity
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	return &Orchestrator{
		clients:    clients,
		store:      store,
		modes:      modes,
		redactor:   opts.Redactor,
		estimator:  opts.Estimator,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		cache: &outputCache{
			items:    make(map[string]cachedOutput),
			capacity: opts.CacheCapacity,
			ttl:      opts.CacheTTL,
		},
	}
}

// Metrics returns the collector the orchestrator records into.
func (o *Orchestrator) Metrics() *telemetry.Collector {
	return o.metrics
}

// Summarize runs the pipeline for one conversation: validate, redact, load
// prior context, prompt, complete with retries, parse, persist, audit.
// Nothing is persisted unless the result is fully assembled; the audit append
// after a successful save is best effort.
func (o *Orchestrator) Summarize(ctx context.Context, messages []core.Message, cfg core.SummarizerConfig, modeName string) (*core.SummaryResult, error) {
	startTime := time.Now()
	defer func() {
		o.metrics.Observe(telemetry.MetricSummarizeTime, time.Since(startTime))
	}()

	if err := cfg.Validate(); err != nil {
		return nil, errortypes.ValidationError(err, "invalid summarizer config").
			WithField("namespace", cfg.Namespace)
	}
	if err := core.ValidateMessages(messages); err != nil {
		return nil, errortypes.ValidationError(err, "invalid conversation").
			WithField("namespace", cfg.Namespace)
	}

	strategy, err := o.modes.Get(modeName)
	if err != nil {
		return nil, errortypes.ValidationError(err, "unknown summarization mode").
			WithField("mode", modeName)
	}

	client, err := o.clients.Get(cfg.LLMProvider)
	if err != nil {
		return nil, errortypes.ConfigError(err, "no client for provider").
			WithField("provider", cfg.LLMProvider)
	}

	if cfg.EnablePIIRedaction {
		messages = o.redactor.Redact(messages)
	}

	prompt := o.buildPrompt(strategy, messages, cfg)

	promptTokens := o.estimator.Count(prompt)
	estimatedCost := tokens.EstimateCostUSD(cfg.LLMProvider, promptTokens)
	if cfg.MaxCostUSD > 0 && estimatedCost > cfg.MaxCostUSD {
		o.metrics.Add(telemetry.MetricBudgetRejected, 1)
		return nil, errortypes.ValidationError(ErrBudgetExceeded, "summarization rejected").
			WithFields(map[string]interface{}{
				"estimated_cost_usd": estimatedCost,
				"max_cost_usd":       cfg.MaxCostUSD,
				"prompt_tokens":      promptTokens,
			})
	}

	opts := llm.DefaultCompleteOptions()
	opts.Model = cfg.Model
	opts.Temperature = cfg.Temperature
	if cfg.MaxTokens > 0 {
		opts.MaxTokens = cfg.MaxTokens
	}

	// Record the model the client will actually use, not the requested one,
	// which is empty when the config leaves model selection to the client.
	model := opts.Model
	if resolver, ok := client.(llm.ModelResolver); ok {
		model = resolver.ResolvedModel(opts.Model)
	}

	cacheKey := outputCacheKey(client.Name(), model, strategy.ModeName(), strategy.ModeVersion(), prompt)
	output, cacheHit := o.cache.get(cacheKey)
	if cacheHit {
		o.metrics.Add(telemetry.MetricCacheHits, 1)
	} else {
		o.metrics.Add(telemetry.MetricCacheMisses, 1)
		output, err = o.completeWithRetries(ctx, client, prompt, opts)
		if err != nil {
			return nil, errortypes.ProviderError(err, "summarization failed").
				WithField("provider", client.Name())
		}
	}

	result, err := strategy.Parse(output, messages)
	if err != nil {
		return nil, errortypes.ParseError(err, "unusable llm output").
			WithField("mode", strategy.ModeName())
	}
	if !cacheHit {
		o.cache.put(cacheKey, output)
	}
	if _, fallback := result.Metadata[core.MetaParseFallback]; fallback {
		o.metrics.Add(telemetry.MetricParseFallback, 1)
	} else {
		o.metrics.Add(telemetry.MetricParseStructured, 1)
	}

	totalTokens := promptTokens + o.estimator.Count(output)
	costUSD := tokens.EstimateCostUSD(cfg.LLMProvider, totalTokens)

	result = result.WithMeta(core.MetaProvider, client.Name())
	if model != "" {
		result = result.WithMeta(core.MetaModel, model)
	}
	result = result.
		WithMeta(core.MetaPromptTokens, promptTokens).
		WithMeta(core.MetaTokenCount, totalTokens).
		WithMeta(core.MetaCostUSD, costUSD).
		WithMeta(core.MetaLatencyMS, time.Since(startTime).Milliseconds())
	if cacheHit {
		result = result.WithMeta(core.MetaCacheHit, true)
	}

	if cfg.MaxCostUSD > 0 && costUSD > cfg.MaxCostUSD {
		// Already spent; record it rather than discarding the result.
		o.metrics.Add(telemetry.MetricBudgetExceeded, 1)
		o.log.Warn("summarization exceeded cost budget: cost=%.4f budget=%.4f namespace=%s",
			costUSD, cfg.MaxCostUSD, cfg.Namespace)
	}

	if err := o.store.SaveResult(cfg.Namespace, result, cfg.MemoryLevel); err != nil {
		o.metrics.Add(telemetry.MetricSaveFailure, 1)
		return nil, errortypes.StorageError(err, "failed to persist summary").
			WithField("namespace", cfg.Namespace).
			WithField("memory_level", string(cfg.MemoryLevel))
	}

	if err := o.store.AppendLog(cfg.Namespace, "summarize", map[string]any{
		"mode":          strategy.ModeName(),
		"mode_version":  strategy.ModeVersion(),
		"provider":      client.Name(),
		"model":         model,
		"memory_level":  string(cfg.MemoryLevel),
		"message_count": len(messages),
		"cost_usd":      costUSD,
	}); err != nil {
		// The summary is saved; a lost audit entry is logged, not fatal.
		o.metrics.Add(telemetry.MetricAuditFailure, 1)
		errortypes.LogError(nil, errortypes.StorageError(err, "failed to append audit entry").
			WithField("namespace", cfg.Namespace))
	}

	return result, nil
}

// Context returns the stored summary for the namespace and level, or
// memstore.ErrNotFound.
func (o *Orchestrator) Context(namespace string, level core.MemoryLevel) (*core.SummaryResult, error) {
	return o.store.LoadContext(namespace, level)
}

// AuditLog returns up to limit audit entries for the namespace in append
// order.
func (o *Orchestrator) AuditLog(namespace string, limit int) ([]memstore.AuditEntry, error) {
	return o.store.ReadLog(namespace, limit)
}

// buildPrompt folds stored prior context into the prompt when the mode
// supports it. Rolling memory holds short-lived partial summaries, so only
// session and canonical levels feed back into prompts.
func (o *Orchestrator) buildPrompt(strategy mode.ModeStrategy, messages []core.Message, cfg core.SummarizerConfig) string {
	ca, ok := strategy.(mode.ContextAware)
	if !ok || cfg.MemoryLevel == core.MemoryRolling {
		return strategy.Prompt(messages)
	}

	prior, err := o.store.LoadContext(cfg.Namespace, cfg.MemoryLevel)
	if err != nil {
		if !errors.Is(err, memstore.ErrNotFound) {
			o.log.Warn("failed to load prior context: namespace=%s level=%s err=%v",
				cfg.Namespace, cfg.MemoryLevel, err)
		}
		o.metrics.Add(telemetry.MetricMemoryMisses, 1)
		return strategy.Prompt(messages)
	}

	o.metrics.Add(telemetry.MetricMemoryHits, 1)
	return ca.PromptWithContext(prior, messages)
}

// completeWithRetries calls the client, retrying transient failures with
// linear backoff. Non-retryable errors fail immediately.
func (o *Orchestrator) completeWithRetries(ctx context.Context, client llm.Client, prompt string, opts llm.CompleteOptions) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if attempt > 0 {
			o.metrics.Add(telemetry.MetricRetryAttempts, 1)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(o.retryDelay * time.Duration(attempt)):
			}
		}

		o.metrics.Add(telemetry.MetricCompleteCalls, 1)
		callStart := time.Now()
		output, err := client.Complete(ctx, prompt, opts)
		o.metrics.Observe(telemetry.MetricCompleteTime, time.Since(callStart))

		if err == nil {
			o.metrics.Add(telemetry.MetricCompleteSuccess, 1)
			if attempt > 0 {
				o.metrics.Add(telemetry.MetricRetrySuccess, 1)
			}
			return output, nil
		}

		o.metrics.Add(telemetry.MetricCompleteFailure, 1)
		lastErr = err
		if !llm.Retryable(err) {
			break
		}
		o.log.Warn("provider call failed, will retry: provider=%s attempt=%d err=%v",
			client.Name(), attempt, err)
	}

	return "", lastErr
}

func outputCacheKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}

func (c *outputCache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if item, exists := c.items[key]; exists {
		if time.Now().Before(item.expireAt) {
			return item.output, true
		}
	}
	return "", false
}

func (c *outputCache) put(key, output string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.capacity {
		for k := range c.items {
			delete(c.items, k)
			break
		}
	}
	c.items[key] = cachedOutput{
		output:   output,
		expireAt: time.Now().Add(c.ttl),
	}
}
