// Package telemetry provides metrics collection for monitoring the
// summarization pipeline.
package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metric names used across the pipeline.
const (
	// Completion calls by outcome.
	MetricCompleteCalls   = "llm.complete.calls"
	MetricCompleteSuccess = "llm.complete.success"
	MetricCompleteFailure = "llm.complete.failure"

	// Orchestrator retry handling.
	MetricRetryAttempts = "summarize.retry_attempts"
	MetricRetrySuccess  = "summarize.retry_success"

	// Parsing outcomes.
	MetricParseStructured = "summarize.parse.structured"
	MetricParseFallback   = "summarize.parse.fallback"

	// Hierarchical memory.
	MetricMemoryHits   = "memory.context.hits"
	MetricMemoryMisses = "memory.context.misses"

	// Result cache.
	MetricCacheHits   = "summarize.cache.hits"
	MetricCacheMisses = "summarize.cache.misses"

	// Persistence.
	MetricSaveFailure  = "store.save.failure"
	MetricAuditFailure = "store.audit.failure"

	// Cost guard.
	MetricBudgetRejected = "summarize.budget.rejected"
	MetricBudgetExceeded = "summarize.budget.exceeded"

	// Timers.
	MetricCompleteTime  = "llm.complete.time"
	MetricSummarizeTime = "summarize.total_time"
)

// maxTimerSamples bounds per-timer memory.
const maxTimerSamples = 100

// Collector is a thread-safe store of counters, gauges, and timers.
type Collector struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
	timers   map[string][]time.Duration
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timers:   make(map[string][]time.Duration),
	}
}

// Add increments a named counter.
func (c *Collector) Add(name string, amount int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += amount
}

// SetGauge sets a named gauge.
func (c *Collector) SetGauge(name string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[name] = value
}

// Observe records a duration for a named timer, keeping the most recent
// samples only.
func (c *Collector) Observe(name string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	samples := append(c.timers[name], d)
	if len(samples) > maxTimerSamples {
		samples = samples[len(samples)-maxTimerSamples:]
	}
	c.timers[name] = samples
}

// Counter returns the current value of a counter.
func (c *Collector) Counter(name string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[name]
}

// Gauge returns the current value of a gauge.
func (c *Collector) Gauge(name string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gauges[name]
}

// TimerAverage returns the mean recorded duration for a timer.
func (c *Collector) TimerAverage(name string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	samples := c.timers[name]
	if len(samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return total / time.Duration(len(samples))
}

// TimerP95 returns the 95th percentile recorded duration for a timer.
func (c *Collector) TimerP95(name string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	samples := c.timers[name]
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)) * 0.95)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Report renders all collected metrics as text.
func (c *Collector) Report() string {
	c.mu.RLock()
	counterNames := sortedKeys(c.counters)
	gaugeNames := sortedKeys(c.gauges)
	timerNames := sortedKeys(c.timers)
	counters := make(map[string]int64, len(c.counters))
	for k, v := range c.counters {
		counters[k] = v
	}
	gauges := make(map[string]float64, len(c.gauges))
	for k, v := range c.gauges {
		gauges[k] = v
	}
	c.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Counters:\n")
	for _, name := range counterNames {
		fmt.Fprintf(&b, "  %s: %d\n", name, counters[name])
	}
	b.WriteString("Gauges:\n")
	for _, name := range gaugeNames {
		fmt.Fprintf(&b, "  %s: %.4f\n", name, gauges[name])
	}
	b.WriteString("Timers:\n")
	for _, name := range timerNames {
		fmt.Fprintf(&b, "  %s: avg=%v p95=%v\n", name, c.TimerAverage(name), c.TimerP95(name))
	}
	return b.String()
}

// Reset clears all collected metrics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters = make(map[string]int64)
	c.gauges = make(map[string]float64)
	c.timers = make(map[string][]time.Duration)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
