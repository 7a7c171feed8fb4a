// Package telemetry provides metrics collection and reporting
// for monitoring the readaloud service.
package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// maxTimerSamples bounds the durations kept per timer.
const maxTimerSamples = 100

// MetricsCollector provides a thread-safe interface for collecting
// application metrics for monitoring and troubleshooting.
type MetricsCollector struct {
	counters   map[string]int64
	gauges     map[string]float64
	timers     map[string][]time.Duration
	latestTime map[string]time.Time
	mu         sync.RWMutex
}

// Summarizer metrics
const (
	MetricSummarizeRequests     = "summarizer.requests"
	MetricSummarizeFailures     = "summarizer.failures"
	MetricSummarizeCacheHits    = "summarizer.cache.hits"
	MetricSummarizeCacheMisses  = "summarizer.cache.misses"
	MetricSummarizeResponseTime = "summarizer.response_time"
	MetricSummarizeLastRequest  = "summarizer.last_request"
)

// Translator metrics. Per-provider metrics are built with ProviderMetric.
const (
	MetricTranslateCalls           = "translator.calls"
	MetricTranslateSuccess         = "translator.success"
	MetricTranslateFailure         = "translator.failure"
	MetricTranslateRetryAttempts   = "translator.retry_attempts"
	MetricTranslateRetrySuccess    = "translator.retry_success"
	MetricTranslateFallbackAttempt = "translator.fallback_attempts"
	MetricTranslateFallbackSuccess = "translator.fallback_success"
	MetricTranslateCacheHits       = "translator.cache.hits"
	MetricTranslateCacheMisses     = "translator.cache.misses"
	MetricTranslateResponseTime    = "translator.response_time"
	MetricTranslateHealth          = "translator.health"
)

// Voice command and reading session metrics
const (
	MetricCommandsParsed    = "commands.parsed"
	MetricCommandsUnknown   = "commands.unknown"
	MetricCommandsRejected  = "commands.rejected"
	MetricReaderTransitions = "reader.transitions"
	MetricReaderRejected    = "reader.rejected_transitions"
	MetricReaderPagesSpoken = "reader.pages_spoken"
	MetricSessionsActive    = "reader.sessions.active"
)

// Document and HTTP metrics
const (
	MetricDocumentsUploaded  = "documents.uploaded"
	MetricDocumentsDeleted   = "documents.deleted"
	MetricDocumentsExtracted = "documents.extracted"
	MetricHTTPRequests       = "http.requests"
	MetricHTTPErrors         = "http.errors"
	MetricHTTPResponseTime   = "http.response_time"
)

// ProviderMetric scopes a metric name to a provider, e.g.
// ProviderMetric(MetricTranslateCalls, "libretranslate").
func ProviderMetric(metric, provider string) string {
	return metric + "." + provider
}

// Snapshot is a point-in-time copy of the collected metrics.
type Snapshot struct {
	Counters     map[string]int64
	Gauges       map[string]float64
	TimerAverage map[string]time.Duration
	TimerCount   map[string]int
}

// NewMetricsCollector creates a new MetricsCollector instance
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		timers:     make(map[string][]time.Duration),
		latestTime: make(map[string]time.Time),
	}
}

// IncrementCounter increments a named counter by the specified amount
func (m *MetricsCollector) IncrementCounter(name string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[name] += amount
}

// SetGauge sets a named gauge to the specified value
func (m *MetricsCollector) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gauges[name] = value
}

// AddGauge adjusts a named gauge by delta.
func (m *MetricsCollector) AddGauge(name string, delta float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gauges[name] += delta
}

// RecordTimer records a duration for the specified timer
func (m *MetricsCollector) RecordTimer(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.timers[name] = append(m.timers[name], duration)

	if len(m.timers[name]) > maxTimerSamples {
		m.timers[name] = m.timers[name][1:]
	}
}

// RecordTimestamp records the current time for the specified event
func (m *MetricsCollector) RecordTimestamp(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latestTime[name] = time.Now()
}

// GetCounter retrieves the current value of a counter
func (m *MetricsCollector) GetCounter(name string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.counters[name]
}

// GetGauge retrieves the current value of a gauge
func (m *MetricsCollector) GetGauge(name string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.gauges[name]
}

// GetTimerAverage calculates the average duration for a timer
func (m *MetricsCollector) GetTimerAverage(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return average(m.timers[name])
}

// GetTimerP95 calculates the 95th percentile duration for a timer
func (m *MetricsCollector) GetTimerP95(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return percentile95(m.timers[name])
}

// GetTimeSince calculates the time elapsed since a recorded timestamp
func (m *MetricsCollector) GetTimeSince(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	timestamp, exists := m.latestTime[name]
	if !exists {
		return 0
	}

	return time.Since(timestamp)
}

// Snapshot copies the current counters, gauges and timer summaries.
func (m *MetricsCollector) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Counters:     make(map[string]int64, len(m.counters)),
		Gauges:       make(map[string]float64, len(m.gauges)),
		TimerAverage: make(map[string]time.Duration, len(m.timers)),
		TimerCount:   make(map[string]int, len(m.timers)),
	}
	for name, value := range m.counters {
		snap.Counters[name] = value
	}
	for name, value := range m.gauges {
		snap.Gauges[name] = value
	}
	for name, durations := range m.timers {
		snap.TimerAverage[name] = average(durations)
		snap.TimerCount[name] = len(durations)
	}
	return snap
}

// GetReport generates a report of all collected metrics
func (m *MetricsCollector) GetReport() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Metrics Report:\n")
	b.WriteString("==============\n\n")

	b.WriteString("Counters:\n")
	for _, name := range sortedKeys(m.counters) {
		fmt.Fprintf(&b, "  %s: %d\n", name, m.counters[name])
	}

	b.WriteString("\nGauges:\n")
	for _, name := range sortedKeys(m.gauges) {
		fmt.Fprintf(&b, "  %s: %.2f\n", name, m.gauges[name])
	}

	b.WriteString("\nTimers (avg):\n")
	for _, name := range sortedKeys(m.timers) {
		durations := m.timers[name]
		fmt.Fprintf(&b, "  %s: avg=%v p95=%v count=%d\n",
			name, average(durations), percentile95(durations), len(durations))
	}

	b.WriteString("\nTime Since:\n")
	for _, name := range sortedKeys(m.latestTime) {
		timestamp := m.latestTime[name]
		fmt.Fprintf(&b, "  %s: %v ago (%s)\n",
			name, time.Since(timestamp), timestamp.Format(time.RFC3339))
	}

	return b.String()
}

// Reset clears all collected metrics
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters = make(map[string]int64)
	m.gauges = make(map[string]float64)
	m.timers = make(map[string][]time.Duration)
	m.latestTime = make(map[string]time.Time)
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	return total / time.Duration(len(durations))
}

func percentile95(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)) * 0.95)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return sorted[idx]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
