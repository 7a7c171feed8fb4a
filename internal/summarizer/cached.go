package summarizer

import (
	"bytes"
	"context"
	"encoding/gob"
	"log/slog"
	"time"

	"github.com/localrivet/readaloud/internal/cache"
	"github.com/localrivet/readaloud/internal/telemetry"
)

const (
	// DefaultCacheTTL is how long a summary stays cached.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultCacheTimeout bounds a single cache lookup or store.
	DefaultCacheTimeout = 2 * time.Second

	cacheNamespace = "summary"
)

// CachingSummarizer memoises the results of another Summarizer. The wrapped
// summarizer is deterministic, so a cached result is always identical to a
// fresh one. Results are gob encoded so summaries of text that is not valid
// UTF-8 keep their exact bytes. Cache failures are logged and never fail the request.
type CachingSummarizer struct {
	next    Summarizer
	cache   cache.Cache
	ttl     time.Duration
	metrics *telemetry.MetricsCollector
	logger  *slog.Logger
}

// CachingConfig holds configuration for a CachingSummarizer.
type CachingConfig struct {
	Cache   cache.Cache
	TTL     time.Duration
	Metrics *telemetry.MetricsCollector
	Logger  *slog.Logger
}

// NewCachingSummarizer wraps next with the cache described by config.
func NewCachingSummarizer(next Summarizer, config CachingConfig) *CachingSummarizer {
	if config.Cache == nil {
		config.Cache = cache.NewMemoryCache(cache.DefaultCapacity)
	}
	if config.TTL <= 0 {
		config.TTL = DefaultCacheTTL
	}
	if config.Metrics == nil {
		config.Metrics = telemetry.NewMetricsCollector()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &CachingSummarizer{
		next:    next,
		cache:   config.Cache,
		ttl:     config.TTL,
		metrics: config.Metrics,
		logger:  config.Logger,
	}
}

// Initialize implements Summarizer.
func (s *CachingSummarizer) Initialize() error {
	return s.next.Initialize()
}

// Summarize implements Summarizer.
func (s *CachingSummarizer) Summarize(text string) (*Result, error) {
	return s.SummarizeContext(context.Background(), text)
}

// SummarizeContext summarizes text, consulting the cache first.
func (s *CachingSummarizer) SummarizeContext(ctx context.Context, text string) (*Result, error) {
	startTime := time.Now()
	defer func() {
		s.metrics.RecordTimer(telemetry.MetricSummarizeResponseTime, time.Since(startTime))
	}()

	s.metrics.IncrementCounter(telemetry.MetricSummarizeRequests, 1)
	s.metrics.RecordTimestamp(telemetry.MetricSummarizeLastRequest)

	key := cache.Key(cacheNamespace, text)

	if result, found := s.checkCache(ctx, key); found {
		s.metrics.IncrementCounter(telemetry.MetricSummarizeCacheHits, 1)
		return result, nil
	}
	s.metrics.IncrementCounter(telemetry.MetricSummarizeCacheMisses, 1)

	result, err := s.next.Summarize(text)
	if err != nil {
		s.metrics.IncrementCounter(telemetry.MetricSummarizeFailures, 1)
		return nil, err
	}

	s.cacheResult(ctx, key, result)
	return result, nil
}

// GetMetrics returns the metrics collector for this summarizer
func (s *CachingSummarizer) GetMetrics() *telemetry.MetricsCollector {
	return s.metrics
}

// checkCache looks for a cached summary
func (s *CachingSummarizer) checkCache(ctx context.Context, key string) (*Result, bool) {
	ctx, cancel := context.WithTimeout(ctx, DefaultCacheTimeout)
	defer cancel()

	data, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("summary cache lookup failed", "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var result Result
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&result); err != nil {
		s.logger.Warn("discarding malformed cached summary", "error", err)
		return nil, false
	}
	return &result, true
}

// cacheResult stores a summary in the cache
func (s *CachingSummarizer) cacheResult(ctx context.Context, key string, result *Result) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(result); err != nil {
		s.logger.Warn("failed to encode summary for cache", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultCacheTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, key, buf.Bytes(), s.ttl); err != nil {
		s.logger.Warn("summary cache store failed", "error", err)
	}
}
