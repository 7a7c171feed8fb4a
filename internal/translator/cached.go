package translator

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/localrivet/readaloud/internal/cache"
	"github.com/localrivet/readaloud/internal/telemetry"
)

const (
	// DefaultCacheTTL is how long a translation stays cached.
	DefaultCacheTTL = 7 * 24 * time.Hour

	cacheNamespace = "translation"
)

// CachingTranslator memoises translations by target language and text.
type CachingTranslator struct {
	next    Translator
	cache   cache.Cache
	ttl     time.Duration
	metrics *telemetry.MetricsCollector
	logger  *slog.Logger
}

// NewCachingTranslator wraps next with c.
func NewCachingTranslator(next Translator, c cache.Cache, ttl time.Duration, metrics *telemetry.MetricsCollector, logger *slog.Logger) *CachingTranslator {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingTranslator{
		next:    next,
		cache:   c,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// Translate implements Translator.
func (t *CachingTranslator) Translate(ctx context.Context, text, targetLang string) (*Translation, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	key := cache.Key(cacheNamespace, targetLang, text)

	if data, found, err := t.cache.Get(ctx, key); err != nil {
		t.logger.Warn("translation cache lookup failed", "error", err)
	} else if found {
		var cached Translation
		if err := json.Unmarshal(data, &cached); err == nil {
			t.metrics.IncrementCounter(telemetry.MetricTranslateCacheHits, 1)
			return &cached, nil
		}
	}
	t.metrics.IncrementCounter(telemetry.MetricTranslateCacheMisses, 1)

	translation, err := t.next.Translate(ctx, text, targetLang)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(translation); err == nil {
		if err := t.cache.Set(ctx, key, data, t.ttl); err != nil {
			t.logger.Warn("translation cache store failed", "error", err)
		}
	}

	return translation, nil
}
