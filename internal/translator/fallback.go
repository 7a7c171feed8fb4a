package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/localrivet/readaloud/internal/telemetry"
)

// FallbackTranslator tries the primary provider with retries and then each
// fallback provider in order.
type FallbackTranslator struct {
	provider          Provider
	fallbackProviders []Provider
	maxRetries        int
	retryDelay        time.Duration
	timeout           time.Duration
	metrics           *telemetry.MetricsCollector
	logger            *slog.Logger
}

// FallbackConfig holds configuration for a FallbackTranslator
type FallbackConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	Metrics    *telemetry.MetricsCollector
	Logger     *slog.Logger
}

// NewFallbackTranslator creates a translator over chain. The first provider
// is the primary.
func NewFallbackTranslator(chain []Provider, config FallbackConfig) (*FallbackTranslator, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: empty provider chain", ErrUnsupportedProvider)
	}

	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultRetryDelay
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Metrics == nil {
		config.Metrics = telemetry.NewMetricsCollector()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &FallbackTranslator{
		provider:          chain[0],
		fallbackProviders: chain[1:],
		maxRetries:        config.MaxRetries,
		retryDelay:        config.RetryDelay,
		timeout:           config.Timeout,
		metrics:           config.Metrics,
		logger:            config.Logger,
	}, nil
}

// NewFromFactory builds a FallbackTranslator whose primary is the named
// provider, followed by the factory's remaining chain in preference order.
func NewFromFactory(factory *ProviderFactory, primary string, preferenceOrder []string, config FallbackConfig) (*FallbackTranslator, error) {
	primaryProvider, err := factory.GetProvider(primary)
	if err != nil {
		return nil, fmt.Errorf("failed to create primary provider: %w", err)
	}

	chain := []Provider{primaryProvider}
	for _, p := range factory.GetProviderChain(preferenceOrder) {
		if p.Name() != primaryProvider.Name() {
			chain = append(chain, p)
		}
	}

	return NewFallbackTranslator(chain, config)
}

// Providers returns the provider names in the order they are tried.
func (t *FallbackTranslator) Providers() []string {
	names := []string{t.provider.Name()}
	for _, p := range t.fallbackProviders {
		names = append(names, p.Name())
	}
	return names
}

// GetMetrics returns the metrics collector for this translator
func (t *FallbackTranslator) GetMetrics() *telemetry.MetricsCollector {
	return t.metrics
}

// Translate implements Translator.
func (t *FallbackTranslator) Translate(ctx context.Context, text, targetLang string) (*Translation, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	translation, err := t.translateWith(ctx, t.provider, text, targetLang)
	if err == nil {
		return translation, nil
	}
	if isInputError(err) || ctx.Err() != nil {
		return nil, err
	}

	t.logger.Warn("primary translation provider failed",
		"provider", t.provider.Name(), "error", err)
	lastErr := err

	for _, fallbackProvider := range t.fallbackProviders {
		t.metrics.IncrementCounter(telemetry.MetricTranslateFallbackAttempt, 1)

		translation, err = t.translateWith(ctx, fallbackProvider, text, targetLang)
		if err == nil {
			t.metrics.IncrementCounter(telemetry.MetricTranslateFallbackSuccess, 1)
			return translation, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}

		t.logger.Warn("fallback translation provider failed",
			"provider", fallbackProvider.Name(), "error", err)
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %v", ErrTranslationFailed, lastErr)
}

// translateWith runs one provider with retries and records its metrics.
func (t *FallbackTranslator) translateWith(ctx context.Context, provider Provider, text, targetLang string) (*Translation, error) {
	name := provider.Name()
	t.metrics.IncrementCounter(telemetry.MetricTranslateCalls, 1)
	t.metrics.IncrementCounter(telemetry.ProviderMetric(telemetry.MetricTranslateCalls, name), 1)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	translation, err := t.translateWithRetries(ctx, provider, text, targetLang)
	if err != nil {
		t.metrics.IncrementCounter(telemetry.MetricTranslateFailure, 1)
		t.metrics.SetGauge(telemetry.ProviderMetric(telemetry.MetricTranslateHealth, name), 0)
		return nil, err
	}

	t.metrics.IncrementCounter(telemetry.MetricTranslateSuccess, 1)
	t.metrics.SetGauge(telemetry.ProviderMetric(telemetry.MetricTranslateHealth, name), 1)
	t.metrics.RecordTimer(telemetry.ProviderMetric(telemetry.MetricTranslateResponseTime, name), time.Since(start))
	return translation, nil
}

// translateWithRetries attempts a translation with linear backoff between attempts
func (t *FallbackTranslator) translateWithRetries(ctx context.Context, provider Provider, text, targetLang string) (*Translation, error) {
	var lastErr error

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			t.metrics.IncrementCounter(telemetry.MetricTranslateRetryAttempts, 1)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(t.retryDelay * time.Duration(attempt)):
			}
		}

		translation, err := provider.Translate(ctx, text, targetLang)
		if err == nil {
			if attempt > 0 {
				t.metrics.IncrementCounter(telemetry.MetricTranslateRetrySuccess, 1)
			}
			return translation, nil
		}
		if isInputError(err) {
			return nil, err
		}

		lastErr = err
	}

	return nil, lastErr
}

// isInputError reports errors that no retry or fallback can fix.
func isInputError(err error) bool {
	return errors.Is(err, ErrEmptyText) || errors.Is(err, ErrTextTooLong)
}
