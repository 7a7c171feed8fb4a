package translator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/localrivet/readaloud/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() FallbackConfig {
	return FallbackConfig{MaxRetries: 2, RetryDelay: time.Millisecond}
}

func TestFallbackTranslator_PrimarySucceeds(t *testing.T) {
	primary := NewTestProvider("primary", 0, nil)
	fallback := NewTestProvider("fallback", 0, nil)

	tr, err := NewFallbackTranslator([]Provider{primary, fallback}, fastConfig())
	require.NoError(t, err)

	got, err := tr.Translate(context.Background(), "hello", "fr")
	require.NoError(t, err)
	assert.Equal(t, "primary", got.Provider)
	assert.Equal(t, 0, fallback.Calls())
	assert.Equal(t, []string{"primary", "fallback"}, tr.Providers())
}

func TestFallbackTranslator_RetriesThenSucceeds(t *testing.T) {
	primary := NewTestProvider("primary", 2, errors.New("flaky"))

	tr, err := NewFallbackTranslator([]Provider{primary}, fastConfig())
	require.NoError(t, err)

	got, err := tr.Translate(context.Background(), "hello", "fr")
	require.NoError(t, err)
	assert.Equal(t, "[fr] hello", got.Text)
	assert.Equal(t, 3, primary.Calls())

	m := tr.GetMetrics()
	assert.Equal(t, int64(2), m.GetCounter(telemetry.MetricTranslateRetryAttempts))
	assert.Equal(t, int64(1), m.GetCounter(telemetry.MetricTranslateRetrySuccess))
	assert.Equal(t, 1.0, m.GetGauge(telemetry.ProviderMetric(telemetry.MetricTranslateHealth, "primary")))
}

func TestFallbackTranslator_FallsBack(t *testing.T) {
	primary := NewTestProvider("primary", -1, errors.New("down"))
	fallback := NewTestProvider("fallback", 0, nil)

	tr, err := NewFallbackTranslator([]Provider{primary, fallback}, fastConfig())
	require.NoError(t, err)

	got, err := tr.Translate(context.Background(), "hello", "de")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got.Provider)
	assert.Equal(t, 3, primary.Calls())

	m := tr.GetMetrics()
	assert.Equal(t, int64(1), m.GetCounter(telemetry.MetricTranslateFallbackAttempt))
	assert.Equal(t, int64(1), m.GetCounter(telemetry.MetricTranslateFallbackSuccess))
	assert.Equal(t, int64(1), m.GetCounter(telemetry.MetricTranslateFailure))
	assert.Equal(t, 0.0, m.GetGauge(telemetry.ProviderMetric(telemetry.MetricTranslateHealth, "primary")))
}

func TestFallbackTranslator_AllFail(t *testing.T) {
	primary := NewTestProvider("primary", -1, errors.New("down"))
	fallback := NewTestProvider("fallback", -1, errors.New("also down"))

	tr, err := NewFallbackTranslator([]Provider{primary, fallback}, fastConfig())
	require.NoError(t, err)

	_, err = tr.Translate(context.Background(), "hello", "de")
	assert.ErrorIs(t, err, ErrTranslationFailed)
	assert.Contains(t, err.Error(), "also down")
}

func TestFallbackTranslator_InputErrorsAreNotRetried(t *testing.T) {
	primary := NewTestProvider("primary", -1, ErrTextTooLong)
	fallback := NewTestProvider("fallback", 0, nil)

	tr, err := NewFallbackTranslator([]Provider{primary, fallback}, fastConfig())
	require.NoError(t, err)

	_, err = tr.Translate(context.Background(), "hello", "de")
	assert.ErrorIs(t, err, ErrTextTooLong)
	assert.Equal(t, 1, primary.Calls())
	assert.Equal(t, 0, fallback.Calls())

	_, err = tr.Translate(context.Background(), "", "de")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestFallbackTranslator_ContextCanceled(t *testing.T) {
	primary := NewTestProvider("primary", -1, errors.New("down"))
	fallback := NewTestProvider("fallback", 0, nil)

	tr, err := NewFallbackTranslator([]Provider{primary, fallback}, FallbackConfig{MaxRetries: 3, RetryDelay: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = tr.Translate(ctx, "hello", "de")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, fallback.Calls())
}

func TestNewFallbackTranslator_EmptyChain(t *testing.T) {
	_, err := NewFallbackTranslator(nil, FallbackConfig{})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestNewFromFactory(t *testing.T) {
	factory := NewProviderFactory(map[string]Config{
		ProviderLibreTranslate: {BaseURL: "http://localhost:5000"},
		ProviderGoogle:         {APIKey: "g"},
	})

	tr, err := NewFromFactory(factory, ProviderGoogle, []string{ProviderLibreTranslate, ProviderGoogle, ProviderNone}, FallbackConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{ProviderGoogle, ProviderLibreTranslate, ProviderNone}, tr.Providers())

	_, err = NewFromFactory(factory, "missing", nil, FallbackConfig{})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}
