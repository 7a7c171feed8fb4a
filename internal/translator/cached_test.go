package translator

import (
	"context"
	"testing"

	"github.com/localrivet/readaloud/internal/cache"
	"github.com/localrivet/readaloud/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachingTranslator(t *testing.T) {
	inner := NewTestProvider("inner", 0, nil)
	metrics := telemetry.NewMetricsCollector()
	tr := NewCachingTranslator(inner, cache.NewMemoryCache(10), 0, metrics, nil)
	ctx := context.Background()

	first, err := tr.Translate(ctx, "hello", "fr")
	require.NoError(t, err)
	second, err := tr.Translate(ctx, "hello", "fr")
	require.NoError(t, err)
	assert.Equal(t, *first, *second)
	assert.Equal(t, 1, inner.Calls())

	// a different target is a different entry
	_, err = tr.Translate(ctx, "hello", "de")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.Calls())

	assert.Equal(t, int64(1), metrics.GetCounter(telemetry.MetricTranslateCacheHits))
	assert.Equal(t, int64(2), metrics.GetCounter(telemetry.MetricTranslateCacheMisses))

	_, err = tr.Translate(ctx, "", "fr")
	assert.ErrorIs(t, err, ErrEmptyText)
}
