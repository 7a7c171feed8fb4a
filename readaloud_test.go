package readaloud

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/readaloud/internal/command"
	"github.com/localrivet/readaloud/internal/docstore"
	"github.com/localrivet/readaloud/internal/reader"
	"github.com/localrivet/readaloud/internal/telemetry"
	"github.com/localrivet/readaloud/internal/translator"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Store.SQLitePath = filepath.Join(dir, "readaloud.db")
	cfg.Blob.Dir = filepath.Join(dir, "uploads")
	cfg.Translator.Provider = translator.ProviderNone
	cfg.Translator.LibreTranslateURL = ""
	cfg.Reader.PageGapMs = -1
	return cfg
}

func TestNewServer(t *testing.T) {
	ctx := context.Background()
	srv, err := NewServer(ctx, ServerOptions{Config: testConfig(t)})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, srv.Stop()) })

	text := "Readers like summaries. Summaries save time for busy readers. " +
		"A summary keeps the important sentences. Cats sleep all day."
	result, err := srv.Summarize(ctx, text)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Summary)
	assert.Equal(t, len([]rune(text)), result.OriginalLength)

	translation, err := srv.Translate(ctx, "bonjour", "English")
	require.NoError(t, err)
	assert.Equal(t, "bonjour", translation.Text)
	assert.Equal(t, "en", translation.TargetLanguage)

	_, err = srv.Translate(ctx, "bonjour", "klingonese")
	assert.ErrorIs(t, err, translator.ErrUnknownLanguage)
}

func TestServerHandler(t *testing.T) {
	srv, err := NewServer(context.Background(), ServerOptions{Config: testConfig(t)})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Stop() })

	body, err := json.Marshal(map[string]string{"text": "One sentence here. Another sentence there."})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/summarize", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateComponents_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Cache.Driver = "redis"
	cfg.Cache.RedisAddr = mr.Addr()

	ctx := context.Background()
	c, err := CreateComponents(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	_, err = c.Summarizer.SummarizeContext(ctx, "Cached sentences are fast. Redis keeps them around.")
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys())
}

func TestCreateComponents_InvalidStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "postgres"

	_, err := CreateComponents(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewServer_WithMCP(t *testing.T) {
	cfg := testConfig(t)
	cfg.MCP.Enabled = true

	srv, err := NewServer(context.Background(), ServerOptions{Config: cfg})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Stop() })

	assert.NotNil(t, srv.toolServer)
}

func TestServerNewSession(t *testing.T) {
	ctx := context.Background()
	srv, err := NewServer(ctx, ServerOptions{Config: testConfig(t)})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Stop() })

	doc := &docstore.Document{
		OriginalName: "Bedtime Story.pdf",
		Filename:     "1-bedtime-story.pdf",
		Pages:        []string{"Once upon a time.", "The end."},
	}
	require.NoError(t, srv.Components().Store.Create(ctx, doc))

	session := srv.NewSession(nil)
	t.Cleanup(session.Close)

	err = session.Apply(ctx, command.Action{Op: command.OpOpenDocument, Query: "missing"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	require.NoError(t, session.Apply(ctx, command.Action{Op: command.OpOpenDocument, Query: "bedtime"}))
	assert.Equal(t, doc.ID, session.Snapshot().DocumentID)

	require.NoError(t, session.Apply(ctx, command.Action{Op: command.OpStartReading, Page: 1}))
	session.Wait()

	assert.Equal(t, reader.StatusIdle, session.Snapshot().State.Status)
	snap := srv.Components().Metrics.Snapshot()
	assert.Equal(t, int64(2), snap.Counters[telemetry.MetricReaderPagesSpoken])
}
