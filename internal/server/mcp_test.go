package server

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/localrivet/readaloud/internal/command"
	"github.com/localrivet/readaloud/internal/docstore"
	"github.com/localrivet/readaloud/internal/summarizer"
	"github.com/localrivet/readaloud/internal/tools"
	"github.com/localrivet/readaloud/internal/translator"
)

// mockSummarizer returns a fixed result.
type mockSummarizer struct {
	err   error
	calls int
}

func (m *mockSummarizer) Summarize(text string) (*summarizer.Result, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &summarizer.Result{
		Summary:             "Short.",
		OriginalLength:      len([]rune(text)),
		SummaryLength:       6,
		ReductionPercentage: 50,
	}, nil
}

func (m *mockSummarizer) Initialize() error { return nil }

// failingTranslator fails every call.
type failingTranslator struct{}

func (failingTranslator) Translate(context.Context, string, string) (*translator.Translation, error) {
	return nil, translator.ErrTranslationFailed
}

func newTestStore(t *testing.T) docstore.Store {
	t.Helper()
	store := docstore.NewSQLiteStore(filepath.Join(t.TempDir(), "docs.db"))
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestToolServer(t *testing.T) (*MCPToolServer, docstore.Store, *mockSummarizer) {
	t.Helper()
	store := newTestStore(t)
	sum := &mockSummarizer{}
	srv := NewMCPToolServer(store, sum, translator.NewIdentityProvider(), nil, nil)
	if err := srv.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return srv, store, sum
}

func TestMCPToolServer_Initialize(t *testing.T) {
	srv := NewMCPToolServer(nil, &mockSummarizer{}, translator.NewIdentityProvider(), nil, nil)
	err := srv.Initialize()
	if !errors.Is(err, ErrMissingDependencies) {
		t.Errorf("Initialize() error = %v, want ErrMissingDependencies", err)
	}

	if err := srv.Start(); !errors.Is(err, ErrServerNotInitialized) {
		t.Errorf("Start() error = %v, want ErrServerNotInitialized", err)
	}

	if err := srv.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestMCPToolServer_SummarizeText(t *testing.T) {
	srv, _, sum := newTestToolServer(t)

	resp, err := srv.handleSummarizeText(nil, tools.SummarizeRequest{Text: "Long text. With sentences."})
	if err != nil {
		t.Fatalf("handleSummarizeText() error = %v", err)
	}
	if resp.Summary != "Short." || resp.Message != tools.MsgTextSummarized {
		t.Errorf("unexpected response %+v", resp)
	}

	if _, err := srv.handleSummarizeText(nil, tools.SummarizeRequest{Text: "   "}); !errors.Is(err, tools.ErrTextRequired) {
		t.Errorf("blank text error = %v, want ErrTextRequired", err)
	}
	if sum.calls != 1 {
		t.Errorf("summarizer called %d times, want 1", sum.calls)
	}

	sum.err = summarizer.ErrInvalidInput
	if _, err := srv.handleSummarizeText(nil, tools.SummarizeRequest{Text: "!!!"}); !errors.Is(err, summarizer.ErrInvalidInput) {
		t.Errorf("summarizer error = %v, want ErrInvalidInput", err)
	}
}

func TestMCPToolServer_TranslateText(t *testing.T) {
	srv, _, _ := newTestToolServer(t)

	resp, err := srv.handleTranslateText(nil, tools.TranslateTextRequest{FromText: "hello", ToLanguage: "Spanish"})
	if err != nil {
		t.Fatalf("handleTranslateText() error = %v", err)
	}
	if resp.Status != tools.StatusSuccess || resp.TranslatedText != "hello" {
		t.Errorf("unexpected response %+v", resp)
	}

	resp, _ = srv.handleTranslateText(nil, tools.TranslateTextRequest{FromText: "hello", ToLanguage: "klingonese"})
	if resp.Status != tools.StatusError || resp.Error == "" {
		t.Errorf("unknown language should fail, got %+v", resp)
	}

	srv.translator = failingTranslator{}
	resp, _ = srv.handleTranslateText(nil, tools.TranslateTextRequest{FromText: "hello", ToLanguage: "fr"})
	if resp.Status != tools.StatusError {
		t.Errorf("provider failure should fail, got %+v", resp)
	}
}

func TestMCPToolServer_ParseVoiceCommand(t *testing.T) {
	srv, _, _ := newTestToolServer(t)

	tests := []struct {
		name       string
		req        tools.CommandRequest
		wantStatus string
		wantOp     string
		wantPage   int
	}{
		{
			name:       "go to page",
			req:        tools.CommandRequest{Transcript: "go to page 3", View: tools.CommandView{DocumentID: "d", CurrentPage: 1, NumPages: 5}},
			wantStatus: tools.StatusSuccess,
			wantOp:     string(command.OpGoToPage),
			wantPage:   3,
		},
		{
			name:       "page out of range",
			req:        tools.CommandRequest{Transcript: "go to page 9", View: tools.CommandView{DocumentID: "d", CurrentPage: 1, NumPages: 5}},
			wantStatus: tools.StatusError,
		},
		{
			name:       "no document",
			req:        tools.CommandRequest{Transcript: "next page"},
			wantStatus: tools.StatusError,
		},
		{
			name:       "empty transcript",
			req:        tools.CommandRequest{},
			wantStatus: tools.StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := srv.handleParseVoiceCommand(nil, tt.req)
			if err != nil {
				t.Fatalf("handleParseVoiceCommand() error = %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s (%+v)", resp.Status, tt.wantStatus, resp)
			}
			if resp.Op != tt.wantOp || resp.Page != tt.wantPage {
				t.Errorf("op/page = %s/%d, want %s/%d", resp.Op, resp.Page, tt.wantOp, tt.wantPage)
			}
		})
	}
}

func TestMCPToolServer_SearchDocuments(t *testing.T) {
	srv, store, _ := newTestToolServer(t)

	doc := &docstore.Document{OriginalName: "Annual Report.pdf", Filename: "1-annual.pdf", Pages: []string{"a", "b"}}
	if err := store.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	resp, err := srv.handleSearchDocuments(nil, tools.SearchDocumentsRequest{Name: "annual"})
	if err != nil {
		t.Fatalf("handleSearchDocuments() error = %v", err)
	}
	if resp.Status != tools.StatusSuccess || len(resp.Documents) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got := resp.Documents[0]; got.ID != doc.ID || got.Pages != 2 {
		t.Errorf("unexpected document %+v", got)
	}

	resp, _ = srv.handleSearchDocuments(nil, tools.SearchDocumentsRequest{Name: "missing"})
	if resp.Status != tools.StatusSuccess || len(resp.Documents) != 0 {
		t.Errorf("expected empty result, got %+v", resp)
	}

	resp, _ = srv.handleSearchDocuments(nil, tools.SearchDocumentsRequest{})
	if resp.Status != tools.StatusError {
		t.Errorf("blank name should fail, got %+v", resp)
	}
}
