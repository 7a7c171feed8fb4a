package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockResponseConfig holds configuration for mock API responses
type MockResponseConfig struct {
	StatusCode   int
	ResponseBody interface{}
}

// MockServer creates a test server that returns the configured response and
// records the decoded request bodies it received.
func MockServer(t *testing.T, config MockResponseConfig) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()
	var mu sync.Mutex
	var requests []map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body == nil {
			body = map[string]interface{}{}
		}
		body["_path"] = r.URL.Path
		body["_key"] = r.URL.Query().Get("key")

		mu.Lock()
		requests = append(requests, body)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(config.StatusCode)

		switch b := config.ResponseBody.(type) {
		case nil:
		case string:
			_, _ = w.Write([]byte(b))
		default:
			_ = json.NewEncoder(w).Encode(b)
		}
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

// TestProvider is a simple Provider for testing
type TestProvider struct {
	name      string
	failures  int
	calls     int
	returnErr error
	mu        sync.Mutex
}

// NewTestProvider creates a provider that fails its first failures calls.
func NewTestProvider(name string, failures int, returnErr error) *TestProvider {
	return &TestProvider{name: name, failures: failures, returnErr: returnErr}
}

func (p *TestProvider) Name() string { return p.name }

func (p *TestProvider) Translate(_ context.Context, text, targetLang string) (*Translation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.returnErr != nil && (p.failures < 0 || p.calls <= p.failures) {
		return nil, p.returnErr
	}
	return &Translation{
		Text:                   "[" + targetLang + "] " + text,
		DetectedSourceLanguage: "en",
		TargetLanguage:         targetLang,
		Provider:               p.name,
	}, nil
}

func (p *TestProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
