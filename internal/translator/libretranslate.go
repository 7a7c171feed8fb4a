package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	libreTranslateDefaultURL = "https://libretranslate.com"
)

// LibreTranslateProvider implements Provider against a LibreTranslate server.
type LibreTranslateProvider struct {
	Config
	client
}

// LibreTranslateRequest represents a request to the /translate endpoint
type LibreTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

// LibreTranslateResponse represents a response from the /translate endpoint
type LibreTranslateResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage *struct {
		Confidence float64 `json:"confidence"`
		Language   string  `json:"language"`
	} `json:"detectedLanguage,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewLibreTranslateProvider creates a new instance of the LibreTranslate provider
func NewLibreTranslateProvider(config Config) *LibreTranslateProvider {
	if config.BaseURL == "" {
		config.BaseURL = libreTranslateDefaultURL
	}
	return &LibreTranslateProvider{
		Config: config,
		client: newClient(config),
	}
}

// Name returns the provider name
func (p *LibreTranslateProvider) Name() string {
	return ProviderLibreTranslate
}

// Translate implements Translator for LibreTranslate
func (p *LibreTranslateProvider) Translate(ctx context.Context, text, targetLang string) (*Translation, error) {
	if err := checkInput(text); err != nil {
		return nil, err
	}

	reqJSON, err := json.Marshal(LibreTranslateRequest{
		Q:      text,
		Source: AutoDetect,
		Target: targetLang,
		Format: "text",
		APIKey: p.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		strings.TrimRight(p.BaseURL, "/")+"/translate",
		bytes.NewReader(reqJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request to LibreTranslate: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var libreResponse LibreTranslateResponse
	if err := json.Unmarshal(respBody, &libreResponse); err != nil {
		return nil, fmt.Errorf("error unmarshaling response (status %d): %w", resp.StatusCode, err)
	}

	if libreResponse.Error != "" {
		return nil, fmt.Errorf("LibreTranslate error (status %d): %s", resp.StatusCode, libreResponse.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LibreTranslate returned status %d", resp.StatusCode)
	}

	detected := ""
	if libreResponse.DetectedLanguage != nil {
		detected = libreResponse.DetectedLanguage.Language
	}

	return &Translation{
		Text:                   libreResponse.TranslatedText,
		DetectedSourceLanguage: detected,
		TargetLanguage:         targetLang,
		Provider:               ProviderLibreTranslate,
	}, nil
}
