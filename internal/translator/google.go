package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	googleTranslateURL = "https://translation.googleapis.com/language/translate/v2"
)

// GoogleProvider implements Provider for the Cloud Translation v2 REST API
type GoogleProvider struct {
	Config
	client
}

// GoogleRequest represents a request to the Cloud Translation API
type GoogleRequest struct {
	Q      []string `json:"q"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

// GoogleResponse represents a response from the Cloud Translation API
type GoogleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGoogleProvider creates a new instance of the Google provider
func NewGoogleProvider(config Config) *GoogleProvider {
	if config.BaseURL == "" {
		config.BaseURL = googleTranslateURL
	}
	return &GoogleProvider{
		Config: config,
		client: newClient(config),
	}
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

// Translate implements Translator for Google Cloud Translation
func (p *GoogleProvider) Translate(ctx context.Context, text, targetLang string) (*Translation, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("Google API key not provided")
	}
	if err := checkInput(text); err != nil {
		return nil, err
	}

	reqJSON, err := json.Marshal(GoogleRequest{
		Q:      []string{text},
		Target: targetLang,
		Format: "text",
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	endpoint := strings.TrimRight(p.BaseURL, "/") + "?key=" + url.QueryEscape(p.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request to Google Translation API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var googleResponse GoogleResponse
	if err := json.Unmarshal(respBody, &googleResponse); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	if googleResponse.Error != nil {
		return nil, fmt.Errorf("Google Translation API error: %s: %s",
			googleResponse.Error.Status, googleResponse.Error.Message)
	}

	if len(googleResponse.Data.Translations) == 0 {
		return nil, fmt.Errorf("empty response from Google Translation API")
	}

	first := googleResponse.Data.Translations[0]
	return &Translation{
		Text:                   first.TranslatedText,
		DetectedSourceLanguage: first.DetectedSourceLanguage,
		TargetLanguage:         targetLang,
		Provider:               ProviderGoogle,
	}, nil
}
