// Package translator translates page text and summaries into the reader's
// selected language through pluggable translation providers.
package translator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Provider constants
	ProviderLibreTranslate = "libretranslate"
	ProviderGoogle         = "google"
	ProviderNone           = "none"

	// Default settings
	DefaultTimeout           = 30 * time.Second
	DefaultMaxRetries        = 2
	DefaultRetryDelay        = 500 * time.Millisecond
	DefaultRequestsPerSecond = 5
	DefaultMaxInputLength    = 20000

	// AutoDetect asks a provider to detect the source language.
	AutoDetect = "auto"
)

// Errors
var (
	ErrUnsupportedProvider = errors.New("translation provider not supported")
	ErrEmptyText           = errors.New("text is required for translation")
	ErrUnknownLanguage     = errors.New("unknown language")
	ErrTranslationFailed   = errors.New("translation failed")
	ErrTextTooLong         = errors.New("text exceeds provider input limit")
)

// Translation is the result of translating one piece of text.
type Translation struct {
	Text                   string `json:"translated_text"`
	DetectedSourceLanguage string `json:"detected_source_language"`
	TargetLanguage         string `json:"target_language"`
	Provider               string `json:"provider,omitempty"`
}

// Translator translates text into a target language code.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (*Translation, error)
}

// Provider is one translation backend.
type Provider interface {
	Translator

	// Name returns the provider name
	Name() string
}

// Config holds common configuration for translation providers
type Config struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// client carries the HTTP client and request pacing shared by HTTP providers.
type client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newClient(config Config) client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

// do waits for the rate limiter and sends req.
func (c client) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

func checkInput(text string) error {
	if text == "" {
		return ErrEmptyText
	}
	if len(text) > DefaultMaxInputLength {
		return ErrTextTooLong
	}
	return nil
}
