package translator

import "context"

// IdentityProvider returns text unchanged. It backs the "none" provider used
// when no translation service is configured and keeps the reading flow working.
type IdentityProvider struct{}

// NewIdentityProvider creates a new IdentityProvider.
func NewIdentityProvider() *IdentityProvider {
	return &IdentityProvider{}
}

// Name returns the provider name
func (p *IdentityProvider) Name() string {
	return ProviderNone
}

// Translate implements Translator.
func (p *IdentityProvider) Translate(_ context.Context, text, targetLang string) (*Translation, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	return &Translation{
		Text:                   text,
		DetectedSourceLanguage: AutoDetect,
		TargetLanguage:         targetLang,
		Provider:               ProviderNone,
	}, nil
}
