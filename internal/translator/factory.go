package translator

import (
	"fmt"
	"sort"
)

// ProviderFactory creates and returns translation providers
type ProviderFactory struct {
	// ProviderConfigs stores configuration for each provider
	ProviderConfigs map[string]Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(configs map[string]Config) *ProviderFactory {
	return &ProviderFactory{
		ProviderConfigs: configs,
	}
}

// GetProvider returns an initialized provider instance for the specified provider name
func (f *ProviderFactory) GetProvider(providerName string) (Provider, error) {
	if providerName == ProviderNone {
		return NewIdentityProvider(), nil
	}

	config, exists := f.ProviderConfigs[providerName]
	if !exists {
		return nil, fmt.Errorf("%w: configuration for provider '%s' not found", ErrUnsupportedProvider, providerName)
	}

	switch providerName {
	case ProviderLibreTranslate:
		return NewLibreTranslateProvider(config), nil
	case ProviderGoogle:
		return NewGoogleProvider(config), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, providerName)
	}
}

// usable reports whether a configured provider has what it needs to run.
// LibreTranslate can run keyless against a self-hosted server.
func usable(name string, config Config) bool {
	switch name {
	case ProviderGoogle:
		return config.APIKey != ""
	case ProviderLibreTranslate:
		return config.APIKey != "" || config.BaseURL != ""
	default:
		return false
	}
}

// GetProviderChain returns an ordered list of providers to try in sequence.
// Providers named in preferenceOrder come first, then the remaining usable
// providers in name order.
func (f *ProviderFactory) GetProviderChain(preferenceOrder []string) []Provider {
	var chain []Provider
	seen := make(map[string]bool)

	add := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if name == ProviderNone {
			chain = append(chain, NewIdentityProvider())
			return
		}
		config, exists := f.ProviderConfigs[name]
		if !exists || !usable(name, config) {
			return
		}
		if provider, err := f.GetProvider(name); err == nil {
			chain = append(chain, provider)
		}
	}

	for _, name := range preferenceOrder {
		add(name)
	}

	remaining := make([]string, 0, len(f.ProviderConfigs))
	for name := range f.ProviderConfigs {
		remaining = append(remaining, name)
	}
	sort.Strings(remaining)
	for _, name := range remaining {
		add(name)
	}

	return chain
}
