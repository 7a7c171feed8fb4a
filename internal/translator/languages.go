package translator

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var catalogYAML []byte

// Language is one entry of the language catalog.
type Language struct {
	Name  string `yaml:"name" json:"name"`
	Code  string `yaml:"code" json:"code"`
	Voice string `yaml:"voice" json:"voice"`
}

// SpeechParams are the speech synthesis parameters used for every utterance.
type SpeechParams struct {
	Rate   float64 `yaml:"rate" json:"rate"`
	Pitch  float64 `yaml:"pitch" json:"pitch"`
	Volume float64 `yaml:"volume" json:"volume"`
}

// Catalog maps spoken language names and ISO codes to voices.
type Catalog struct {
	DefaultVoice string       `yaml:"default_voice" json:"defaultVoice"`
	Speech       SpeechParams `yaml:"speech" json:"speech"`
	Languages    []Language   `yaml:"languages" json:"languages"`

	byName map[string]Language
	byCode map[string]Language
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the embedded language catalog.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = ParseCatalog(catalogYAML)
	})
	if defaultCatalogErr != nil {
		panic(fmt.Sprintf("embedded language catalog is invalid: %v", defaultCatalogErr))
	}
	return defaultCatalog
}

// ParseCatalog decodes a YAML language catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse language catalog: %w", err)
	}
	if c.DefaultVoice == "" {
		return nil, fmt.Errorf("language catalog has no default_voice")
	}

	c.byName = make(map[string]Language, len(c.Languages))
	c.byCode = make(map[string]Language, len(c.Languages))
	for _, l := range c.Languages {
		if l.Name == "" || l.Code == "" {
			return nil, fmt.Errorf("language catalog entry %+v is incomplete", l)
		}
		if l.Voice == "" {
			l.Voice = c.DefaultVoice
		}
		c.byName[strings.ToLower(l.Name)] = l
		c.byCode[strings.ToLower(l.Code)] = l
	}
	return &c, nil
}

// Lookup finds a catalog entry by spoken name or ISO code.
func (c *Catalog) Lookup(nameOrCode string) (Language, bool) {
	key := strings.ToLower(strings.TrimSpace(nameOrCode))
	if l, ok := c.byName[key]; ok {
		return l, true
	}
	l, ok := c.byCode[key]
	return l, ok
}

// Resolve maps a spoken language name, ISO code or BCP-47 tag to a Language.
// Languages outside the catalog are named with their English display name and
// spoken with the default voice.
func (c *Catalog) Resolve(input string) (Language, error) {
	if l, ok := c.Lookup(input); ok {
		return l, nil
	}

	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Language{}, fmt.Errorf("%w: empty name", ErrUnknownLanguage)
	}

	tag, err := language.Parse(trimmed)
	if err != nil {
		return Language{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, input)
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return Language{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, input)
	}

	if l, ok := c.byCode[base.String()]; ok {
		return l, nil
	}

	baseTag := language.Make(base.String())
	return Language{
		Name:  strings.ToLower(display.English.Languages().Name(baseTag)),
		Code:  base.String(),
		Voice: c.DefaultVoice,
	}, nil
}

// VoiceFor returns the speech voice for an ISO code, or the default voice.
func (c *Catalog) VoiceFor(code string) string {
	if l, ok := c.byCode[strings.ToLower(code)]; ok {
		return l.Voice
	}
	return c.DefaultVoice
}

// Names returns the catalog's spoken language names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Languages))
	for _, l := range c.Languages {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names
}

// ResolveLanguage resolves input against the embedded catalog.
func ResolveLanguage(input string) (Language, error) {
	return DefaultCatalog().Resolve(input)
}
