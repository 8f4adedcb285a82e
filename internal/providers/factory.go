package providers

import (
	"fmt"

	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

// Params are the raw values needed to construct any schema.LLMProvider.
// Extracted from config.Config by the caller to avoid an import cycle.
type Params struct {
	APIKey       string
	APIBase      string
	ExtraHeaders map[string]string
	DefaultModel string
	ProviderName string // registry name, "anthropic" or "gemini"
}

// New creates the adapter for p.ProviderName. Empty APIBase, DefaultModel
// and APIKey fall back to the registry defaults and environment.
func New(p Params) (schema.LLMProvider, error) {
	spec := FindByName(p.ProviderName)
	if spec == nil {
		return nil, fmt.Errorf("unknown provider %q", p.ProviderName)
	}
	if p.APIBase == "" {
		p.APIBase = spec.DefaultAPIBase
	}
	if p.DefaultModel == "" {
		p.DefaultModel = spec.DefaultModel
	}
	if p.APIKey == "" {
		p.APIKey = spec.EnvAPIKey()
	}
	if p.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for %s (set %s)", spec.Label(), spec.EnvKeys[0])
	}

	switch spec.Kind {
	case schema.BackendAnthropic:
		return NewAnthropicProvider(p.APIKey, p.APIBase, p.DefaultModel, p.ExtraHeaders), nil
	case schema.BackendGemini:
		return NewGeminiProvider(p.APIKey, p.APIBase, p.DefaultModel, p.ExtraHeaders), nil
	default:
		return nil, fmt.Errorf("provider %q has no adapter", spec.Name)
	}
}
