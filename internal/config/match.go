package config

import (
	"strings"

	"github.com/crystaldolphin/tomekeeper/internal/providers"
)

// MatchResult is the resolved provider config and registry name for a model.
type MatchResult struct {
	Provider *ProviderConfig
	Name     string // "anthropic" or "gemini"
}

// MatchProvider resolves which backend serves model.
// If model is empty, agents.defaults.model is used.
//
// Priority order:
//  1. Explicit prefix or keyword in the model name
//  2. agents.defaults.provider, when set
//  3. Fallback: the first provider with an API key in the file or environment
func (c *Config) MatchProvider(model string) MatchResult {
	if model == "" {
		model = c.Agents.Defaults.Model
	}

	if model != "" {
		if spec := providers.FindByModel(model); spec != nil {
			return MatchResult{Provider: c.ProviderByName(spec.Name), Name: spec.Name}
		}
	}

	if name := c.Agents.Defaults.Provider; name != "" {
		if p := c.ProviderByName(name); p != nil {
			return MatchResult{Provider: p, Name: name}
		}
	}

	for _, spec := range providers.Providers {
		if c.APIKey(spec.Name) != "" {
			return MatchResult{Provider: c.ProviderByName(spec.Name), Name: spec.Name}
		}
	}
	return MatchResult{}
}

// APIKey returns the key for the named provider. An empty key in the file
// falls back to the provider's environment variables.
func (c *Config) APIKey(name string) string {
	if p := c.ProviderByName(name); p != nil && p.APIKey != "" {
		return p.APIKey
	}
	if spec := providers.FindByName(name); spec != nil {
		return spec.EnvAPIKey()
	}
	return ""
}

// GetAPIBase resolves the effective API base URL for model.
// Precedence: user-configured apiBase > the provider's default.
func (c *Config) GetAPIBase(model string) string {
	result := c.MatchProvider(model)
	if result.Provider != nil && result.Provider.APIBase != "" {
		return result.Provider.APIBase
	}
	if spec := providers.FindByName(result.Name); spec != nil {
		return spec.DefaultAPIBase
	}
	return ""
}

// ProviderParams assembles the factory parameters for model. A leading
// "provider/" prefix is stripped from the model name.
func (c *Config) ProviderParams(model string) providers.Params {
	if model == "" {
		model = c.Agents.Defaults.Model
	}
	result := c.MatchProvider(model)
	apiBase := c.GetAPIBase(model)
	if prefix, rest, ok := strings.Cut(model, "/"); ok && prefix == result.Name {
		model = rest
	}
	p := providers.Params{
		APIKey:       c.APIKey(result.Name),
		APIBase:      apiBase,
		DefaultModel: model,
		ProviderName: result.Name,
	}
	if result.Provider != nil {
		p.ExtraHeaders = result.Provider.ExtraHeaders
	}
	return p
}
