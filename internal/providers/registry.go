package providers

import (
	"os"
	"strings"

	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

// ProviderSpec is the metadata record for one chat backend.
type ProviderSpec struct {
	Name           string             // config field name, e.g. "gemini"
	Kind           schema.BackendKind // wire protocol family
	Keywords       []string           // model-name keywords for matching (lowercase)
	EnvKeys        []string           // env vars consulted for the API key, in order
	DisplayName    string             // shown in `tomekeeper status`
	DefaultAPIBase string
	DefaultModel   string
	Models         []string
}

// Label returns the display name, defaulting to Title-cased Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return strings.ToTitle(s.Name[:1]) + s.Name[1:]
}

// EnvAPIKey returns the first non-empty API key among EnvKeys.
func (s ProviderSpec) EnvAPIKey() string {
	for _, k := range s.EnvKeys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Providers. Order = match priority.
// ---------------------------------------------------------------------------

var Providers = []ProviderSpec{
	{
		Name:           "anthropic",
		Kind:           schema.BackendAnthropic,
		Keywords:       []string{"anthropic", "claude"},
		EnvKeys:        []string{"ANTHROPIC_API_KEY"},
		DisplayName:    "Anthropic",
		DefaultAPIBase: "https://api.anthropic.com/v1",
		DefaultModel:   "claude-3-5-haiku-20241022",
		Models: []string{
			"claude-opus-4-5-20251101",
			"claude-sonnet-4-20250514",
			"claude-3-5-sonnet-20241022",
			"claude-3-5-haiku-20241022",
		},
	},
	{
		Name:           "gemini",
		Kind:           schema.BackendGemini,
		Keywords:       []string{"gemini"},
		EnvKeys:        []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"},
		DisplayName:    "Gemini",
		DefaultAPIBase: "https://generativelanguage.googleapis.com/v1beta",
		DefaultModel:   "gemini-2.5-flash",
		Models: []string{
			"gemini-2.5-flash",
			"gemini-2.5-flash-lite",
			"gemini-2.5-pro",
			"gemini-3-flash-preview",
			"gemini-3-pro-preview",
		},
	},
}

// FindByModel matches a provider by model-name keyword (case-insensitive).
// An explicit "provider/" prefix wins over keywords.
func FindByModel(model string) *ProviderSpec {
	modelLower := strings.ToLower(model)
	if prefix, _, ok := strings.Cut(modelLower, "/"); ok {
		if s := FindByName(prefix); s != nil {
			return s
		}
	}
	for i := range Providers {
		spec := &Providers[i]
		for _, kw := range spec.Keywords {
			if strings.Contains(modelLower, kw) {
				return spec
			}
		}
	}
	return nil
}

// FindByName returns the ProviderSpec whose Name equals name.
func FindByName(name string) *ProviderSpec {
	for i := range Providers {
		if Providers[i].Name == name {
			return &Providers[i]
		}
	}
	return nil
}
