// Package config defines the configuration schema for tomekeeper.
//
// JSON keys use camelCase. A missing file means every default applies.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ProviderConfig holds credentials for one chat backend.
type ProviderConfig struct {
	APIKey       string            `json:"apiKey"`
	APIBase      string            `json:"apiBase,omitempty"`
	ExtraHeaders map[string]string `json:"extraHeaders,omitempty"`
}

// ProvidersConfig holds credentials for all supported backends.
type ProvidersConfig struct {
	Anthropic ProviderConfig `json:"anthropic"`
	Gemini    ProviderConfig `json:"gemini"`
}

// AgentDefaults holds default values for the conversation loop.
type AgentDefaults struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Mode        string  `json:"mode"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
	MaxToolIter int     `json:"maxToolIterations"`
	AutoConfirm bool    `json:"autoConfirm"`
	AutoSave    bool    `json:"autoSave"`
}

func defaultAgentDefaults() AgentDefaults {
	return AgentDefaults{
		Provider:    "anthropic",
		Mode:        "assistant",
		MaxTokens:   1024,
		Temperature: 0.7,
		MaxToolIter: 10,
		AutoSave:    true,
	}
}

// AgentsConfig wraps agent defaults.
type AgentsConfig struct {
	Defaults AgentDefaults `json:"defaults"`
}

// StorageConfig locates character files and transcripts.
type StorageConfig struct {
	DataDir     string `json:"dataDir"`
	SessionsDir string `json:"sessionsDir"`
	MaxBackups  int    `json:"maxBackups"`
}

func defaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:     "~/.tomekeeper/characters",
		SessionsDir: "~/.tomekeeper/sessions",
		MaxBackups:  5,
	}
}

// LogConfig selects the zap level and encoding.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // "console" or "json"
}

func defaultLogConfig() LogConfig {
	return LogConfig{Level: "info", Format: "console"}
}

// ---- Root config -----------------------------------------------------------

// Config is the root configuration object, loaded from ~/.tomekeeper/config.json.
type Config struct {
	Agents    AgentsConfig    `json:"agents"`
	Providers ProvidersConfig `json:"providers"`
	Storage   StorageConfig   `json:"storage"`
	Log       LogConfig       `json:"log"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Agents:    AgentsConfig{Defaults: defaultAgentDefaults()},
		Providers: ProvidersConfig{},
		Storage:   defaultStorageConfig(),
		Log:       defaultLogConfig(),
	}
}

// CharactersPath returns the expanded character directory.
func (c *Config) CharactersPath() string {
	return expandHome(stringOr(c.Storage.DataDir, defaultStorageConfig().DataDir))
}

// SessionsPath returns the expanded transcript directory.
func (c *Config) SessionsPath() string {
	return expandHome(stringOr(c.Storage.SessionsDir, defaultStorageConfig().SessionsDir))
}

// ProviderByName returns a pointer to the ProviderConfig field matching the
// given registry name. Returns nil if unknown.
func (c *Config) ProviderByName(name string) *ProviderConfig {
	switch name {
	case "anthropic":
		return &c.Providers.Anthropic
	case "gemini":
		return &c.Providers.Gemini
	}
	return nil
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}

func stringOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
