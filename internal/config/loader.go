package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const appDir = "~/.tomekeeper"

// ConfigPath returns ~/.tomekeeper/config.json, or a path relative to the
// working directory when the home directory is unknown.
func ConfigPath() string {
	dir := expandHome(appDir)
	if dir == appDir {
		dir = ".tomekeeper"
	}
	return filepath.Join(dir, "config.json")
}

func pathOrDefault(path string) string {
	if path == "" {
		return ConfigPath()
	}
	return path
}

// Load reads the config at path (ConfigPath when empty). A missing file
// yields the defaults. A malformed file is logged and also yields the
// defaults, so a typo never blocks the CLI.
func Load(path string, logger *zap.Logger) (*Config, error) {
	path = pathOrDefault(path)
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return &cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		logger.Warn("failed to parse config, using defaults", zap.String("path", path), zap.Error(err))
		cfg = DefaultConfig()
		return &cfg, nil
	}
	cfg.normalize(logger)
	return &cfg, nil
}

// normalize replaces out-of-range loop and storage settings with defaults.
func (c *Config) normalize(logger *zap.Logger) {
	def := DefaultConfig()
	d := &c.Agents.Defaults
	fix := func(field string, bad bool, reset func()) {
		if bad {
			reset()
			logger.Warn("invalid config value, using default", zap.String("field", field))
		}
	}
	fix("agents.defaults.maxToolIterations", d.MaxToolIter <= 0, func() { d.MaxToolIter = def.Agents.Defaults.MaxToolIter })
	fix("agents.defaults.maxTokens", d.MaxTokens <= 0, func() { d.MaxTokens = def.Agents.Defaults.MaxTokens })
	fix("agents.defaults.temperature", d.Temperature < 0 || d.Temperature > 2, func() { d.Temperature = def.Agents.Defaults.Temperature })
	fix("storage.maxBackups", c.Storage.MaxBackups < 0, func() { c.Storage.MaxBackups = def.Storage.MaxBackups })
}

// Save writes cfg as indented JSON with mode 0600, replacing the file
// atomically so a crash never leaves half a config behind.
func Save(cfg *Config, path string) error {
	path = pathOrDefault(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config %s: %w", path, err)
	}
	return nil
}
