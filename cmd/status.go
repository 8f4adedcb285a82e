package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/tomekeeper/internal/config"
	"github.com/crystaldolphin/tomekeeper/internal/providers"
	"github.com/crystaldolphin/tomekeeper/internal/shared/cmdutils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tomekeeper status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	fmt.Printf("%s tomekeeper Status\n\n", cmdutils.Logo)

	_, statErr := os.Stat(cfgPath)
	fmt.Printf("Config:     %s %s\n", cfgPath, cmdutils.Mark(statErr == nil))

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	for _, d := range []struct{ label, path string }{
		{"Characters", cfg.CharactersPath()},
		{"Sessions", cfg.SessionsPath()},
	} {
		_, err := os.Stat(d.path)
		fmt.Printf("%-11s %s %s\n", d.label+":", d.path, cmdutils.Mark(err == nil))
	}

	match := cfg.MatchProvider(cfg.Agents.Defaults.Model)
	model := cfg.Agents.Defaults.Model
	if model == "" {
		if spec := providers.FindByName(match.Name); spec != nil {
			model = spec.DefaultModel
		}
	}
	fmt.Printf("Provider:   %s\n", match.Name)
	fmt.Printf("Model:      %s\n", model)
	fmt.Printf("Mode:       %s\n\n", cfg.Agents.Defaults.Mode)

	fmt.Println("Providers:")
	for _, spec := range providers.Providers {
		if cfg.APIKey(spec.Name) != "" {
			fmt.Printf("  %-20s ✓\n", spec.Label())
		} else {
			fmt.Printf("  %-20s (not set)\n", spec.Label())
		}
	}
	return nil
}
