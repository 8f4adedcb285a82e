package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/tomekeeper/internal/config"
	"github.com/crystaldolphin/tomekeeper/internal/shared/cmdutils"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and data directories",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	var cfg *config.Config
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config already exists at %s\n", cfgPath)
		fmt.Printf("Press Enter to refresh (keep existing values) or Ctrl+C to cancel: ")
		fmt.Scanln()
		existing, loadErr := loadConfig()
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		cfg = existing
		if err := config.Save(cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		def := config.DefaultConfig()
		cfg = &def
		if err := config.Save(cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	for _, dir := range []string{cfg.CharactersPath(), cfg.SessionsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		fmt.Printf("✓ Directory %s\n", dir)
	}

	fmt.Printf("\n%s tomekeeper is ready!\n\n", cmdutils.Logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add an API key to %s (or set ANTHROPIC_API_KEY / GEMINI_API_KEY)\n", cfgPath)
	fmt.Println("  2. Create a character: tomekeeper character new \"Thorin\" --class Fighter --race Dwarf")
	fmt.Println("  3. Chat: tomekeeper chat --character Thorin -m \"Show my stats\"")
	return nil
}
