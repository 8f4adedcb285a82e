package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

var (
	toolsCategory string
	toolsBackend  string
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect the tool catalog",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tools",
	RunE:  runToolsList,
}

var toolsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print tool declarations in a backend's wire format",
	RunE:  runToolsExport,
}

var toolsValidateCmd = &cobra.Command{
	Use:   "validate <tool> <json-input>",
	Short: "Validate an input object against a tool's JSON Schema",
	Args:  cobra.ExactArgs(2),
	RunE:  runToolsValidate,
}

func init() {
	toolsListCmd.Flags().StringVar(&toolsCategory, "category", "", "Only list one category (query, mutate-combat, ...)")
	toolsExportCmd.Flags().StringVar(&toolsBackend, "backend", string(schema.BackendAnthropic), "Wire format: anthropic or gemini")

	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsExportCmd)
	toolsCmd.AddCommand(toolsValidateCmd)
}

func runToolsList(_ *cobra.Command, _ []string) error {
	container, err := newContainer()
	if err != nil {
		return err
	}
	registry, err := container.Registry()
	if err != nil {
		return err
	}

	var cats []schema.Category
	if toolsCategory != "" {
		cats = append(cats, schema.Category(toolsCategory))
	}
	defs := registry.List(cats...)
	if len(defs) == 0 {
		fmt.Println("No tools.")
		return nil
	}

	for _, d := range defs {
		fmt.Printf("%-30s %-17s %-12s %s\n", d.Name, d.Category, d.RiskLevel, firstSentence(d.Description))
	}
	fmt.Printf("\n%d tools\n", len(defs))
	return nil
}

func runToolsExport(_ *cobra.Command, _ []string) error {
	container, err := newContainer()
	if err != nil {
		return err
	}
	registry, err := container.Registry()
	if err != nil {
		return err
	}

	decls, err := registry.Export(schema.BackendKind(toolsBackend))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(decls)
}

func runToolsValidate(_ *cobra.Command, args []string) error {
	container, err := newContainer()
	if err != nil {
		return err
	}
	registry, err := container.Registry()
	if err != nil {
		return err
	}

	if _, ok := registry.Get(args[0]); !ok {
		return fmt.Errorf("unknown tool %q (known: %s)", args[0], strings.Join(registry.Names(), ", "))
	}

	var input map[string]any
	if err := json.Unmarshal([]byte(args[1]), &input); err != nil {
		return fmt.Errorf("input is not a JSON object: %w", err)
	}
	if err := registry.ValidateStrict(args[0], input); err != nil {
		return err
	}
	fmt.Println("✓ valid")
	return nil
}

func firstSentence(s string) string {
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	return s
}
