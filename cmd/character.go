package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/store"
)

var (
	newClass string
	newRace  string
)

var characterCmd = &cobra.Command{
	Use:     "character",
	Aliases: []string{"char"},
	Short:   "Manage stored characters",
}

var characterNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a level 1 character",
	Args:  cobra.ExactArgs(1),
	RunE:  runCharacterNew,
}

var characterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored characters",
	RunE:  runCharacterList,
}

var characterShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a character sheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runCharacterShow,
}

func init() {
	characterNewCmd.Flags().StringVar(&newClass, "class", "Fighter", "Starting class")
	characterNewCmd.Flags().StringVar(&newRace, "race", "Human", "Race")

	characterCmd.AddCommand(characterNewCmd)
	characterCmd.AddCommand(characterListCmd)
	characterCmd.AddCommand(characterShowCmd)
}

func openStore() (*store.YAMLStore, error) {
	container, err := newContainer()
	if err != nil {
		return nil, err
	}
	return container.Store()
}

func runCharacterNew(_ *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return errors.New("character name is empty")
	}
	if !slices.Contains(character.Classes, newClass) {
		return fmt.Errorf("unknown class %q (one of %s)", newClass, strings.Join(character.Classes, ", "))
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	if _, err := st.Load(name); err == nil {
		return fmt.Errorf("character %q already exists", name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	c := character.New(name, newClass, newRace)
	if err := st.Save(c); err != nil {
		return err
	}
	fmt.Printf("✓ Created %s\n", c.Summary())
	return nil
}

func runCharacterList(_ *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	sums, err := st.Summaries(context.Background())
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		fmt.Println("No characters yet. Create one with: tomekeeper character new <name>")
		return nil
	}
	for _, s := range sums {
		fmt.Printf("%-24s %s  (%s)\n", s.Slug, s.Line, s.Modified.Format("2006-01-02 15:04"))
	}
	return nil
}

func runCharacterShow(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	c, err := st.Load(args[0])
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
