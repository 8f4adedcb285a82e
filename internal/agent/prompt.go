package agent

import (
	"fmt"
	"strings"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
	"github.com/crystaldolphin/tomekeeper/internal/tools"
)

// Mode selects the persona of the system prompt.
type Mode string

const (
	ModeAssistant Mode = "assistant"
	ModeDM        Mode = "dm"
	ModeRoleplay  Mode = "roleplay"
	ModeRules     Mode = "rules"
)

// Modes lists the supported modes with a short description each.
var Modes = map[Mode]string{
	ModeAssistant: "General D&D assistant for rules, advice, and ideas",
	ModeDM:        "Dungeon Master assistant for encounters, NPCs, and worldbuilding",
	ModeRoleplay:  "Character roleplay helper for dialogue and actions",
	ModeRules:     "Rules expert for mechanics and edge cases",
}

var personas = map[Mode]string{
	ModeAssistant: `You are a helpful D&D 5e assistant. You help players with rules questions,
character building advice, spell and ability mechanics, tactical suggestions and roleplaying ideas.

Be concise but thorough. Reference specific rules when relevant.`,
	ModeDM: `You are an experienced Dungeon Master assistant. You help with encounter design and
balance, NPC creation and dialogue, world-building ideas, improvisation and session planning.

Be creative but practical. Offer multiple options when appropriate.`,
	ModeRoleplay: `You are helping a player roleplay their D&D character. Based on the character's
personality, background and situation, suggest dialogue, actions, reactions and development moments.

Stay true to the character's established traits and motivations.`,
	ModeRules: `You are a D&D 5e rules expert. Answer questions about combat, spellcasting, class
features, conditions and edge cases.

Be precise about mechanics. Note any differences between 2014 and 2024 rules if relevant.`,
}

// PromptBuilder assembles the system prompt from the persona, the tool
// catalog and the bound character.
type PromptBuilder struct {
	registry *tools.Registry
	mode     Mode
}

func NewPromptBuilder(registry *tools.Registry, mode Mode) *PromptBuilder {
	if _, ok := personas[mode]; !ok {
		mode = ModeAssistant
	}
	return &PromptBuilder{registry: registry, mode: mode}
}

// Build returns the system prompt. c may be nil.
func (pb *PromptBuilder) Build(c *character.Character) string {
	var sb strings.Builder
	sb.WriteString(personas[pb.mode])
	sb.WriteString("\n\n--- Using Your Tools ---\n")
	sb.WriteString("You manage the character's state through tools. Never edit the sheet by describing changes; call the tool.\n")

	for _, cat := range schema.Categories {
		defs := pb.registry.List(cat)
		if len(defs) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n%s:\n", strings.ToUpper(string(cat)))
		for _, d := range defs {
			fmt.Fprintf(&sb, "- %s: %s\n", d.Name, firstSentence(d.Description))
		}
	}

	sb.WriteString(`
RULES:
1. Use get_character_summary before suggesting changes based on current state
2. Explain changes before and after making them
3. Level-ups and removals need the user's confirmation; if a tool reports needs_confirmation, ask the user
4. If a tool returns an error, tell the user what went wrong rather than retrying blindly
`)

	if c != nil {
		sb.WriteString("\n--- Current Character ---\n")
		sb.WriteString(characterContext(c))
	} else {
		sb.WriteString("\nNo character is loaded. Tools that change a character will fail until one is.\n")
	}
	return sb.String()
}

func characterContext(c *character.Character) string {
	var sb strings.Builder
	sb.WriteString(c.Summary())
	sb.WriteByte('\n')
	if c.Background != "" {
		fmt.Fprintf(&sb, "Background: %s\n", c.Background)
	}

	scores := make([]string, 0, len(character.Abilities))
	for _, a := range character.Abilities {
		scores = append(scores, fmt.Sprintf("%s %d (%+d)", strings.ToUpper(a[:3]), c.Score(a), c.Modifier(a)))
	}
	fmt.Fprintf(&sb, "Abilities: %s\n", strings.Join(scores, ", "))
	fmt.Fprintf(&sb, "Proficiency bonus: %+d\n", c.ProficiencyBonus())
	fmt.Fprintf(&sb, "Hit dice: %d/%d remaining\n", c.HitDiceRemaining(), c.HitDiceTotal())

	if len(c.Spellcasting.Slots) > 0 {
		var slots []string
		for lvl := 1; lvl <= 9; lvl++ {
			if s, ok := c.Spellcasting.Slots[lvl]; ok && s.Total > 0 {
				slots = append(slots, fmt.Sprintf("L%d %d/%d", lvl, s.Remaining(), s.Total))
			}
		}
		if len(slots) > 0 {
			fmt.Fprintf(&sb, "Spell slots: %s\n", strings.Join(slots, ", "))
		}
	}
	if len(c.Spellcasting.Prepared) > 0 {
		fmt.Fprintf(&sb, "Prepared spells: %s\n", strings.Join(c.Spellcasting.Prepared, ", "))
	}
	if n := len(c.Features); n > 0 {
		names := make([]string, n)
		for i, f := range c.Features {
			names[i] = f.Name
		}
		fmt.Fprintf(&sb, "Features: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&sb, "Inventory: %d items, %d attuned\n", len(c.Equipment.Items), c.Equipment.AttunedCount())
	return sb.String()
}

func firstSentence(s string) string {
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	return s
}
