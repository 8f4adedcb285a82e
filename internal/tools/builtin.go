package tools

import (
	"strings"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

// Built-in tool names.
const (
	ToolGetCharacterSummary = "get_character_summary"
	ToolGetAbilityScores    = "get_ability_scores"
	ToolGetSpellSlots       = "get_spell_slots"
	ToolGetInventory        = "get_inventory"
	ToolCheckMulticlass     = "check_multiclass_requirements"
	ToolDealDamage          = "deal_damage"
	ToolHealCharacter       = "heal_character"
	ToolTakeShortRest       = "take_short_rest"
	ToolTakeLongRest        = "take_long_rest"
	ToolSpendHitDie         = "spend_hit_die"
	ToolModifyDeathSaves    = "modify_death_saves"
	ToolSetAbilityScore     = "set_ability_score"
	ToolAddAbilityBonus     = "add_ability_bonus"
	ToolLevelUp             = "level_up"
	ToolAddFeature          = "add_feature"
	ToolRemoveFeature       = "remove_feature"
	ToolAddSpell            = "add_spell"
	ToolRemoveSpell         = "remove_spell"
	ToolUseSpellSlot        = "use_spell_slot"
	ToolRestoreSpellSlot    = "restore_spell_slot"
	ToolAddItem             = "add_item"
	ToolRemoveItem          = "remove_item"
	ToolEquipItem           = "equip_item"
	ToolAttuneItem          = "attune_item"
	ToolModifyCurrency      = "modify_currency"
	ToolModifyCustomStat    = "modify_custom_stat"
	ToolAddNote             = "add_note"
	ToolSetPersonalityTrait = "set_personality_trait"
)

// Tool pairs a definition with its handler.
type Tool struct {
	Definition schema.ToolDefinition
	Handler    Handler
}

// Builtins returns the full character catalog. roller backs every dice roll;
// nil uses RandRoller.
func Builtins(roller Roller) []Tool {
	if roller == nil {
		roller = RandRoller{}
	}
	var all []Tool
	all = append(all, queryTools()...)
	all = append(all, combatTools(roller)...)
	all = append(all, identityTools()...)
	all = append(all, spellTools()...)
	all = append(all, inventoryTools()...)
	all = append(all, customTools()...)
	return all
}

// RegisterBuiltins registers the full catalog into r.
func RegisterBuiltins(r *Registry, roller Roller) error {
	for _, t := range Builtins(roller) {
		if err := r.Register(t.Definition, t.Handler); err != nil {
			return err
		}
	}
	return nil
}

func define(name, desc string, cat schema.Category, risk schema.RiskLevel, in schema.InputSchema) schema.ToolDefinition {
	return schema.ToolDefinition{
		Name:            name,
		Description:     desc,
		InputSchema:     in,
		Category:        cat,
		RiskLevel:       risk,
		RequiresSubject: true,
	}
}

func abilityProp(desc string) schema.Property {
	return schema.StringProp(desc).OneOf(character.Abilities...)
}

func classProp(desc string) schema.Property {
	return schema.StringProp(desc).OneOf(character.Classes...)
}

func spellListProp(desc string) schema.Property {
	return schema.StringProp(desc).OneOf("cantrips", "known", "prepared")
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func currencyMap(c character.Currency) map[string]int {
	return map[string]int{"cp": c.CP, "sp": c.SP, "ep": c.EP, "gp": c.GP, "pp": c.PP}
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func boolOr(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}
