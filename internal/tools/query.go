package tools

import (
	"context"
	"fmt"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

func queryTools() []Tool {
	return []Tool{
		{
			Definition: define(ToolGetCharacterSummary,
				"Get a summary of the character including class, level, HP, AC and key stats. Use this to understand the character's current state before making changes.",
				schema.CategoryQuery, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"include_equipment": schema.BoolProp("Include equipped items and currency"),
					"include_spells":    schema.BoolProp("Include spellcasting information"),
				})),
			Handler: Typed(getCharacterSummary),
		},
		{
			Definition: define(ToolGetAbilityScores,
				"Get all six ability scores with base values, bonuses, totals and modifiers.",
				schema.CategoryQuery, schema.RiskSafe,
				schema.Object(nil)),
			Handler: Typed(getAbilityScores),
		},
		{
			Definition: define(ToolGetSpellSlots,
				"Get spell slot availability for each level, showing total, used and remaining slots.",
				schema.CategoryQuery, schema.RiskSafe,
				schema.Object(nil)),
			Handler: Typed(getSpellSlots),
		},
		{
			Definition: define(ToolGetInventory,
				"Get the character's inventory including items, currency and equipment status.",
				schema.CategoryQuery, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"filter_equipped": schema.BoolProp("Only show equipped items"),
					"filter_attuned":  schema.BoolProp("Only show attuned items"),
				})),
			Handler: Typed(getInventory),
		},
		{
			Definition: define(ToolCheckMulticlass,
				"Check whether the character meets the ability score requirements to multiclass into a class.",
				schema.CategoryQuery, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"target_class": classProp("The class to check requirements for"),
				}, "target_class")),
			Handler: Typed(checkMulticlass),
		},
	}
}

type summaryInput struct {
	IncludeEquipment bool `json:"include_equipment"`
	IncludeSpells    bool `json:"include_spells"`
}

func getCharacterSummary(_ context.Context, c *character.Character, in summaryInput) (Result, error) {
	hp := c.Combat.HitPoints
	out := map[string]any{
		"name":              c.Name,
		"class":             c.Class.Name,
		"subclass":          c.Class.Subclass,
		"level":             c.TotalLevel(),
		"race":              c.Race,
		"background":        c.Background,
		"hp":                map[string]int{"current": hp.Current, "maximum": hp.Maximum, "temporary": hp.Temporary},
		"ac":                c.Combat.ArmorClass,
		"speed":             c.Combat.Speed,
		"proficiency_bonus": c.ProficiencyBonus(),
		"hit_dice":          c.Combat.HitDice,
	}
	if len(c.Multiclass) > 0 {
		out["multiclass"] = c.Multiclass
	}
	if in.IncludeEquipment {
		equipped := []string{}
		for _, it := range c.Equipment.Items {
			if it.Equipped {
				equipped = append(equipped, it.Name)
			}
		}
		out["equipped_items"] = equipped
		out["currency"] = currencyMap(c.Equipment.Currency)
	}
	if in.IncludeSpells && c.Spellcasting.Ability != "" {
		mod := c.Modifier(c.Spellcasting.Ability)
		prepared := c.Spellcasting.Prepared
		if len(prepared) > 10 {
			prepared = prepared[:10]
		}
		out["spellcasting"] = map[string]any{
			"ability":            c.Spellcasting.Ability,
			"spell_save_dc":      8 + c.ProficiencyBonus() + mod,
			"spell_attack_bonus": c.ProficiencyBonus() + mod,
			"cantrips":           c.Spellcasting.Cantrips,
			"prepared":           prepared,
		}
	}
	return Result{Payload: out}, nil
}

type noInput struct{}

func getAbilityScores(_ context.Context, c *character.Character, _ noInput) (Result, error) {
	out := make(map[string]any, len(character.Abilities))
	for _, a := range character.Abilities {
		base, _ := c.Abilities.Base(a)
		total := c.Score(a)
		out[a] = map[string]int{
			"base":     base,
			"bonus":    total - base,
			"total":    total,
			"modifier": character.Modifier(total),
		}
	}
	return Result{Payload: out}, nil
}

func getSpellSlots(_ context.Context, c *character.Character, _ noInput) (Result, error) {
	slots := make(map[string]any, len(c.Spellcasting.Slots))
	for level, s := range c.Spellcasting.Slots {
		slots[fmt.Sprintf("level_%d", level)] = map[string]int{
			"total":     s.Total,
			"used":      s.Used,
			"remaining": s.Remaining(),
		}
	}
	return Result{Payload: map[string]any{
		"slots":            slots,
		"has_spellcasting": c.Spellcasting.Ability != "",
	}}, nil
}

type inventoryInput struct {
	FilterEquipped bool `json:"filter_equipped"`
	FilterAttuned  bool `json:"filter_attuned"`
}

func getInventory(_ context.Context, c *character.Character, in inventoryInput) (Result, error) {
	items := []character.InventoryItem{}
	for _, it := range c.Equipment.Items {
		if in.FilterEquipped && !it.Equipped {
			continue
		}
		if in.FilterAttuned && !it.Attuned {
			continue
		}
		items = append(items, it)
	}
	cur := map[string]any{}
	for k, v := range currencyMap(c.Equipment.Currency) {
		cur[k] = v
	}
	cur["total_gp"] = c.Equipment.Currency.TotalGP()
	return Result{Payload: map[string]any{
		"items":         items,
		"currency":      cur,
		"total_weight":  c.Equipment.TotalWeight(),
		"attuned_count": c.Equipment.AttunedCount(),
	}}, nil
}

type multiclassInput struct {
	TargetClass string `json:"target_class"`
}

func checkMulticlass(_ context.Context, c *character.Character, in multiclassInput) (Result, error) {
	ok, reason := c.CanMulticlassInto(in.TargetClass)
	return Result{Payload: map[string]any{
		"target_class":   in.TargetClass,
		"can_multiclass": ok,
		"reason":         reason,
		"current_level":  c.TotalLevel(),
	}}, nil
}
