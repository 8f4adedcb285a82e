package tools

import (
	"context"
	"fmt"
	"slices"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

func spellTools() []Tool {
	return []Tool{
		{
			Definition: define(ToolAddSpell,
				"Add a spell to the character's known, prepared or cantrip list.",
				schema.CategorySpells, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"spell_name": schema.StringProp("Name of the spell to add"),
					"list_type":  spellListProp("Which list to add to. Defaults to known"),
				}, "spell_name")),
			Handler: Typed(addSpell),
		},
		{
			Definition: define(ToolRemoveSpell,
				"Remove a spell from one of the character's spell lists.",
				schema.CategorySpells, schema.RiskModerate,
				schema.Object(map[string]schema.Property{
					"spell_name": schema.StringProp("Name of the spell to remove"),
					"list_type":  spellListProp("Which list to remove from. Defaults to prepared"),
				}, "spell_name")),
			Handler: Typed(removeSpell),
		},
		{
			Definition: define(ToolUseSpellSlot,
				"Use a spell slot of a specific level.",
				schema.CategorySpells, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"level": schema.IntegerProp("Spell slot level to use").Min(1).Max(9),
				}, "level")),
			Handler: Typed(useSpellSlot),
		},
		{
			Definition: define(ToolRestoreSpellSlot,
				"Restore used spell slots, e.g. from Arcane Recovery.",
				schema.CategorySpells, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"level": schema.IntegerProp("Spell slot level to restore").Min(1).Max(9),
					"count": schema.IntegerProp("Number of slots to restore").Min(1),
				}, "level")),
			Handler: Typed(restoreSpellSlot),
		},
	}
}

type spellInput struct {
	SpellName string `json:"spell_name"`
	ListType  string `json:"list_type"`
}

func addSpell(_ context.Context, c *character.Character, in spellInput) (Result, error) {
	listType := in.ListType
	if listType == "" {
		listType = "known"
	}
	list, err := c.Spellcasting.List(listType)
	if err != nil {
		return Result{}, err
	}
	if slices.Contains(*list, in.SpellName) {
		return Result{
			Payload: map[string]any{"spell_name": in.SpellName, "list_type": listType, "already_present": true},
			Changes: []string{fmt.Sprintf("%s is already in %s", in.SpellName, listType)},
		}, nil
	}
	*list = append(*list, in.SpellName)
	c.Touch()
	return Result{
		Payload: map[string]any{"spell_name": in.SpellName, "list_type": listType, "total_in_list": len(*list)},
		Changes: []string{fmt.Sprintf("Added %s to %s", in.SpellName, listType)},
	}, nil
}

func removeSpell(_ context.Context, c *character.Character, in spellInput) (Result, error) {
	listType := in.ListType
	if listType == "" {
		listType = "prepared"
	}
	list, err := c.Spellcasting.List(listType)
	if err != nil {
		return Result{}, err
	}
	i := slices.Index(*list, in.SpellName)
	if i < 0 {
		return Result{}, fmt.Errorf("Spell '%s' not found in %s", in.SpellName, listType)
	}
	*list = slices.Delete(*list, i, i+1)
	c.Touch()
	return Result{
		Payload: map[string]any{"spell_name": in.SpellName, "list_type": listType, "remaining_in_list": len(*list)},
		Changes: []string{fmt.Sprintf("Removed %s from %s", in.SpellName, listType)},
	}, nil
}

type slotInput struct {
	Level int  `json:"level"`
	Count *int `json:"count"`
}

func useSpellSlot(_ context.Context, c *character.Character, in slotInput) (Result, error) {
	slot, ok := c.Spellcasting.Slots[in.Level]
	if !ok || slot == nil {
		return Result{}, fmt.Errorf("No spell slots of level %d", in.Level)
	}
	if !slot.Use() {
		return Result{}, fmt.Errorf("No level %d spell slots remaining", in.Level)
	}
	c.Touch()
	return Result{
		Payload: map[string]any{"level": in.Level, "slots_remaining": slot.Remaining(), "slots_total": slot.Total},
		Changes: []string{fmt.Sprintf("Used level %d spell slot (%d/%d remaining)", in.Level, slot.Remaining(), slot.Total)},
	}, nil
}

func restoreSpellSlot(_ context.Context, c *character.Character, in slotInput) (Result, error) {
	slot, ok := c.Spellcasting.Slots[in.Level]
	if !ok || slot == nil {
		return Result{}, fmt.Errorf("No spell slots of level %d", in.Level)
	}
	before := slot.Remaining()
	slot.Restore(intOr(in.Count, 1))
	restored := slot.Remaining() - before
	c.Touch()
	return Result{
		Payload: map[string]any{
			"level":           in.Level,
			"slots_restored":  restored,
			"slots_remaining": slot.Remaining(),
			"slots_total":     slot.Total,
		},
		Changes: []string{fmt.Sprintf("Restored %d level %d spell slot(s) (%d/%d)", restored, in.Level, slot.Remaining(), slot.Total)},
	}, nil
}
