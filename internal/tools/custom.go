package tools

import (
	"context"
	"fmt"
	"slices"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

func customTools() []Tool {
	return []Tool{
		{
			Definition: define(ToolModifyCustomStat,
				"Modify a custom campaign stat like Luck, Renown, Piety or Sanity. Creates the stat if it does not exist.",
				schema.CategoryCustom, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"stat_name": schema.StringProp("Name of the custom stat"),
					"amount":    schema.IntegerProp("Amount to add (positive) or subtract (negative)"),
					"set_value": schema.IntegerProp("Set to a specific value instead of adjusting (overrides amount)"),
				}, "stat_name")),
			Handler: Typed(modifyCustomStat),
		},
		{
			Definition: define(ToolAddNote,
				"Add a note to the character's notes section.",
				schema.CategoryCustom, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"title":   schema.StringProp("Note title"),
					"content": schema.StringProp("Note content"),
					"tags":    schema.ArrayProp("Tags for the note", schema.StringProp("")),
				}, "title", "content")),
			Handler: Typed(addNote),
		},
		{
			Definition: define(ToolSetPersonalityTrait,
				"Set or add a personality trait, ideal, bond or flaw.",
				schema.CategoryCustom, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"trait_type": schema.StringProp("Type of trait").OneOf("trait", "ideal", "bond", "flaw"),
					"value":      schema.StringProp("The trait text"),
					"action":     schema.StringProp("Add to the existing entries or replace them all").OneOf("add", "replace"),
				}, "trait_type", "value")),
			Handler: Typed(setPersonalityTrait),
		},
	}
}

type customStatInput struct {
	StatName string `json:"stat_name"`
	Amount   *int   `json:"amount"`
	SetValue *int   `json:"set_value"`
}

func modifyCustomStat(_ context.Context, c *character.Character, in customStatInput) (Result, error) {
	var change string
	stat := c.FindCustomStat(in.StatName)
	if stat == nil {
		initial := intOr(in.SetValue, intOr(in.Amount, 0))
		c.CustomStats = append(c.CustomStats, character.CustomStat{Name: in.StatName, Value: initial})
		stat = &c.CustomStats[len(c.CustomStats)-1]
		change = fmt.Sprintf("Created custom stat '%s' with value %d", in.StatName, initial)
	} else {
		old := stat.Value
		switch {
		case in.SetValue != nil:
			stat.Value = stat.Clamp(*in.SetValue)
			change = fmt.Sprintf("Set %s from %d to %d", in.StatName, old, stat.Value)
		case in.Amount != nil:
			stat.Adjust(*in.Amount)
			change = fmt.Sprintf("Adjusted %s by %+d (now %d)", in.StatName, *in.Amount, stat.Value)
		default:
			change = fmt.Sprintf("%s unchanged (no amount or set_value provided)", in.StatName)
		}
	}
	c.Touch()
	return Result{
		Payload: map[string]any{
			"stat_name": stat.Name,
			"value":     stat.Value,
			"min_value": stat.MinValue,
			"max_value": stat.MaxValue,
		},
		Changes: []string{change},
	}, nil
}

type noteInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func addNote(_ context.Context, c *character.Character, in noteInput) (Result, error) {
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	note := c.AddNote(in.Title, in.Content, tags)
	return Result{
		Payload: map[string]any{
			"id":          note.ID,
			"title":       note.Title,
			"tags":        tags,
			"total_notes": len(c.Notes),
		},
		Changes: []string{"Added note: " + in.Title},
	}, nil
}

type traitInput struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
	Action    string `json:"action"`
}

func setPersonalityTrait(_ context.Context, c *character.Character, in traitInput) (Result, error) {
	action := in.Action
	if action == "" {
		action = "add"
	}
	list, err := c.Personality.List(in.TraitType)
	if err != nil {
		return Result{}, err
	}
	if action == "replace" {
		*list = nil
	}
	if !slices.Contains(*list, in.Value) {
		*list = append(*list, in.Value)
	}
	c.Touch()

	verb := "Added"
	if action == "replace" {
		verb = "Replaced all with"
	}
	return Result{
		Payload: map[string]any{
			"trait_type": in.TraitType,
			"value":      in.Value,
			"action":     action,
			"all_values": slices.Clone(*list),
		},
		Changes: []string{fmt.Sprintf("%s %s: %s", verb, in.TraitType, in.Value)},
	}, nil
}
