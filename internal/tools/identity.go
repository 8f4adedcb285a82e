package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

func identityTools() []Tool {
	return []Tool{
		{
			Definition: define(ToolSetAbilityScore,
				"Set the base value of an ability score. Use for character creation or when changing base stats.",
				schema.CategoryIdentity, schema.RiskModerate,
				schema.Object(map[string]schema.Property{
					"ability": abilityProp("The ability to modify"),
					"value":   schema.IntegerProp("The new base value (typically 3-20, up to 30 with items)").Min(1).Max(30),
				}, "ability", "value")),
			Handler: Typed(setAbilityScore),
		},
		{
			Definition: define(ToolAddAbilityBonus,
				"Add a tracked bonus to an ability score from a temporary effect, magic item or other source.",
				schema.CategoryIdentity, schema.RiskModerate,
				schema.Object(map[string]schema.Property{
					"ability":        abilityProp("The ability to modify"),
					"bonus":          schema.IntegerProp("The bonus to add, negative for penalties"),
					"source":         schema.StringProp("Source of the bonus, e.g. 'Belt of Giant Strength'"),
					"is_override":    schema.BoolProp("Set the score to override_value instead of adding a bonus"),
					"override_value": schema.IntegerProp("Value to set when is_override is true").Min(1).Max(30),
				}, "ability", "bonus", "source")),
			Handler: Typed(addAbilityBonus),
		},
		{
			Definition: define(ToolLevelUp,
				"Increase the character's level by 1. For multiclass characters, specify which class to level. Updates HP and hit dice.",
				schema.CategoryIdentity, schema.RiskDestructive,
				schema.Object(map[string]schema.Property{
					"class_name": classProp("Class to gain a level in. Defaults to the primary class"),
					"hp_method":  schema.StringProp("How to determine HP gained").OneOf(character.HPAverage, character.HPMax),
				})),
			Handler: Typed(levelUp),
		},
		{
			Definition: define(ToolAddFeature,
				"Add a class feature, racial trait, feat or other ability to the character.",
				schema.CategoryIdentity, schema.RiskModerate,
				schema.Object(map[string]schema.Property{
					"name":        schema.StringProp("Name of the feature"),
					"source":      schema.StringProp("Source of the feature, e.g. 'Fighter', 'Feat'"),
					"description": schema.StringProp("What the feature does"),
					"uses":        schema.IntegerProp("Number of uses if limited; omit for unlimited").Min(1),
					"recharge":    schema.StringProp("When the feature recharges").OneOf("short rest", "long rest"),
				}, "name", "source", "description")),
			Handler: Typed(addFeature),
		},
		{
			Definition: define(ToolRemoveFeature,
				"Remove a feature from the character by name.",
				schema.CategoryIdentity, schema.RiskDestructive,
				schema.Object(map[string]schema.Property{
					"name": schema.StringProp("Name of the feature to remove"),
				}, "name")),
			Handler: Typed(removeFeature),
		},
	}
}

type abilityScoreInput struct {
	Ability string `json:"ability"`
	Value   int    `json:"value"`
}

func setAbilityScore(_ context.Context, c *character.Character, in abilityScoreInput) (Result, error) {
	oldBase, err := c.Abilities.Base(in.Ability)
	if err != nil {
		return Result{}, err
	}
	oldTotal := c.Score(in.Ability)
	if err := c.Abilities.SetBase(in.Ability, in.Value); err != nil {
		return Result{}, err
	}
	c.Touch()

	total := c.Score(in.Ability)
	mod := character.Modifier(total)
	return Result{
		Payload: map[string]any{
			"ability":      in.Ability,
			"old_base":     oldBase,
			"new_base":     in.Value,
			"old_total":    oldTotal,
			"new_total":    total,
			"new_modifier": mod,
		},
		Changes: []string{
			fmt.Sprintf("Set %s base from %d to %d", title(in.Ability), oldBase, in.Value),
			fmt.Sprintf("New total: %d (modifier: %+d)", total, mod),
		},
	}, nil
}

type abilityBonusInput struct {
	Ability       string `json:"ability"`
	Bonus         int    `json:"bonus"`
	Source        string `json:"source"`
	IsOverride    bool   `json:"is_override"`
	OverrideValue *int   `json:"override_value"`
}

func addAbilityBonus(_ context.Context, c *character.Character, in abilityBonusInput) (Result, error) {
	if in.IsOverride && in.OverrideValue == nil {
		return Result{}, fmt.Errorf("override_value is required when is_override is true")
	}
	c.StatBonuses = append(c.StatBonuses, character.StatBonus{
		Source:        in.Source,
		Ability:       in.Ability,
		Bonus:         in.Bonus,
		IsOverride:    in.IsOverride,
		OverrideValue: intOr(in.OverrideValue, 0),
	})
	c.Touch()

	change := fmt.Sprintf("Added %+d to %s from %s", in.Bonus, title(in.Ability), in.Source)
	if in.IsOverride {
		change = fmt.Sprintf("Set %s to %d from %s", title(in.Ability), *in.OverrideValue, in.Source)
	}
	total := c.Score(in.Ability)
	return Result{
		Payload: map[string]any{
			"ability":          in.Ability,
			"bonus_added":      in.Bonus,
			"source":           in.Source,
			"is_override":      in.IsOverride,
			"override_value":   in.OverrideValue,
			"current_total":    total,
			"current_modifier": character.Modifier(total),
		},
		Changes: []string{change},
	}, nil
}

type levelUpInput struct {
	ClassName string `json:"class_name"`
	HPMethod  string `json:"hp_method"`
}

func levelUp(_ context.Context, c *character.Character, in levelUpInput) (Result, error) {
	method := in.HPMethod
	if method == "" {
		method = character.HPAverage
	}
	res, err := c.LevelUp(in.ClassName, method)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Payload: res,
		Changes: []string{
			fmt.Sprintf("Leveled up to %s %d", res.ClassLeveled, res.ClassLevel),
			fmt.Sprintf("Total level: %d", res.NewLevel),
			fmt.Sprintf("Gained %d HP (now %d max)", res.HPGained, res.NewMaxHP),
		},
	}, nil
}

type featureInput struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Description string `json:"description"`
	Uses        *int   `json:"uses"`
	Recharge    string `json:"recharge"`
}

func addFeature(_ context.Context, c *character.Character, in featureInput) (Result, error) {
	c.Features = append(c.Features, character.Feature{
		Name:        in.Name,
		Source:      in.Source,
		Description: in.Description,
		Uses:        intOr(in.Uses, 0),
		Recharge:    in.Recharge,
	})
	c.Touch()
	return Result{
		Payload: map[string]any{
			"name":           in.Name,
			"source":         in.Source,
			"uses":           in.Uses,
			"recharge":       in.Recharge,
			"total_features": len(c.Features),
		},
		Changes: []string{fmt.Sprintf("Added feature: %s (%s)", in.Name, in.Source)},
	}, nil
}

type removeFeatureInput struct {
	Name string `json:"name"`
}

func removeFeature(_ context.Context, c *character.Character, in removeFeatureInput) (Result, error) {
	kept := c.Features[:0]
	removed := 0
	for _, f := range c.Features {
		if strings.EqualFold(f.Name, in.Name) {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	if removed == 0 {
		return Result{}, fmt.Errorf("Feature '%s' not found", in.Name)
	}
	c.Features = kept
	c.Touch()
	return Result{
		Payload: map[string]any{
			"name":               in.Name,
			"removed_count":      removed,
			"remaining_features": len(c.Features),
		},
		Changes: []string{"Removed feature: " + in.Name},
	}, nil
}
