package tools

import (
	"context"
	"fmt"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

var damageTypes = []string{
	"bludgeoning", "piercing", "slashing", "fire", "cold",
	"lightning", "thunder", "poison", "acid", "necrotic",
	"radiant", "force", "psychic",
}

func combatTools(roller Roller) []Tool {
	return []Tool{
		{
			Definition: define(ToolDealDamage,
				"Apply damage to the character. Temporary HP is consumed first, then regular HP.",
				schema.CategoryCombat, schema.RiskModerate,
				schema.Object(map[string]schema.Property{
					"amount":      schema.IntegerProp("Amount of damage to deal").Min(1),
					"damage_type": schema.StringProp("Type of damage").OneOf(damageTypes...),
					"source":      schema.StringProp("Source of the damage, e.g. 'Goblin attack'"),
				}, "amount")),
			Handler: Typed(dealDamage),
		},
		{
			Definition: define(ToolHealCharacter,
				"Restore hit points. Cannot exceed maximum HP. Resets death saves when healing from 0 HP.",
				schema.CategoryCombat, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"amount": schema.IntegerProp("Amount of HP to restore").Min(1),
					"source": schema.StringProp("Source of healing, e.g. 'Cure Wounds'"),
				}, "amount")),
			Handler: Typed(healCharacter),
		},
		{
			Definition: define(ToolTakeShortRest,
				"Apply short rest effects: restore short-rest features. Spend hit dice separately with spend_hit_die.",
				schema.CategoryCombat, schema.RiskSafe,
				schema.Object(nil)),
			Handler: Typed(takeShortRest),
		},
		{
			Definition: define(ToolTakeLongRest,
				"Apply long rest effects: full HP, half hit dice (minimum 1), all spell slots, long-rest features, death saves reset.",
				schema.CategoryCombat, schema.RiskSafe,
				schema.Object(nil)),
			Handler: Typed(takeLongRest),
		},
		{
			Definition: define(ToolSpendHitDie,
				"Spend hit dice to heal during a short rest. Rolls each die and adds the CON modifier, minimum 1 HP per die.",
				schema.CategoryCombat, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"die_type": schema.StringProp("Die to spend, e.g. d10. Defaults to the largest available").Match(`^d(4|6|8|10|12)$`),
					"count":    schema.IntegerProp("Number of dice to spend").Min(1),
				})),
			Handler: Typed(spendHitDie(roller)),
		},
		{
			Definition: define(ToolModifyDeathSaves,
				"Record a death saving throw result or reset death saves.",
				schema.CategoryCombat, schema.RiskModerate,
				schema.Object(map[string]schema.Property{
					"action": schema.StringProp("The death save result to record").
						OneOf("add_success", "add_failure", "add_crit_success", "add_crit_failure", "reset"),
				}, "action")),
			Handler: Typed(modifyDeathSaves),
		},
	}
}

type damageInput struct {
	Amount     int    `json:"amount"`
	DamageType string `json:"damage_type"`
	Source     string `json:"source"`
}

func dealDamage(_ context.Context, c *character.Character, in damageInput) (Result, error) {
	before := c.Combat.HitPoints.Current
	absorbed, taken := c.TakeDamage(in.Amount)
	hp := c.Combat.HitPoints

	var changes []string
	if absorbed > 0 {
		changes = append(changes, fmt.Sprintf("Absorbed %d damage with temporary HP", absorbed))
	}
	if taken > 0 {
		changes = append(changes, fmt.Sprintf("Took %d damage to HP", taken))
	}
	if len(changes) == 0 {
		msg := fmt.Sprintf("Dealt %d", in.Amount)
		if in.DamageType != "" {
			msg += " " + in.DamageType
		}
		msg += " damage"
		if in.Source != "" {
			msg += " from " + in.Source
		}
		changes = []string{msg}
	}

	return Result{
		Payload: map[string]any{
			"previous_hp":    before,
			"current_hp":     hp.Current,
			"maximum_hp":     hp.Maximum,
			"damage_dealt":   in.Amount,
			"damage_type":    in.DamageType,
			"source":         in.Source,
			"is_unconscious": hp.Unconscious(),
			"is_bloodied":    hp.Bloodied(),
		},
		Changes: changes,
	}, nil
}

type healInput struct {
	Amount int    `json:"amount"`
	Source string `json:"source"`
}

func healCharacter(_ context.Context, c *character.Character, in healInput) (Result, error) {
	before := c.Combat.HitPoints.Current
	wasDown := c.Combat.HitPoints.Unconscious()
	healed := c.Heal(in.Amount)

	changes := []string{fmt.Sprintf("Healed %d HP", healed)}
	if wasDown && !c.Combat.HitPoints.Unconscious() {
		changes = append(changes, "Character regained consciousness", "Death saves reset")
	}
	return Result{
		Payload: map[string]any{
			"previous_hp":   before,
			"current_hp":    c.Combat.HitPoints.Current,
			"maximum_hp":    c.Combat.HitPoints.Maximum,
			"amount_healed": healed,
			"source":        in.Source,
		},
		Changes: changes,
	}, nil
}

func takeShortRest(_ context.Context, c *character.Character, _ noInput) (Result, error) {
	spent := map[string]bool{}
	for _, f := range c.Features {
		if f.Used > 0 {
			spent[f.Name] = true
		}
	}
	restored := []string{}
	for _, name := range c.ShortRest() {
		if spent[name] {
			restored = append(restored, name)
		}
	}

	change := "Short rest completed"
	if len(restored) > 0 {
		change = fmt.Sprintf("Restored %d short-rest features", len(restored))
	}
	return Result{
		Payload: map[string]any{
			"features_restored":  restored,
			"hit_dice_available": c.HitDiceRemaining(),
		},
		Changes: []string{change},
	}, nil
}

func takeLongRest(_ context.Context, c *character.Character, _ noInput) (Result, error) {
	res := c.LongRest()
	hp := c.Combat.HitPoints
	return Result{
		Payload: map[string]any{
			"hp_restored":          res.HPRestored,
			"hit_dice_restored":    res.HitDiceRecovered,
			"current_hp":           hp.Current,
			"hit_dice_remaining":   c.HitDiceRemaining(),
			"spell_slots_restored": res.SlotsRestored,
			"features_recharged":   res.FeaturesRecharged,
		},
		Changes: []string{
			fmt.Sprintf("Restored HP to maximum (%d)", hp.Maximum),
			fmt.Sprintf("Restored %d hit dice", res.HitDiceRecovered),
			"Restored all spell slots",
			"Reset death saves",
		},
	}, nil
}

type hitDieInput struct {
	DieType string `json:"die_type"`
	Count   *int   `json:"count"`
}

type hitDieRoll struct {
	Die     string `json:"die"`
	Roll    int    `json:"roll"`
	ConMod  int    `json:"con_mod"`
	Healing int    `json:"healing"`
}

func spendHitDie(roller Roller) func(context.Context, *character.Character, hitDieInput) (Result, error) {
	return func(_ context.Context, c *character.Character, in hitDieInput) (Result, error) {
		con := c.Modifier(character.Constitution)
		rolls := []hitDieRoll{}
		total := 0
		for range intOr(in.Count, 1) {
			size, err := c.SpendHitDie(in.DieType)
			if err != nil {
				break
			}
			roll := roller.Roll(size)
			healing := max(1, roll+con)
			total += healing
			rolls = append(rolls, hitDieRoll{Die: character.DieName(size), Roll: roll, ConMod: con, Healing: healing})
		}
		if total > 0 {
			c.Heal(total)
		}

		changes := []string{"No hit dice available to spend"}
		if len(rolls) > 0 {
			changes = []string{
				fmt.Sprintf("Spent %d hit dice", len(rolls)),
				fmt.Sprintf("Healed %d HP", total),
			}
		}
		return Result{
			Payload: map[string]any{
				"dice_spent":         len(rolls),
				"rolls":              rolls,
				"total_healed":       total,
				"current_hp":         c.Combat.HitPoints.Current,
				"hit_dice_remaining": c.HitDiceRemaining(),
			},
			Changes: changes,
		}, nil
	}
}

type deathSaveInput struct {
	Action string `json:"action"`
}

func modifyDeathSaves(_ context.Context, c *character.Character, in deathSaveInput) (Result, error) {
	if err := c.RecordDeathSave(in.Action); err != nil {
		return Result{}, err
	}
	ds := c.Combat.DeathSaves
	change := fmt.Sprintf("Death saves: %d successes, %d failures", ds.Successes, ds.Failures)
	if ds.Stable() {
		change += " (STABLE)"
	}
	if ds.Dead() {
		change += " (DEAD)"
	}
	return Result{
		Payload: map[string]any{
			"successes":    ds.Successes,
			"failures":     ds.Failures,
			"is_stable":    ds.Stable(),
			"is_dead":      ds.Dead(),
			"action_taken": in.Action,
		},
		Changes: []string{change},
	}, nil
}
