package character

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMaxLevel is returned when a level up would exceed MaxLevel.
var ErrMaxLevel = fmt.Errorf("character is already at maximum level (%d)", MaxLevel)

// HP gain methods for LevelUp.
const (
	HPAverage = "average"
	HPMax     = "max"
)

type requirement struct {
	all []abilityMin
	any []abilityMin // at least one of these, when non-empty
}

type abilityMin struct {
	ability string
	min     int
}

var multiclassRequirements = map[string]requirement{
	"Barbarian": {all: []abilityMin{{Strength, 13}}},
	"Bard":      {all: []abilityMin{{Charisma, 13}}},
	"Cleric":    {all: []abilityMin{{Wisdom, 13}}},
	"Druid":     {all: []abilityMin{{Wisdom, 13}}},
	"Fighter":   {any: []abilityMin{{Strength, 13}, {Dexterity, 13}}},
	"Monk":      {all: []abilityMin{{Dexterity, 13}, {Wisdom, 13}}},
	"Paladin":   {all: []abilityMin{{Strength, 13}, {Charisma, 13}}},
	"Ranger":    {all: []abilityMin{{Dexterity, 13}, {Wisdom, 13}}},
	"Rogue":     {all: []abilityMin{{Dexterity, 13}}},
	"Sorcerer":  {all: []abilityMin{{Charisma, 13}}},
	"Warlock":   {all: []abilityMin{{Charisma, 13}}},
	"Wizard":    {all: []abilityMin{{Intelligence, 13}}},
}

func (c *Character) meets(className string) (bool, string) {
	req, ok := multiclassRequirements[className]
	if !ok {
		return true, ""
	}
	for _, r := range req.all {
		if have := c.Score(r.ability); have < r.min {
			return false, fmt.Sprintf("%s requires %s %d (have %d)", className, titleCase(r.ability), r.min, have)
		}
	}
	if len(req.any) > 0 {
		names := make([]string, 0, len(req.any))
		for _, r := range req.any {
			if c.Score(r.ability) >= r.min {
				return true, ""
			}
			names = append(names, fmt.Sprintf("%s %d", titleCase(r.ability), r.min))
		}
		return false, fmt.Sprintf("%s requires %s", className, strings.Join(names, " or "))
	}
	return true, ""
}

// CanMulticlassInto checks the prerequisites of every current class and of
// the target class. The reason explains a refusal or notes an existing class.
func (c *Character) CanMulticlassInto(className string) (bool, string) {
	if c.TotalLevel() >= MaxLevel {
		return false, ErrMaxLevel.Error()
	}
	current := c.ClassLevels()
	if _, ok := current[className]; ok {
		return true, fmt.Sprintf("already has levels in %s", className)
	}
	for name := range current {
		if ok, reason := c.meets(name); !ok {
			return false, reason
		}
	}
	if ok, reason := c.meets(className); !ok {
		return false, reason
	}
	return true, "requirements met"
}

// LevelUpResult describes a completed level up.
type LevelUpResult struct {
	OldLevel     int    `json:"old_level"`
	NewLevel     int    `json:"new_level"`
	ClassLeveled string `json:"class_leveled"`
	ClassLevel   int    `json:"class_level"`
	HPGained     int    `json:"hp_gained"`
	NewMaxHP     int    `json:"new_max_hp"`
}

// LevelUp adds one level in className (the primary class when empty).
// HP grows by the die average plus one, or the die maximum, plus the
// Constitution modifier, and never by less than 1.
func (c *Character) LevelUp(className, hpMethod string) (LevelUpResult, error) {
	if className == "" {
		className = c.Class.Name
	}
	old := c.TotalLevel()
	if old >= MaxLevel {
		return LevelUpResult{}, ErrMaxLevel
	}
	if className != c.Class.Name {
		if ok, reason := c.CanMulticlassInto(className); !ok {
			return LevelUpResult{}, errors.New("cannot multiclass: " + reason)
		}
	}

	die := HitDieFor(className)
	con := c.Modifier(Constitution)
	gain := die/2 + 1 + con
	if hpMethod == HPMax {
		gain = die + con
	}
	gain = max(1, gain)

	classLevel := 0
	if className == c.Class.Name {
		c.Class.Level++
		classLevel = c.Class.Level
	} else {
		found := false
		for i := range c.Multiclass {
			if c.Multiclass[i].Name == className {
				c.Multiclass[i].Level++
				classLevel = c.Multiclass[i].Level
				found = true
				break
			}
		}
		if !found {
			c.Multiclass = append(c.Multiclass, ClassLevel{Name: className, Level: 1})
			classLevel = 1
		}
	}

	c.Combat.HitPoints.Maximum += gain
	c.Combat.HitPoints.Current += gain
	c.AddHitDie(DieName(die))
	c.Touch()

	return LevelUpResult{
		OldLevel:     old,
		NewLevel:     c.TotalLevel(),
		ClassLeveled: className,
		ClassLevel:   classLevel,
		HPGained:     gain,
		NewMaxHP:     c.Combat.HitPoints.Maximum,
	}, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
