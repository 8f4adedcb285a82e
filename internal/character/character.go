// Package character models the record that tools read and mutate.
package character

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxLevel is the highest total character level.
const MaxLevel = 20

// Ability names, in sheet order.
const (
	Strength     = "strength"
	Dexterity    = "dexterity"
	Constitution = "constitution"
	Intelligence = "intelligence"
	Wisdom       = "wisdom"
	Charisma     = "charisma"
)

var Abilities = []string{Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma}

// Classes lists the supported class names.
var Classes = []string{
	"Barbarian", "Bard", "Cleric", "Druid", "Fighter",
	"Monk", "Paladin", "Ranger", "Rogue", "Sorcerer",
	"Warlock", "Wizard",
}

// ClassLevel is one class and the levels taken in it.
type ClassLevel struct {
	Name     string `yaml:"name" json:"name"`
	Level    int    `yaml:"level" json:"level"`
	Subclass string `yaml:"subclass,omitempty" json:"subclass,omitempty"`
}

// AbilityScores holds base scores before bonuses.
type AbilityScores struct {
	Strength     int `yaml:"strength" json:"strength"`
	Dexterity    int `yaml:"dexterity" json:"dexterity"`
	Constitution int `yaml:"constitution" json:"constitution"`
	Intelligence int `yaml:"intelligence" json:"intelligence"`
	Wisdom       int `yaml:"wisdom" json:"wisdom"`
	Charisma     int `yaml:"charisma" json:"charisma"`
}

func (a *AbilityScores) field(ability string) (*int, error) {
	switch strings.ToLower(ability) {
	case Strength:
		return &a.Strength, nil
	case Dexterity:
		return &a.Dexterity, nil
	case Constitution:
		return &a.Constitution, nil
	case Intelligence:
		return &a.Intelligence, nil
	case Wisdom:
		return &a.Wisdom, nil
	case Charisma:
		return &a.Charisma, nil
	}
	return nil, fmt.Errorf("unknown ability: %s", ability)
}

// Base returns the base score for ability.
func (a *AbilityScores) Base(ability string) (int, error) {
	p, err := a.field(ability)
	if err != nil {
		return 0, err
	}
	return *p, nil
}

// SetBase replaces the base score for ability.
func (a *AbilityScores) SetBase(ability string, v int) error {
	p, err := a.field(ability)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// StatBonus is a tracked modification to one ability score.
type StatBonus struct {
	Source        string `yaml:"source" json:"source"`
	Ability       string `yaml:"ability" json:"ability"`
	Bonus         int    `yaml:"bonus" json:"bonus"`
	IsOverride    bool   `yaml:"is_override,omitempty" json:"is_override,omitempty"`
	OverrideValue int    `yaml:"override_value,omitempty" json:"override_value,omitempty"`
}

// Feature is a class feature, racial trait or feat. Uses of 0 means unlimited.
type Feature struct {
	Name        string `yaml:"name" json:"name"`
	Source      string `yaml:"source" json:"source"`
	Description string `yaml:"description" json:"description"`
	Uses        int    `yaml:"uses,omitempty" json:"uses,omitempty"`
	Used        int    `yaml:"used,omitempty" json:"used,omitempty"`
	Recharge    string `yaml:"recharge,omitempty" json:"recharge,omitempty"`
}

// Personality groups the roleplaying descriptors.
type Personality struct {
	Traits []string `yaml:"traits" json:"traits"`
	Ideals []string `yaml:"ideals" json:"ideals"`
	Bonds  []string `yaml:"bonds" json:"bonds"`
	Flaws  []string `yaml:"flaws" json:"flaws"`
}

// List returns the slice for traitType: trait, ideal, bond or flaw.
func (p *Personality) List(traitType string) (*[]string, error) {
	switch traitType {
	case "trait":
		return &p.Traits, nil
	case "ideal":
		return &p.Ideals, nil
	case "bond":
		return &p.Bonds, nil
	case "flaw":
		return &p.Flaws, nil
	}
	return nil, fmt.Errorf("unknown trait type: %s", traitType)
}

// Note is a free-form entry in the notes section.
type Note struct {
	ID      string    `yaml:"id" json:"id"`
	Title   string    `yaml:"title" json:"title"`
	Content string    `yaml:"content" json:"content"`
	Tags    []string  `yaml:"tags,omitempty" json:"tags,omitempty"`
	Created time.Time `yaml:"created" json:"created"`
}

// CustomStat tracks a campaign-specific value such as Luck or Renown.
type CustomStat struct {
	Name        string `yaml:"name" json:"name"`
	Value       int    `yaml:"value" json:"value"`
	MinValue    *int   `yaml:"min_value,omitempty" json:"min_value,omitempty"`
	MaxValue    *int   `yaml:"max_value,omitempty" json:"max_value,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Clamp bounds v to the stat's limits.
func (s *CustomStat) Clamp(v int) int {
	if s.MinValue != nil && v < *s.MinValue {
		v = *s.MinValue
	}
	if s.MaxValue != nil && v > *s.MaxValue {
		v = *s.MaxValue
	}
	return v
}

// Adjust adds amount within the stat's limits and returns the new value.
func (s *CustomStat) Adjust(amount int) int {
	s.Value = s.Clamp(s.Value + amount)
	return s.Value
}

// Spellcasting holds spell lists and slots. Slots are keyed by spell level.
type Spellcasting struct {
	Ability  string             `yaml:"ability,omitempty" json:"ability,omitempty"`
	Cantrips []string           `yaml:"cantrips" json:"cantrips"`
	Known    []string           `yaml:"known" json:"known"`
	Prepared []string           `yaml:"prepared" json:"prepared"`
	Slots    map[int]*SpellSlot `yaml:"slots" json:"slots"`
}

// List returns the spell list named listType: cantrips, known or prepared.
func (s *Spellcasting) List(listType string) (*[]string, error) {
	switch listType {
	case "cantrips":
		return &s.Cantrips, nil
	case "known":
		return &s.Known, nil
	case "prepared":
		return &s.Prepared, nil
	}
	return nil, fmt.Errorf("unknown list type: %s", listType)
}

// SpellSlot tracks slots of a single spell level.
type SpellSlot struct {
	Total int `yaml:"total" json:"total"`
	Used  int `yaml:"used" json:"used"`
}

func (s *SpellSlot) Remaining() int { return s.Total - s.Used }

// Use spends one slot. It returns false when none remain.
func (s *SpellSlot) Use() bool {
	if s.Remaining() <= 0 {
		return false
	}
	s.Used++
	return true
}

// Restore recovers up to n used slots.
func (s *SpellSlot) Restore(n int) {
	s.Used -= n
	if s.Used < 0 {
		s.Used = 0
	}
}

func (s *SpellSlot) RestoreAll() { s.Used = 0 }

// Meta records bookkeeping timestamps.
type Meta struct {
	Created  time.Time `yaml:"created" json:"created"`
	Modified time.Time `yaml:"modified" json:"modified"`
}

// Character is the full record a session operates on.
type Character struct {
	ID           string        `yaml:"id" json:"id"`
	Name         string        `yaml:"name" json:"name"`
	Race         string        `yaml:"race,omitempty" json:"race,omitempty"`
	Background   string        `yaml:"background,omitempty" json:"background,omitempty"`
	Class        ClassLevel    `yaml:"class" json:"class"`
	Multiclass   []ClassLevel  `yaml:"multiclass,omitempty" json:"multiclass,omitempty"`
	Abilities    AbilityScores `yaml:"abilities" json:"abilities"`
	StatBonuses  []StatBonus   `yaml:"stat_bonuses,omitempty" json:"stat_bonuses,omitempty"`
	Combat       Combat        `yaml:"combat" json:"combat"`
	Spellcasting Spellcasting  `yaml:"spellcasting" json:"spellcasting"`
	Equipment    Equipment     `yaml:"equipment" json:"equipment"`
	Features     []Feature     `yaml:"features,omitempty" json:"features,omitempty"`
	Personality  Personality   `yaml:"personality" json:"personality"`
	Notes        []Note        `yaml:"notes,omitempty" json:"notes,omitempty"`
	CustomStats  []CustomStat  `yaml:"custom_stats,omitempty" json:"custom_stats,omitempty"`
	Meta         Meta          `yaml:"meta" json:"meta"`
}

// New creates a level 1 character with average scores, full hit points and
// one hit die of the class's size.
func New(name, className, race string) *Character {
	now := time.Now()
	die := HitDieFor(className)
	c := &Character{
		ID:        uuid.NewString(),
		Name:      name,
		Race:      race,
		Class:     ClassLevel{Name: className, Level: 1},
		Abilities: AbilityScores{10, 10, 10, 10, 10, 10},
		Combat: Combat{
			ArmorClass: 10,
			Speed:      30,
			HitPoints:  HitPoints{Maximum: die, Current: die},
			HitDice:    []HitDice{{Die: DieName(die), Total: 1, Remaining: 1}},
		},
		Spellcasting: Spellcasting{Slots: map[int]*SpellSlot{}},
		Meta:         Meta{Created: now, Modified: now},
	}
	return c
}

// Touch records a modification.
func (c *Character) Touch() { c.Meta.Modified = time.Now() }

// TotalLevel sums the primary class and every multiclass level.
func (c *Character) TotalLevel() int {
	total := c.Class.Level
	for _, mc := range c.Multiclass {
		total += mc.Level
	}
	return total
}

// ClassLevels maps class name to levels taken.
func (c *Character) ClassLevels() map[string]int {
	out := map[string]int{c.Class.Name: c.Class.Level}
	for _, mc := range c.Multiclass {
		out[mc.Name] += mc.Level
	}
	return out
}

// ProficiencyBonus follows the standard +2 at level 1, +1 every four levels.
func (c *Character) ProficiencyBonus() int {
	lvl := c.TotalLevel()
	if lvl < 1 {
		lvl = 1
	}
	return 2 + (lvl-1)/4
}

// Score returns the effective ability score including tracked bonuses.
// Overrides raise the score to the override value when it is higher.
func (c *Character) Score(ability string) int {
	base, err := c.Abilities.Base(ability)
	if err != nil {
		return 0
	}
	total := base
	override := 0
	for _, b := range c.StatBonuses {
		if !strings.EqualFold(b.Ability, ability) {
			continue
		}
		if b.IsOverride {
			if b.OverrideValue > override {
				override = b.OverrideValue
			}
			continue
		}
		total += b.Bonus
	}
	if override > total {
		total = override
	}
	return total
}

// Modifier returns the ability modifier for the effective score.
func (c *Character) Modifier(ability string) int { return Modifier(c.Score(ability)) }

// Modifier converts a score to its modifier, rounding down.
func Modifier(score int) int {
	d := score - 10
	if d < 0 {
		return -((-d + 1) / 2)
	}
	return d / 2
}

// FindFeature returns the feature named name, case-insensitively.
func (c *Character) FindFeature(name string) *Feature {
	for i := range c.Features {
		if strings.EqualFold(c.Features[i].Name, name) {
			return &c.Features[i]
		}
	}
	return nil
}

// FindCustomStat returns the custom stat named name, case-insensitively.
func (c *Character) FindCustomStat(name string) *CustomStat {
	for i := range c.CustomStats {
		if strings.EqualFold(c.CustomStats[i].Name, name) {
			return &c.CustomStats[i]
		}
	}
	return nil
}

// AddNote appends a note and returns it.
func (c *Character) AddNote(title, content string, tags []string) Note {
	n := Note{ID: uuid.NewString(), Title: title, Content: content, Tags: tags, Created: time.Now()}
	c.Notes = append(c.Notes, n)
	c.Touch()
	return n
}

// Summary is a one-line description used in prompts and listings.
func (c *Character) Summary() string {
	classes := fmt.Sprintf("%s %d", c.Class.Name, c.Class.Level)
	for _, mc := range c.Multiclass {
		classes += fmt.Sprintf(" / %s %d", mc.Name, mc.Level)
	}
	hp := c.Combat.HitPoints
	return fmt.Sprintf("%s, %s %s (level %d), HP %d/%d, AC %d",
		c.Name, c.Race, classes, c.TotalLevel(), hp.Current, hp.Maximum, c.Combat.ArmorClass)
}
