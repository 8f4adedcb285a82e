package character

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// HitPoints tracks current, maximum and temporary hit points.
type HitPoints struct {
	Maximum   int `yaml:"maximum" json:"maximum"`
	Current   int `yaml:"current" json:"current"`
	Temporary int `yaml:"temporary" json:"temporary"`
}

func (hp HitPoints) Bloodied() bool    { return hp.Current <= hp.Maximum/2 }
func (hp HitPoints) Unconscious() bool { return hp.Current <= 0 }

// HitDice is the pool for one die size, e.g. d10.
type HitDice struct {
	Die       string `yaml:"die" json:"die"`
	Total     int    `yaml:"total" json:"total"`
	Remaining int    `yaml:"remaining" json:"remaining"`
}

// Size returns the number of faces, e.g. 10 for d10.
func (h HitDice) Size() int { return DieSize(h.Die) }

// DeathSaves counts death saving throws.
type DeathSaves struct {
	Successes int `yaml:"successes" json:"successes"`
	Failures  int `yaml:"failures" json:"failures"`
}

func (d DeathSaves) Stable() bool { return d.Successes >= 3 }
func (d DeathSaves) Dead() bool   { return d.Failures >= 3 }

func (d *DeathSaves) Reset() { d.Successes, d.Failures = 0, 0 }

// Combat groups the fight-related parts of the sheet.
type Combat struct {
	ArmorClass int        `yaml:"armor_class" json:"armor_class"`
	Speed      int        `yaml:"speed" json:"speed"`
	HitPoints  HitPoints  `yaml:"hit_points" json:"hit_points"`
	HitDice    []HitDice  `yaml:"hit_dice" json:"hit_dice"`
	DeathSaves DeathSaves `yaml:"death_saves" json:"death_saves"`
}

var classHitDie = map[string]int{
	"Barbarian": 12,
	"Fighter":   10, "Paladin": 10, "Ranger": 10,
	"Bard": 8, "Cleric": 8, "Druid": 8, "Monk": 8, "Rogue": 8, "Warlock": 8,
	"Sorcerer": 6, "Wizard": 6,
}

// HitDieFor returns the hit die size for className, defaulting to 8.
func HitDieFor(className string) int {
	if d, ok := classHitDie[className]; ok {
		return d
	}
	return 8
}

// DieName formats a die size as "dN".
func DieName(size int) string { return "d" + strconv.Itoa(size) }

// DieSize parses "dN", returning 0 when malformed.
func DieSize(die string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(die), "d"))
	if err != nil {
		return 0
	}
	return n
}

// TakeDamage consumes temporary hit points first and floors current at 0.
// It returns how much temporary HP absorbed and how much reached current HP.
func (c *Character) TakeDamage(amount int) (absorbed, taken int) {
	hp := &c.Combat.HitPoints
	if hp.Temporary > 0 {
		absorbed = min(hp.Temporary, amount)
		hp.Temporary -= absorbed
		amount -= absorbed
	}
	before := hp.Current
	hp.Current = max(0, hp.Current-amount)
	c.Touch()
	return absorbed, before - hp.Current
}

// Heal restores up to amount hit points without exceeding the maximum and
// returns the amount actually healed. Death saves reset once above 0.
func (c *Character) Heal(amount int) int {
	hp := &c.Combat.HitPoints
	before := hp.Current
	hp.Current = min(hp.Maximum, hp.Current+amount)
	if hp.Current > 0 {
		c.Combat.DeathSaves.Reset()
	}
	c.Touch()
	return hp.Current - before
}

// ShortRest resets short-rest features and returns their names.
func (c *Character) ShortRest() []string {
	var reset []string
	for i := range c.Features {
		f := &c.Features[i]
		if f.Uses > 0 && isRecharge(f.Recharge, "short") {
			f.Used = 0
			reset = append(reset, f.Name)
		}
	}
	c.Touch()
	return reset
}

// LongRestResult summarises what a long rest restored.
type LongRestResult struct {
	HPRestored        int      `json:"hp_restored"`
	HitDiceRecovered  int      `json:"hit_dice_recovered"`
	SlotsRestored     int      `json:"slots_restored"`
	FeaturesRecharged []string `json:"features_recharged"`
}

// LongRest restores full HP, clears temporary HP, recovers half the hit dice
// (minimum one), restores every spell slot and feature and resets death saves.
func (c *Character) LongRest() LongRestResult {
	var res LongRestResult
	hp := &c.Combat.HitPoints
	res.HPRestored = hp.Maximum - hp.Current
	hp.Current = hp.Maximum
	hp.Temporary = 0

	res.HitDiceRecovered = c.recoverHitDice(max(1, c.HitDiceTotal()/2))

	for _, slot := range c.Spellcasting.Slots {
		res.SlotsRestored += slot.Used
		slot.RestoreAll()
	}
	for i := range c.Features {
		f := &c.Features[i]
		if f.Uses > 0 && f.Used > 0 {
			f.Used = 0
			res.FeaturesRecharged = append(res.FeaturesRecharged, f.Name)
		}
	}
	c.Combat.DeathSaves.Reset()
	c.Touch()
	return res
}

// HitDiceTotal counts hit dice across all pools.
func (c *Character) HitDiceTotal() int {
	n := 0
	for _, h := range c.Combat.HitDice {
		n += h.Total
	}
	return n
}

// HitDiceRemaining counts unspent hit dice across all pools.
func (c *Character) HitDiceRemaining() int {
	n := 0
	for _, h := range c.Combat.HitDice {
		n += h.Remaining
	}
	return n
}

// SpendHitDie spends one die of the given type, or the largest available
// when die is empty. It returns the die size spent.
func (c *Character) SpendHitDie(die string) (int, error) {
	for _, i := range c.poolsLargestFirst() {
		h := &c.Combat.HitDice[i]
		if die != "" && !strings.EqualFold(h.Die, die) {
			continue
		}
		if h.Remaining > 0 {
			h.Remaining--
			c.Touch()
			return h.Size(), nil
		}
	}
	if die != "" {
		return 0, fmt.Errorf("no %s hit dice remaining", die)
	}
	return 0, fmt.Errorf("no hit dice remaining")
}

// AddHitDie grows the pool for die by one.
func (c *Character) AddHitDie(die string) {
	for i := range c.Combat.HitDice {
		h := &c.Combat.HitDice[i]
		if h.Die == die {
			h.Total++
			h.Remaining++
			return
		}
	}
	c.Combat.HitDice = append(c.Combat.HitDice, HitDice{Die: die, Total: 1, Remaining: 1})
}

func (c *Character) recoverHitDice(count int) int {
	recovered := 0
	for _, i := range c.poolsLargestFirst() {
		if recovered >= count {
			break
		}
		h := &c.Combat.HitDice[i]
		n := min(count-recovered, h.Total-h.Remaining)
		h.Remaining += n
		recovered += n
	}
	return recovered
}

func (c *Character) poolsLargestFirst() []int {
	idx := make([]int, len(c.Combat.HitDice))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return c.Combat.HitDice[idx[a]].Size() > c.Combat.HitDice[idx[b]].Size()
	})
	return idx
}

// RecordDeathSave applies a death save action: add_success, add_failure,
// add_crit_success, add_crit_failure or reset. A critical success brings the
// character back to 1 HP.
func (c *Character) RecordDeathSave(action string) error {
	ds := &c.Combat.DeathSaves
	switch action {
	case "add_success":
		ds.Successes = min(3, ds.Successes+1)
	case "add_failure":
		ds.Failures = min(3, ds.Failures+1)
	case "add_crit_success":
		ds.Reset()
		c.Combat.HitPoints.Current = max(1, c.Combat.HitPoints.Current)
	case "add_crit_failure":
		ds.Failures = min(3, ds.Failures+2)
	case "reset":
		ds.Reset()
	default:
		return fmt.Errorf("unknown death save action: %s", action)
	}
	c.Touch()
	return nil
}

func isRecharge(recharge, kind string) bool {
	r := strings.ToLower(strings.ReplaceAll(recharge, "_", " "))
	return r == kind+" rest"
}
