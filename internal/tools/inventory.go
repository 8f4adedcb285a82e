package tools

import (
	"context"
	"fmt"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

func inventoryTools() []Tool {
	return []Tool{
		{
			Definition: define(ToolAddItem,
				"Add an item to the character's inventory. Adding an item already carried increases its quantity.",
				schema.CategoryInventory, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"name":        schema.StringProp("Name of the item"),
					"quantity":    schema.IntegerProp("Number of items to add").Min(1),
					"weight":      schema.NumberProp("Weight per item in pounds"),
					"description": schema.StringProp("Item description"),
					"equipped":    schema.BoolProp("Whether the item is immediately equipped"),
				}, "name")),
			Handler: Typed(addItem),
		},
		{
			Definition: define(ToolRemoveItem,
				"Remove an item from the character's inventory.",
				schema.CategoryInventory, schema.RiskModerate,
				schema.Object(map[string]schema.Property{
					"name":     schema.StringProp("Name of the item to remove"),
					"quantity": schema.IntegerProp("Number to remove; removes the whole stack when omitted").Min(1),
				}, "name")),
			Handler: Typed(removeItem),
		},
		{
			Definition: define(ToolEquipItem,
				"Equip or unequip an item in the character's inventory.",
				schema.CategoryInventory, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"name":     schema.StringProp("Name of the item"),
					"equipped": schema.BoolProp("True to equip, false to unequip"),
				}, "name")),
			Handler: Typed(equipItem),
		},
		{
			Definition: define(ToolAttuneItem,
				fmt.Sprintf("Attune or end attunement to a magic item. Characters can attune to at most %d items.", character.MaxAttuned),
				schema.CategoryInventory, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"name":    schema.StringProp("Name of the magic item"),
					"attuned": schema.BoolProp("True to attune, false to end attunement"),
				}, "name")),
			Handler: Typed(attuneItem),
		},
		{
			Definition: define(ToolModifyCurrency,
				"Add or remove currency. Negative amounts remove coins; no denomination drops below zero.",
				schema.CategoryInventory, schema.RiskSafe,
				schema.Object(map[string]schema.Property{
					"cp": schema.IntegerProp("Copper pieces to add (negative to remove)"),
					"sp": schema.IntegerProp("Silver pieces to add (negative to remove)"),
					"ep": schema.IntegerProp("Electrum pieces to add (negative to remove)"),
					"gp": schema.IntegerProp("Gold pieces to add (negative to remove)"),
					"pp": schema.IntegerProp("Platinum pieces to add (negative to remove)"),
				})),
			Handler: Typed(modifyCurrency),
		},
	}
}

type addItemInput struct {
	Name        string  `json:"name"`
	Quantity    *int    `json:"quantity"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
	Equipped    bool    `json:"equipped"`
}

func addItem(_ context.Context, c *character.Character, in addItemInput) (Result, error) {
	qty := intOr(in.Quantity, 1)
	var changes []string
	if it := c.Equipment.FindItem(in.Name); it != nil {
		it.Quantity += qty
		changes = []string{fmt.Sprintf("Added %dx %s (now have %d)", qty, in.Name, it.Quantity)}
	} else {
		c.Equipment.Items = append(c.Equipment.Items, character.InventoryItem{
			Name:        in.Name,
			Quantity:    qty,
			Weight:      in.Weight,
			Description: in.Description,
			Equipped:    in.Equipped,
		})
		changes = []string{fmt.Sprintf("Added %dx %s to inventory", qty, in.Name)}
		if in.Equipped {
			changes = append(changes, in.Name+" is equipped")
		}
	}
	c.Touch()
	return Result{
		Payload: map[string]any{
			"name":         in.Name,
			"quantity":     qty,
			"total_items":  len(c.Equipment.Items),
			"total_weight": c.Equipment.TotalWeight(),
		},
		Changes: changes,
	}, nil
}

type removeItemInput struct {
	Name     string `json:"name"`
	Quantity *int   `json:"quantity"`
}

func removeItem(_ context.Context, c *character.Character, in removeItemInput) (Result, error) {
	it := c.Equipment.FindItem(in.Name)
	if it == nil {
		return Result{}, fmt.Errorf("Item '%s' not found in inventory", in.Name)
	}

	var removed, remaining int
	var change string
	if in.Quantity == nil || *in.Quantity >= it.Quantity {
		removed = it.Quantity
		c.Equipment.RemoveItem(in.Name)
		change = fmt.Sprintf("Removed all %dx %s", removed, in.Name)
	} else {
		removed = *in.Quantity
		it.Quantity -= removed
		remaining = it.Quantity
		change = fmt.Sprintf("Removed %dx %s (%d remaining)", removed, in.Name, remaining)
	}
	c.Touch()
	return Result{
		Payload: map[string]any{"name": in.Name, "removed": removed, "remaining": remaining},
		Changes: []string{change},
	}, nil
}

type equipInput struct {
	Name     string `json:"name"`
	Equipped *bool  `json:"equipped"`
}

func equipItem(_ context.Context, c *character.Character, in equipInput) (Result, error) {
	it := c.Equipment.FindItem(in.Name)
	if it == nil {
		return Result{}, fmt.Errorf("Item '%s' not found in inventory", in.Name)
	}
	want := boolOr(in.Equipped, true)
	was := it.Equipped
	it.Equipped = want
	c.Touch()

	action := "unequipped"
	if want {
		action = "equipped"
	}
	change := fmt.Sprintf("%s %s", in.Name, action)
	if was == want {
		change = fmt.Sprintf("%s was already %s", in.Name, action)
	}
	return Result{
		Payload: map[string]any{"name": in.Name, "equipped": want, "was_equipped": was},
		Changes: []string{change},
	}, nil
}

type attuneInput struct {
	Name    string `json:"name"`
	Attuned *bool  `json:"attuned"`
}

func attuneItem(_ context.Context, c *character.Character, in attuneInput) (Result, error) {
	it := c.Equipment.FindItem(in.Name)
	if it == nil {
		return Result{}, fmt.Errorf("Item '%s' not found in inventory", in.Name)
	}
	want := boolOr(in.Attuned, true)
	if want && !it.Attuned && c.Equipment.AttunedCount() >= character.MaxAttuned {
		return Result{}, fmt.Errorf("Cannot attune to more than %d items. End attunement to another item first.", character.MaxAttuned)
	}
	was := it.Attuned
	it.Attuned = want
	c.Touch()

	action := "ended attunement to"
	if want {
		action = "attuned to"
	}
	change := fmt.Sprintf("%s %s", title(action), in.Name)
	if was == want {
		change = fmt.Sprintf("Already %s %s", action, in.Name)
	}
	return Result{
		Payload: map[string]any{
			"name":          in.Name,
			"attuned":       want,
			"was_attuned":   was,
			"total_attuned": c.Equipment.AttunedCount(),
		},
		Changes: []string{change},
	}, nil
}

type currencyInput struct {
	CP int `json:"cp"`
	SP int `json:"sp"`
	EP int `json:"ep"`
	GP int `json:"gp"`
	PP int `json:"pp"`
}

func modifyCurrency(_ context.Context, c *character.Character, in currencyInput) (Result, error) {
	cur := &c.Equipment.Currency
	var changes []string
	for _, d := range []struct {
		code   string
		amount int
	}{{"cp", in.CP}, {"sp", in.SP}, {"ep", in.EP}, {"gp", in.GP}, {"pp", in.PP}} {
		if d.amount == 0 {
			continue
		}
		coin := cur.Coin(d.code)
		old := *coin
		*coin = max(0, old+d.amount)
		if d.amount > 0 {
			changes = append(changes, fmt.Sprintf("+%d %s", d.amount, d.code))
		} else {
			changes = append(changes, fmt.Sprintf("-%d %s", old-*coin, d.code))
		}
	}
	if len(changes) == 0 {
		changes = []string{"No currency changed"}
	}
	c.Touch()
	return Result{
		Payload: map[string]any{
			"currency":       currencyMap(*cur),
			"total_gp_value": cur.TotalGP(),
		},
		Changes: changes,
	}, nil
}
