package character

import "strings"

// MaxAttuned is the number of magic items a character can be attuned to.
const MaxAttuned = 3

// Currency holds coins by denomination.
type Currency struct {
	CP int `yaml:"cp" json:"cp"`
	SP int `yaml:"sp" json:"sp"`
	EP int `yaml:"ep" json:"ep"`
	GP int `yaml:"gp" json:"gp"`
	PP int `yaml:"pp" json:"pp"`
}

// TotalGP values all coins in gold pieces.
func (c Currency) TotalGP() float64 {
	return float64(c.CP)/100 + float64(c.SP)/10 + float64(c.EP)/2 + float64(c.GP) + float64(c.PP)*10
}

// Coin returns a pointer to the denomination named by code (cp, sp, ep, gp, pp).
func (c *Currency) Coin(code string) *int {
	switch code {
	case "cp":
		return &c.CP
	case "sp":
		return &c.SP
	case "ep":
		return &c.EP
	case "gp":
		return &c.GP
	case "pp":
		return &c.PP
	}
	return nil
}

// InventoryItem is one stack of items.
type InventoryItem struct {
	Name        string  `yaml:"name" json:"name"`
	Quantity    int     `yaml:"quantity" json:"quantity"`
	Weight      float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Equipped    bool    `yaml:"equipped,omitempty" json:"equipped,omitempty"`
	Attuned     bool    `yaml:"attuned,omitempty" json:"attuned,omitempty"`
}

// Equipment holds carried items and coins.
type Equipment struct {
	Items    []InventoryItem `yaml:"items" json:"items"`
	Currency Currency        `yaml:"currency" json:"currency"`
}

// FindItem returns the item named name, case-insensitively.
func (e *Equipment) FindItem(name string) *InventoryItem {
	for i := range e.Items {
		if strings.EqualFold(e.Items[i].Name, name) {
			return &e.Items[i]
		}
	}
	return nil
}

// RemoveItem deletes the stack named name and reports whether it existed.
func (e *Equipment) RemoveItem(name string) bool {
	for i := range e.Items {
		if strings.EqualFold(e.Items[i].Name, name) {
			e.Items = append(e.Items[:i], e.Items[i+1:]...)
			return true
		}
	}
	return false
}

// AttunedCount counts attuned items.
func (e *Equipment) AttunedCount() int {
	n := 0
	for _, it := range e.Items {
		if it.Attuned {
			n++
		}
	}
	return n
}

// TotalWeight sums weight times quantity.
func (e *Equipment) TotalWeight() float64 {
	w := 0.0
	for _, it := range e.Items {
		w += it.Weight * float64(it.Quantity)
	}
	return w
}
