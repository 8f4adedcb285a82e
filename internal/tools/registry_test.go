package tools

import (
	"context"
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

func healDef() schema.ToolDefinition {
	return schema.ToolDefinition{
		Name:        "heal",
		Description: "Heal the character",
		InputSchema: schema.Object(map[string]schema.Property{
			"amount": schema.IntegerProp("HP to restore").Min(1),
		}, "amount"),
		Category:  schema.CategoryCombat,
		RiskLevel: schema.RiskSafe,
	}
}

func noopHandler(context.Context, *character.Character, map[string]any) (Result, error) {
	return Result{}, nil
}

func TestRegister_GetAndHandler(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	if err := r.Register(healDef(), noopHandler); err != nil {
		t.Fatalf("Register: %v", err)
	}
	def, ok := r.Get("heal")
	if !ok || def.Name != "heal" {
		t.Fatalf("expected heal definition, got %+v (ok=%v)", def, ok)
	}
	if r.GetHandler("heal") == nil {
		t.Error("expected handler for heal")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing tool to be absent")
	}
	if r.GetHandler("missing") != nil {
		t.Error("expected nil handler for missing tool")
	}
}

func TestRegister_LastWriteWins(t *testing.T) {
	r := NewRegistry(nil)
	first := healDef()
	second := healDef()
	second.Description = "replacement"
	r.MustRegister(first, noopHandler)
	r.MustRegister(second, noopHandler)

	if r.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", r.Len())
	}
	def, _ := r.Get("heal")
	if def.Description != "replacement" {
		t.Errorf("expected replacement, got %q", def.Description)
	}
}

func TestRegister_RejectsBadDefinitions(t *testing.T) {
	r := NewRegistry(nil)

	noName := healDef()
	noName.Name = ""
	if err := r.Register(noName, noopHandler); err == nil {
		t.Error("expected error for missing name")
	}

	undeclared := healDef()
	undeclared.InputSchema.Required = []string{"amount", "ghost"}
	if err := r.Register(undeclared, noopHandler); err == nil {
		t.Error("expected error for required field missing from properties")
	}

	badPattern := healDef()
	badPattern.InputSchema.Properties["die"] = schema.StringProp("die").Match(`d(4|6`)
	if err := r.Register(badPattern, noopHandler); err == nil {
		t.Error("expected error for uncompilable pattern")
	}
}

func TestList_FilterAndOrder(t *testing.T) {
	r := NewRegistry(nil)
	if err := RegisterBuiltins(r, nil); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}

	all := r.List()
	for i := 1; i < len(all); i++ {
		if all[i-1].Name > all[i].Name {
			t.Fatalf("expected sorted names, got %s before %s", all[i-1].Name, all[i].Name)
		}
	}

	spells := r.List(schema.CategorySpells)
	if len(spells) != 4 {
		t.Errorf("expected 4 spell tools, got %d", len(spells))
	}
	for _, d := range spells {
		if d.Category != schema.CategorySpells {
			t.Errorf("expected only spell tools, got %s in %s", d.Name, d.Category)
		}
	}

	mixed := r.List(schema.CategoryQuery, schema.CategoryCustom)
	if len(mixed) != 8 {
		t.Errorf("expected 8 query+custom tools, got %d", len(mixed))
	}
}

func TestBuiltins_Catalog(t *testing.T) {
	r := NewRegistry(nil)
	if err := RegisterBuiltins(r, nil); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	if r.Len() != 28 {
		t.Errorf("expected 28 built-in tools, got %d", r.Len())
	}

	destructive := map[string]bool{}
	for _, d := range r.List() {
		if !d.RequiresSubject {
			t.Errorf("%s: expected requires_subject", d.Name)
		}
		if d.RiskLevel == schema.RiskDestructive {
			destructive[d.Name] = true
		}
	}
	if len(destructive) != 2 || !destructive[ToolLevelUp] || !destructive[ToolRemoveFeature] {
		t.Errorf("expected level_up and remove_feature destructive, got %v", destructive)
	}
}

func TestExport_BothBackends(t *testing.T) {
	r := NewRegistry(nil)
	r.MustRegister(healDef(), noopHandler)

	anth, err := r.Export(schema.BackendAnthropic)
	if err != nil {
		t.Fatalf("Export anthropic: %v", err)
	}
	if len(anth) != 1 || anth[0]["name"] != "heal" {
		t.Fatalf("unexpected anthropic export: %v", anth)
	}
	if _, ok := anth[0]["input_schema"]; !ok {
		t.Error("expected input_schema in anthropic declaration")
	}

	gem, err := r.Export(schema.BackendGemini)
	if err != nil {
		t.Fatalf("Export gemini: %v", err)
	}
	params, _ := gem[0]["parameters"].(map[string]any)
	if params["type"] != "OBJECT" {
		t.Errorf("expected OBJECT parameters, got %v", params["type"])
	}

	if _, err := r.Export("carrier-pigeon"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestValidateStrict(t *testing.T) {
	r := NewRegistry(nil)
	r.MustRegister(healDef(), noopHandler)

	if err := r.ValidateStrict("heal", map[string]any{"amount": 3}); err != nil {
		t.Errorf("expected valid input, got %v", err)
	}
	if err := r.ValidateStrict("heal", map[string]any{"amount": 0}); err == nil {
		t.Error("expected minimum violation")
	}
	if err := r.ValidateStrict("heal", nil); err == nil {
		t.Error("expected missing required field")
	}
	if err := r.ValidateStrict("nope", nil); err == nil {
		t.Error("expected unknown tool error")
	}
}

func TestNames_Sorted(t *testing.T) {
	r := NewRegistry(nil)
	if err := RegisterBuiltins(r, nil); err != nil {
		t.Fatal(err)
	}
	names := r.Names()
	if len(names) != r.Len() {
		t.Fatalf("names = %d, registered = %d", len(names), r.Len())
	}
	if !slices.IsSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
	if !slices.Contains(names, ToolLevelUp) {
		t.Errorf("missing %s", ToolLevelUp)
	}
}
