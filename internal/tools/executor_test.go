package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

// ─── Fixtures ───────────────────────────────────────────────────────────────

type fixedRoller int

func (f fixedRoller) Roll(int) int { return int(f) }

func newTestCharacter(t *testing.T) *character.Character {
	t.Helper()
	c := character.New("Brenna", "Fighter", "Human")
	c.Abilities = character.AbilityScores{Strength: 15, Dexterity: 12, Constitution: 14, Intelligence: 9, Wisdom: 10, Charisma: 8}
	c.Combat.HitPoints = character.HitPoints{Maximum: 20, Current: 12}
	return c
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(zaptest.NewLogger(t))
	if err := RegisterBuiltins(r, fixedRoller(4)); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	return r
}

func newTestExecutor(t *testing.T, c *character.Character, opts ...ExecutorOption) *Executor {
	t.Helper()
	opts = append([]ExecutorOption{WithLogger(zaptest.NewLogger(t))}, opts...)
	return NewExecutor(newTestRegistry(t), c, opts...)
}

// ─── Lookup, precondition, validation ───────────────────────────────────────

func TestExecute_UnknownTool(t *testing.T) {
	c := newTestCharacter(t)
	before := c.Combat.HitPoints
	e := newTestExecutor(t, c)

	out := e.Execute(context.Background(), "fireball", map[string]any{}, "c1")
	if out.Success || out.Error != "Unknown tool: fireball" {
		t.Fatalf("expected unknown tool error, got %+v", out)
	}
	if c.Combat.HitPoints != before {
		t.Error("expected character untouched")
	}
}

func TestExecute_RequiresSubject(t *testing.T) {
	e := newTestExecutor(t, nil)
	out := e.Execute(context.Background(), ToolHealCharacter, map[string]any{"amount": 1}, "c1")
	want := "Tool 'heal_character' requires a character to be loaded"
	if out.Error != want {
		t.Errorf("expected %q, got %q", want, out.Error)
	}
}

func TestExecute_ValidationBlocksHandler(t *testing.T) {
	c := newTestCharacter(t)
	e := newTestExecutor(t, c)
	out := e.Execute(context.Background(), ToolHealCharacter, map[string]any{"amount": true}, "c1")
	if out.Error != "Field 'amount' must be an integer" {
		t.Fatalf("expected integer error, got %+v", out)
	}
	if c.Combat.HitPoints.Current != 12 {
		t.Errorf("expected HP unchanged, got %d", c.Combat.HitPoints.Current)
	}
}

func TestExecute_Success(t *testing.T) {
	c := newTestCharacter(t)
	e := newTestExecutor(t, c)
	out := e.Execute(context.Background(), ToolHealCharacter, map[string]any{"amount": float64(5)}, "c1")
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if c.Combat.HitPoints.Current != 17 {
		t.Errorf("expected 17 HP, got %d", c.Combat.HitPoints.Current)
	}
	if !out.Mutated() || out.Changes[0] != "Healed 5 HP" {
		t.Errorf("unexpected changes: %v", out.Changes)
	}
}

func TestExecute_ModerateRunsWithoutConfirmation(t *testing.T) {
	c := newTestCharacter(t)
	asked := false
	e := newTestExecutor(t, c, WithConfirmFunc(func(string) bool { asked = true; return false }))
	out := e.Execute(context.Background(), ToolDealDamage, map[string]any{"amount": 3}, "c1")
	if !out.Success || asked {
		t.Errorf("expected moderate tool to run unasked, got %+v (asked=%v)", out, asked)
	}
}

// ─── Confirmation workflow ──────────────────────────────────────────────────

func TestExecute_DestructiveParkedWithoutChannel(t *testing.T) {
	c := newTestCharacter(t)
	e := newTestExecutor(t, c)

	out := e.Execute(context.Background(), ToolLevelUp, map[string]any{}, "c1")
	if !out.NeedsConfirmation || out.Success || out.Error != "" {
		t.Fatalf("expected needs_confirmation, got %+v", out)
	}
	if out.ConfirmationPrompt != "Level up character in primary class?" {
		t.Errorf("unexpected prompt %q", out.ConfirmationPrompt)
	}
	if !out.IsError() {
		t.Error("expected pending outcome to be flagged as error for the backend")
	}
	if !e.HasPending("c1") || len(e.Pending()) != 1 {
		t.Fatalf("expected one pending entry, got %d", len(e.Pending()))
	}
	if c.Class.Level != 1 {
		t.Errorf("expected no level change, got %d", c.Class.Level)
	}
}

func TestExecute_DuplicatePendingLeavesOriginal(t *testing.T) {
	c := newTestCharacter(t)
	e := newTestExecutor(t, c)
	ctx := context.Background()

	e.Execute(ctx, ToolRemoveFeature, map[string]any{"name": "Second Wind"}, "c1")
	out := e.Execute(ctx, ToolRemoveFeature, map[string]any{"name": "Action Surge"}, "c1")

	if out.ConfirmationPrompt != "Remove feature 'Second Wind'?" {
		t.Errorf("expected original prompt, got %q", out.ConfirmationPrompt)
	}
	p := e.Pending()
	if len(p) != 1 || p[0].Input["name"] != "Second Wind" {
		t.Errorf("expected original entry untouched, got %+v", p)
	}
}

func TestResolveConfirmation_Approve(t *testing.T) {
	c := newTestCharacter(t)
	e := newTestExecutor(t, c)
	ctx := context.Background()

	e.Execute(ctx, ToolLevelUp, map[string]any{"hp_method": "max"}, "c1")
	out, err := e.ResolveConfirmation(ctx, "c1", true)
	if err != nil {
		t.Fatalf("ResolveConfirmation: %v", err)
	}
	if !out.Success || c.Class.Level != 2 {
		t.Fatalf("expected level 2, got level %d (%+v)", c.Class.Level, out)
	}
	if _, err := e.ResolveConfirmation(ctx, "c1", true); !errors.Is(err, ErrNoPendingConfirmation) {
		t.Errorf("expected second resolve to fail, got %v", err)
	}
}

func TestResolveConfirmation_DenyNeverRuns(t *testing.T) {
	c := newTestCharacter(t)
	e := newTestExecutor(t, c)
	ctx := context.Background()

	e.Execute(ctx, ToolLevelUp, map[string]any{}, "c1")
	out, err := e.ResolveConfirmation(ctx, "c1", false)
	if err != nil {
		t.Fatalf("ResolveConfirmation: %v", err)
	}
	if out.Error != "Operation cancelled by user" {
		t.Errorf("unexpected outcome %+v", out)
	}
	if e.HasPending("c1") || c.Class.Level != 1 {
		t.Error("expected entry removed and no level change")
	}
}

func TestResolveConfirmation_Missing(t *testing.T) {
	e := newTestExecutor(t, newTestCharacter(t))
	out, err := e.ResolveConfirmation(context.Background(), "nope", true)
	if !errors.Is(err, ErrNoPendingConfirmation) || out.Error != "No pending confirmation found" {
		t.Errorf("expected no pending confirmation, got %+v, %v", out, err)
	}
}

func TestExecute_ConfirmChannel(t *testing.T) {
	c := newTestCharacter(t)
	var prompts []string
	answer := false
	e := newTestExecutor(t, c, WithConfirmFunc(func(p string) bool {
		prompts = append(prompts, p)
		return answer
	}))
	ctx := context.Background()

	out := e.Execute(ctx, ToolLevelUp, map[string]any{"class_name": "Fighter"}, "c1")
	if out.Error != "Operation cancelled by user" {
		t.Fatalf("expected cancellation, got %+v", out)
	}
	answer = true
	out = e.Execute(ctx, ToolLevelUp, map[string]any{"class_name": "Fighter"}, "c2")
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if len(prompts) != 2 || prompts[0] != "Level up character in Fighter?" {
		t.Errorf("unexpected prompts %v", prompts)
	}
	if len(e.Pending()) != 0 {
		t.Error("expected nothing parked when a channel is configured")
	}
}

func TestExecute_AutoConfirm(t *testing.T) {
	c := newTestCharacter(t)
	e := newTestExecutor(t, c, WithAutoConfirm(true))
	out := e.Execute(context.Background(), ToolLevelUp, map[string]any{}, "c1")
	if !out.Success || c.Class.Level != 2 {
		t.Errorf("expected immediate level up, got %+v", out)
	}
}

func TestConfirmationPrompt_Fallback(t *testing.T) {
	got := ConfirmationPrompt("wipe", map[string]any{"b": 2, "a": "x"})
	want := `Execute wipe with {"a":"x","b":2}?`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// ─── Handler failures ───────────────────────────────────────────────────────

func TestExecute_HandlerErrorBecomesOutcome(t *testing.T) {
	c := newTestCharacter(t)
	e := newTestExecutor(t, c)
	out := e.Execute(context.Background(), ToolUseSpellSlot, map[string]any{"level": 3}, "c1")
	if out.Success || out.Error != "No spell slots of level 3" {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestExecute_PanicRecovered(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := NewRegistry(nil)
	r.MustRegister(schema.ToolDefinition{
		Name:        "boom",
		InputSchema: schema.Object(nil),
		Category:    schema.CategoryCustom,
		RiskLevel:   schema.RiskSafe,
	}, func(context.Context, *character.Character, map[string]any) (Result, error) {
		panic("kaboom")
	})
	e := NewExecutor(r, nil, WithLogger(zap.New(core)))

	out := e.Execute(context.Background(), "boom", nil, "c1")
	if out.Success || out.Error != "kaboom" {
		t.Fatalf("expected recovered panic, got %+v", out)
	}
	entries := logs.FilterMessage("tool handler panicked").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 panic log, got %d", len(entries))
	}
	if entries[0].ContextMap()["tool"] != "boom" {
		t.Errorf("expected tool field boom, got %v", entries[0].ContextMap()["tool"])
	}
}

func TestExecute_NoHandler(t *testing.T) {
	r := NewRegistry(nil)
	def := healDef()
	r.MustRegister(def, nil)
	e := NewExecutor(r, nil)
	out := e.Execute(context.Background(), "heal", map[string]any{"amount": 1}, "c1")
	if out.Error != "No handler registered for tool: heal" {
		t.Errorf("unexpected outcome %+v", out)
	}
}

// ─── Outcome serialization ──────────────────────────────────────────────────

func TestOutcomeJSON(t *testing.T) {
	ok := successOutcome(Result{Payload: map[string]int{"hp": 3}})
	var decoded map[string]any
	if err := json.Unmarshal([]byte(ok.JSON()), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["success"] != true {
		t.Errorf("expected success true, got %v", decoded["success"])
	}
	if changes, _ := decoded["changes"].([]any); changes == nil {
		t.Error("expected empty changes array, not null")
	}

	fail := errorOutcome("bad")
	if fail.JSON() != `{"success":false,"error":"bad"}` {
		t.Errorf("unexpected failure JSON %s", fail.JSON())
	}

	pending := confirmationOutcome("Sure?")
	if !strings.Contains(pending.JSON(), `"needs_confirmation":true`) {
		t.Errorf("expected needs_confirmation in %s", pending.JSON())
	}
}
