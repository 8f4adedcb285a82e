package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
	"github.com/crystaldolphin/tomekeeper/internal/tools"
)

// ─── Fixtures ───────────────────────────────────────────────────────────────

// scriptedProvider replays responses in order and repeats the last one.
type scriptedProvider struct {
	responses []schema.LLMResponse
	err       error
	calls     int
	choices   []schema.ToolChoice
	seen      []int // transcript length at each call
}

func (p *scriptedProvider) Chat(_ context.Context, msgs schema.Messages, _ []schema.ToolDefinition, opts schema.ChatOptions) (schema.LLMResponse, error) {
	p.calls++
	p.choices = append(p.choices, opts.ToolChoice)
	p.seen = append(p.seen, msgs.Len())
	if p.err != nil {
		return schema.LLMResponse{}, p.err
	}
	i := p.calls - 1
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	return p.responses[i], nil
}

func (p *scriptedProvider) DefaultModel() string { return "scripted" }
func (p *scriptedProvider) Kind() schema.BackendKind { return schema.BackendAnthropic }

type memStore struct {
	chars map[string]*character.Character
	saves int
}

func newMemStore(cs ...*character.Character) *memStore {
	m := &memStore{chars: map[string]*character.Character{}}
	for _, c := range cs {
		m.chars[c.Name] = c
	}
	return m
}

func (m *memStore) Load(name string) (*character.Character, error) {
	c, ok := m.chars[name]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) Save(c *character.Character) error {
	m.saves++
	return nil
}

type memArchive struct {
	records map[string]schema.Messages
}

func (a *memArchive) Record(key string, msgs schema.Messages) error {
	if a.records == nil {
		a.records = map[string]schema.Messages{}
	}
	a.records[key] = msgs.Clone()
	return nil
}

type healCall struct{ amount int }

// healRegistry holds a single safe tool "heal(amount:int>=1)" that records
// every invocation.
func healRegistry(t *testing.T, calls *[]healCall) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry(zaptest.NewLogger(t))
	def := schema.ToolDefinition{
		Name:        "heal",
		Description: "Heal the character.",
		InputSchema: schema.Object(map[string]schema.Property{
			"amount": schema.IntegerProp("HP to restore").Min(1),
		}, "amount"),
		Category:        schema.CategoryCombat,
		RiskLevel:       schema.RiskSafe,
		RequiresSubject: true,
	}
	type in struct {
		Amount int `json:"amount"`
	}
	r.MustRegister(def, tools.Typed(func(_ context.Context, c *character.Character, req in) (tools.Result, error) {
		*calls = append(*calls, healCall{amount: req.Amount})
		healed := c.Heal(req.Amount)
		return tools.Result{Payload: map[string]int{"healed": healed}, Changes: []string{"Healed"}}, nil
	}))
	return r
}

func newCharacter() *character.Character {
	c := character.New("Brenna", "Fighter", "Human")
	c.Combat.HitPoints = character.HitPoints{Maximum: 20, Current: 10}
	return c
}

func toolCall(id, name string, input map[string]any) schema.LLMResponse {
	return schema.LLMResponse{ToolCalls: []schema.ToolCall{{ID: id, Name: name, Input: input}}, FinishReason: "tool_calls"}
}

func text(s string) schema.LLMResponse {
	return schema.LLMResponse{Content: s, FinishReason: "stop", Usage: schema.Usage{InputTokens: 3, OutputTokens: 2}}
}

func settings(maxIter int) schema.AgentSettings {
	return schema.NewAgentSettings("", maxIter, 0.7, 1024, true)
}

func newSession(t *testing.T, p schema.LLMProvider, r *tools.Registry, c *character.Character, opts ...Option) *Session {
	t.Helper()
	exec := tools.NewExecutor(r, c, tools.WithLogger(zaptest.NewLogger(t)))
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return NewSession(p, r, exec, settings(10), opts...)
}

// ─── Loop ───────────────────────────────────────────────────────────────────

func TestSend_HealScenario(t *testing.T) {
	var calls []healCall
	store := newMemStore()
	c := newCharacter()
	p := &scriptedProvider{responses: []schema.LLMResponse{
		toolCall("c1", "heal", map[string]any{"amount": float64(5)}),
		text("Healed."),
	}}
	s := newSession(t, p, healRegistry(t, &calls), c, WithStore(store))

	reply, err := s.Send(context.Background(), "heal 5 hp")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if reply.Text != "Healed." {
		t.Errorf("expected final text Healed., got %q", reply.Text)
	}
	if len(calls) != 1 || calls[0].amount != 5 {
		t.Errorf("expected one heal call with amount 5, got %+v", calls)
	}
	if store.saves != 1 {
		t.Errorf("expected save hook once, got %d", store.saves)
	}
	if c.Combat.HitPoints.Current != 15 {
		t.Errorf("expected HP 15, got %d", c.Combat.HitPoints.Current)
	}

	tr := s.Transcript()
	if tr.Len() != 5 {
		t.Fatalf("expected transcript length 5, got %d", tr.Len())
	}
	roles := []schema.Role{schema.RoleSystem, schema.RoleUser, schema.RoleAssistant, schema.RoleToolResult, schema.RoleAssistant}
	for i, want := range roles {
		if tr.Messages[i].Role != want {
			t.Errorf("message %d: expected role %s, got %s", i, want, tr.Messages[i].Role)
		}
	}
	if !tr.Messages[2].HasToolCalls() {
		t.Error("message 2 should carry the tool call")
	}
	res := tr.Messages[3].ToolResults
	if len(res) != 1 || res[0].CallID != "c1" || res[0].IsError {
		t.Errorf("unexpected tool results %+v", res)
	}
	if reply.Iterations != 2 || reply.Incomplete {
		t.Errorf("expected 2 complete iterations, got %+v", reply)
	}
	if len(reply.Changes) != 1 || reply.ToolsUsed[0] != "heal" {
		t.Errorf("unexpected reply bookkeeping %+v", reply)
	}
}

func TestSend_NoToolCallsEndsAfterOneIteration(t *testing.T) {
	var calls []healCall
	p := &scriptedProvider{responses: []schema.LLMResponse{text("Hello, adventurer.")}}
	s := newSession(t, p, healRegistry(t, &calls), newCharacter())

	reply, err := s.Send(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if p.calls != 1 || reply.Iterations != 1 {
		t.Errorf("expected one iteration, got calls=%d iterations=%d", p.calls, reply.Iterations)
	}
	if reply.Text != "Hello, adventurer." {
		t.Errorf("unexpected text %q", reply.Text)
	}
	if reply.Usage != (schema.Usage{InputTokens: 3, OutputTokens: 2}) {
		t.Errorf("unexpected usage %+v", reply.Usage)
	}
}

func TestSend_IterationCap(t *testing.T) {
	var calls []healCall
	always := toolCall("c", "heal", map[string]any{"amount": float64(1)})
	always.Content = "Still healing"
	p := &scriptedProvider{responses: []schema.LLMResponse{always}}
	r := healRegistry(t, &calls)
	exec := tools.NewExecutor(r, newCharacter(), tools.WithLogger(zaptest.NewLogger(t)))
	s := NewSession(p, r, exec, settings(3), WithLogger(zaptest.NewLogger(t)))

	reply, err := s.Send(context.Background(), "heal forever")
	if err != nil {
		t.Fatalf("Send should not fail at the cap: %v", err)
	}
	if p.calls != 3 || reply.Iterations != 3 {
		t.Errorf("expected exactly 3 iterations, got calls=%d iterations=%d", p.calls, reply.Iterations)
	}
	if !reply.Incomplete {
		t.Error("expected Incomplete at the cap")
	}
	if reply.Text != "Still healing" {
		t.Errorf("expected last observed text, got %q", reply.Text)
	}
	if len(calls) != 3 {
		t.Errorf("expected 3 handler calls, got %d", len(calls))
	}
	// system + user + 3 × (call, result)
	if got := s.Transcript().Len(); got != 8 {
		t.Errorf("expected 8 messages, got %d", got)
	}
}

func TestSend_IterationCapWithoutText(t *testing.T) {
	var calls []healCall
	p := &scriptedProvider{responses: []schema.LLMResponse{toolCall("c", "heal", map[string]any{"amount": float64(1)})}}
	r := healRegistry(t, &calls)
	exec := tools.NewExecutor(r, newCharacter())
	s := NewSession(p, r, exec, settings(1))

	reply, err := s.Send(context.Background(), "go")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply.Text != "" || !reply.Incomplete {
		t.Errorf("expected empty incomplete reply, got %+v", reply)
	}
}

func TestSend_IterationCapReturnsNewestTurnText(t *testing.T) {
	var calls []healCall
	first := toolCall("c1", "heal", map[string]any{"amount": float64(1)})
	first.Content = "First"
	second := toolCall("c2", "heal", map[string]any{"amount": float64(1)})
	p := &scriptedProvider{responses: []schema.LLMResponse{first, second}}
	r := healRegistry(t, &calls)
	exec := tools.NewExecutor(r, newCharacter())
	s := NewSession(p, r, exec, settings(2))

	reply, err := s.Send(context.Background(), "go")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if p.calls != 2 || !reply.Incomplete {
		t.Fatalf("expected 2 calls and an incomplete reply, got calls=%d reply=%+v", p.calls, reply)
	}
	if reply.Text != "" {
		t.Errorf("expected the empty text of the final turn, got %q", reply.Text)
	}
}

func TestSend_ToolCallTurnsAreTimestamped(t *testing.T) {
	var calls []healCall
	p := &scriptedProvider{responses: []schema.LLMResponse{
		toolCall("c1", "heal", map[string]any{"amount": float64(1)}),
		text("Healed."),
	}}
	s := newSession(t, p, healRegistry(t, &calls), newCharacter())

	if _, err := s.Send(context.Background(), "heal"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	for i, m := range s.Transcript().Messages {
		if m.Timestamp.IsZero() {
			t.Errorf("message %d (%s) has no timestamp", i, m.Role)
		}
	}
}

func TestSend_RequireToolsOnlyFirstIteration(t *testing.T) {
	var calls []healCall
	p := &scriptedProvider{responses: []schema.LLMResponse{
		toolCall("c1", "heal", map[string]any{"amount": float64(2)}),
		text("done"),
	}}
	s := newSession(t, p, healRegistry(t, &calls), newCharacter())

	if _, err := s.Send(context.Background(), "heal", RequireTools()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(p.choices) != 2 || p.choices[0] != schema.ToolChoiceAny || p.choices[1] != schema.ToolChoiceAuto {
		t.Errorf("expected [any auto], got %v", p.choices)
	}

	s.Send(context.Background(), "again")
	if p.choices[2] != schema.ToolChoiceAuto {
		t.Errorf("expected auto without RequireTools, got %v", p.choices[2])
	}
}

func TestSend_ToolErrorsReportedToBackend(t *testing.T) {
	var calls []healCall
	store := newMemStore()
	p := &scriptedProvider{responses: []schema.LLMResponse{
		{ToolCalls: []schema.ToolCall{
			{ID: "a", Name: "heal", Input: map[string]any{"amount": float64(0)}},
			{ID: "b", Name: "fireball", Input: map[string]any{}},
		}},
		text("Sorry."),
	}}
	s := newSession(t, p, healRegistry(t, &calls), newCharacter(), WithStore(store))

	reply, err := s.Send(context.Background(), "do things")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply.Text != "Sorry." {
		t.Errorf("unexpected text %q", reply.Text)
	}
	res := s.Transcript().Messages[3].ToolResults
	if len(res) != 2 {
		t.Fatalf("expected both results in one message, got %d", len(res))
	}
	if !res[0].IsError || !strings.Contains(res[0].Content, "must be >= 1") {
		t.Errorf("expected validation error, got %+v", res[0])
	}
	if !res[1].IsError || !strings.Contains(res[1].Content, "Unknown tool: fireball") {
		t.Errorf("expected unknown tool error, got %+v", res[1])
	}
	if len(calls) != 0 || store.saves != 0 {
		t.Errorf("expected no handler calls and no saves, got %d calls %d saves", len(calls), store.saves)
	}
}

func TestSend_PendingConfirmationIsErrorResult(t *testing.T) {
	r := tools.NewRegistry(zaptest.NewLogger(t))
	if err := tools.RegisterBuiltins(r, nil); err != nil {
		t.Fatal(err)
	}
	store := newMemStore()
	c := newCharacter()
	p := &scriptedProvider{responses: []schema.LLMResponse{
		toolCall("lv", tools.ToolLevelUp, map[string]any{"class_name": "Fighter"}),
		text("Please confirm the level up."),
	}}
	s := newSession(t, p, r, c, WithStore(store))

	if _, err := s.Send(context.Background(), "level me up"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	res := s.Transcript().Messages[3].ToolResults[0]
	if !res.IsError || !strings.Contains(res.Content, `"needs_confirmation":true`) {
		t.Errorf("expected needs_confirmation error result, got %+v", res)
	}
	if c.TotalLevel() != 1 || store.saves != 0 {
		t.Errorf("nothing should change before confirmation: level %d saves %d", c.TotalLevel(), store.saves)
	}
	if len(s.Pending()) != 1 {
		t.Fatalf("expected one pending confirmation, got %d", len(s.Pending()))
	}

	out, err := s.Resolve(context.Background(), "lv", true)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !out.Success || c.TotalLevel() != 2 || store.saves != 1 {
		t.Errorf("expected approved level up saved, got %+v level %d saves %d", out, c.TotalLevel(), store.saves)
	}
	if _, err := s.Resolve(context.Background(), "lv", true); !errors.Is(err, tools.ErrNoPendingConfirmation) {
		t.Errorf("expected ErrNoPendingConfirmation, got %v", err)
	}
}

func TestSend_TransportError(t *testing.T) {
	var calls []healCall
	p := &scriptedProvider{err: errors.New("connection refused")}
	s := newSession(t, p, healRegistry(t, &calls), newCharacter())

	if _, err := s.Send(context.Background(), "hi"); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestSend_NoSubjectStillAnswers(t *testing.T) {
	var calls []healCall
	p := &scriptedProvider{responses: []schema.LLMResponse{
		toolCall("c1", "heal", map[string]any{"amount": float64(2)}),
		text("No character loaded."),
	}}
	s := newSession(t, p, healRegistry(t, &calls), nil)

	reply, err := s.Send(context.Background(), "heal")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	res := s.Transcript().Messages[3].ToolResults[0]
	if !res.IsError || !strings.Contains(res.Content, "requires a character to be loaded") {
		t.Errorf("unexpected result %+v", res)
	}
	if reply.Text != "No character loaded." {
		t.Errorf("unexpected text %q", reply.Text)
	}
}

// ─── History and subject ────────────────────────────────────────────────────

func TestClearHistoryKeepsSystem(t *testing.T) {
	var calls []healCall
	archive := &memArchive{}
	p := &scriptedProvider{responses: []schema.LLMResponse{text("ok")}}
	s := newSession(t, p, healRegistry(t, &calls), newCharacter(), WithArchive(archive, "Brenna"))

	s.Send(context.Background(), "one")
	s.Send(context.Background(), "two")
	if got := s.Transcript().Len(); got != 5 {
		t.Fatalf("expected 5 messages, got %d", got)
	}
	if p.seen[1] != 4 {
		t.Errorf("second call should see the whole transcript, saw %d", p.seen[1])
	}

	s.ClearHistory()
	tr := s.Transcript()
	if tr.Len() != 1 || tr.Messages[0].Role != schema.RoleSystem {
		t.Errorf("expected only the system message, got %+v", tr.Messages)
	}
	if archived := archive.records["Brenna"]; archived.Len() != 1 {
		t.Errorf("expected cleared transcript archived, got %d messages", archived.Len())
	}
}

func TestWithHistoryBuildsMissingSystem(t *testing.T) {
	var calls []healCall
	hist := schema.NewMessages()
	hist.AddUser("earlier")
	hist.AddAssistant("reply")
	p := &scriptedProvider{responses: []schema.LLMResponse{text("ok")}}
	s := newSession(t, p, healRegistry(t, &calls), newCharacter(), WithHistory(hist))

	s.Send(context.Background(), "now")
	tr := s.Transcript()
	if !tr.HasSystem() || tr.Len() != 5 {
		t.Fatalf("expected system prepended, got %d messages", tr.Len())
	}
	if !strings.Contains(tr.Messages[0].Text, "Brenna") {
		t.Error("system prompt should describe the bound character")
	}
}

func TestRefreshSubject(t *testing.T) {
	var calls []healCall
	stored := newCharacter()
	stored.Combat.HitPoints.Current = 20
	store := newMemStore(stored)

	live := newCharacter()
	s := newSession(t, &scriptedProvider{}, healRegistry(t, &calls), live, WithStore(store))

	if err := s.RefreshSubject(); err != nil {
		t.Fatalf("RefreshSubject: %v", err)
	}
	if s.Subject() == live || s.Subject().Combat.HitPoints.Current != 20 {
		t.Errorf("expected reloaded character bound, got %+v", s.Subject().Combat.HitPoints)
	}

	bare := newSession(t, &scriptedProvider{}, healRegistry(t, &calls), live)
	if err := bare.RefreshSubject(); err == nil {
		t.Error("expected error without a store")
	}
}
