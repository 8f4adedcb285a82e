package tools

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

// ErrNoPendingConfirmation is returned when a call id has nothing awaiting
// a decision.
var ErrNoPendingConfirmation = errors.New("no pending confirmation")

const (
	msgCancelled = "Operation cancelled by user"
	msgNoPending = "No pending confirmation found"
)

// PendingConfirmation is a destructive call parked until someone decides.
type PendingConfirmation struct {
	CallID     string
	Definition schema.ToolDefinition
	Input      map[string]any
	Prompt     string
}

// Executor validates and runs tool calls against one bound character.
type Executor struct {
	registry    *Registry
	logger      *zap.Logger
	autoConfirm bool
	confirm     ConfirmFunc

	mu      sync.Mutex
	subject *character.Character
	pending map[string]PendingConfirmation
}

type ExecutorOption func(*Executor)

// WithAutoConfirm runs destructive tools without asking.
func WithAutoConfirm(on bool) ExecutorOption {
	return func(e *Executor) { e.autoConfirm = on }
}

// WithConfirmFunc sets the synchronous confirmation channel. Without one,
// destructive calls are parked as pending.
func WithConfirmFunc(fn ConfirmFunc) ExecutorOption {
	return func(e *Executor) { e.confirm = fn }
}

func WithLogger(l *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewExecutor(registry *Registry, subject *character.Character, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry: registry,
		logger:   zap.NewNop(),
		subject:  subject,
		pending:  make(map[string]PendingConfirmation),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bind replaces the character calls operate on.
func (e *Executor) Bind(c *character.Character) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subject = c
}

// Subject returns the bound character, or nil.
func (e *Executor) Subject() *character.Character {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subject
}

// Execute runs one call. Every failure is reported in the Outcome; nothing
// escapes as a Go error or a panic.
func (e *Executor) Execute(ctx context.Context, name string, input map[string]any, callID string) Outcome {
	def, ok := e.registry.Get(name)
	if !ok {
		return errorOutcome("Unknown tool: " + name)
	}
	if def.RequiresSubject && e.Subject() == nil {
		return errorOutcome(fmt.Sprintf("Tool '%s' requires a character to be loaded", name))
	}
	if input == nil {
		input = map[string]any{}
	}
	if msg := Validate(def.InputSchema, input); msg != "" {
		return errorOutcome(msg)
	}

	if def.RiskLevel == schema.RiskDestructive && !e.autoConfirm {
		return e.confirmThenRun(ctx, def, input, callID)
	}
	return e.run(ctx, def, input)
}

func (e *Executor) confirmThenRun(ctx context.Context, def schema.ToolDefinition, input map[string]any, callID string) Outcome {
	prompt := ConfirmationPrompt(def.Name, input)

	if e.confirm != nil {
		approved := e.confirm(prompt)
		e.logger.Info("confirmation answered",
			zap.String("tool", def.Name),
			zap.String("call_id", callID),
			zap.Bool("approved", approved),
		)
		if !approved {
			return errorOutcome(msgCancelled)
		}
		return e.run(ctx, def, input)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.pending[callID]; ok {
		return confirmationOutcome(existing.Prompt)
	}
	e.pending[callID] = PendingConfirmation{
		CallID:     callID,
		Definition: def,
		Input:      maps.Clone(input),
		Prompt:     prompt,
	}
	e.logger.Info("confirmation pending", zap.String("tool", def.Name), zap.String("call_id", callID))
	return confirmationOutcome(prompt)
}

// ResolveConfirmation approves or cancels a parked call. Approval runs the
// stored call; cancellation discards it. Each call id resolves once.
func (e *Executor) ResolveConfirmation(ctx context.Context, callID string, approved bool) (Outcome, error) {
	e.mu.Lock()
	p, ok := e.pending[callID]
	delete(e.pending, callID)
	e.mu.Unlock()

	if !ok {
		return errorOutcome(msgNoPending), ErrNoPendingConfirmation
	}
	e.logger.Info("confirmation resolved",
		zap.String("tool", p.Definition.Name),
		zap.String("call_id", callID),
		zap.Bool("approved", approved),
	)
	if !approved {
		return errorOutcome(msgCancelled), nil
	}
	return e.run(ctx, p.Definition, p.Input), nil
}

// HasPending reports whether callID awaits a decision.
func (e *Executor) HasPending(callID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[callID]
	return ok
}

// Pending lists parked calls ordered by call id.
func (e *Executor) Pending() []PendingConfirmation {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := slices.Sorted(maps.Keys(e.pending))
	out := make([]PendingConfirmation, len(ids))
	for i, id := range ids {
		out[i] = e.pending[id]
	}
	return out
}

// ClearPending drops every parked call and returns how many there were.
func (e *Executor) ClearPending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.pending)
	clear(e.pending)
	return n
}

func (e *Executor) run(ctx context.Context, def schema.ToolDefinition, input map[string]any) (out Outcome) {
	handler := e.registry.GetHandler(def.Name)
	if handler == nil {
		return errorOutcome("No handler registered for tool: " + def.Name)
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool handler panicked",
				zap.String("tool", def.Name),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			out = errorOutcome(fmt.Sprint(r))
		}
	}()

	res, err := handler(ctx, e.Subject(), input)
	if err != nil {
		e.logger.Error("tool execution failed", zap.String("tool", def.Name), zap.Error(err))
		return errorOutcome(err.Error())
	}
	return successOutcome(res)
}
