// Package agent drives the conversation loop: it offers the tool catalog to
// a backend, executes the calls it gets back and feeds the results in until
// the backend answers in plain text.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/crystaldolphin/tomekeeper/internal/character"
	"github.com/crystaldolphin/tomekeeper/internal/schema"
	"github.com/crystaldolphin/tomekeeper/internal/shared/llmutils"
	"github.com/crystaldolphin/tomekeeper/internal/tools"
)

// SubjectStore loads and persists the character a session works on.
type SubjectStore interface {
	Load(name string) (*character.Character, error)
	Save(c *character.Character) error
}

// Archive keeps transcripts between runs.
type Archive interface {
	Record(key string, msgs schema.Messages) error
}

// Reply is the result of one Send.
type Reply struct {
	Text       string
	Iterations int
	// Incomplete is set when the iteration cap was hit while the backend was
	// still calling tools. Text then holds the last assistant text seen.
	Incomplete bool
	ToolsUsed  []string
	Changes    []string
	Usage      schema.Usage
}

// Session owns one conversation: its transcript, an Executor bound to the
// subject and the loop that drives the backend. A Session is not safe for
// concurrent Sends.
type Session struct {
	provider schema.LLMProvider
	registry *tools.Registry
	executor *tools.Executor
	settings schema.AgentSettings
	prompt   *PromptBuilder

	store      SubjectStore
	archive    Archive
	archiveKey string
	logger     *zap.Logger
	onProgress func(string)

	messages schema.Messages
}

// Option configures a Session.
type Option func(*Session)

func WithStore(s SubjectStore) Option { return func(ss *Session) { ss.store = s } }

// WithArchive records the transcript under key after every Send.
func WithArchive(a Archive, key string) Option {
	return func(s *Session) { s.archive, s.archiveKey = a, key }
}

func WithLogger(l *zap.Logger) Option { return func(s *Session) { s.logger = l } }

// WithProgress receives interim assistant text and tool hints while the loop runs.
func WithProgress(fn func(string)) Option { return func(s *Session) { s.onProgress = fn } }

// WithPrompt replaces the default assistant-mode prompt builder.
func WithPrompt(pb *PromptBuilder) Option { return func(s *Session) { s.prompt = pb } }

// WithHistory seeds the transcript, e.g. from an archive. A leading system
// message is kept; otherwise one is built on the first Send.
func WithHistory(msgs schema.Messages) Option {
	return func(s *Session) { s.messages = msgs.Clone() }
}

func NewSession(provider schema.LLMProvider, registry *tools.Registry, executor *tools.Executor, settings schema.AgentSettings, opts ...Option) *Session {
	s := &Session{
		provider: provider,
		registry: registry,
		executor: executor,
		settings: settings,
		messages: schema.NewMessages(),
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.prompt == nil {
		s.prompt = NewPromptBuilder(registry, ModeAssistant)
	}
	if s.settings.MaxIter <= 0 {
		s.settings.MaxIter = schema.DefaultMaxIter
	}
	return s
}

type sendConfig struct {
	requireTools bool
}

// SendOption adjusts a single Send.
type SendOption func(*sendConfig)

// RequireTools forces the backend to call at least one tool on the first
// iteration of this Send.
func RequireTools() SendOption { return func(c *sendConfig) { c.requireTools = true } }

// Send appends text as a user message and runs the tool loop until the
// backend replies without tool calls or the iteration cap is reached.
// Tool failures are reported to the backend, not returned; the error is
// non-nil only when the backend could not be reached.
func (s *Session) Send(ctx context.Context, text string, opts ...SendOption) (Reply, error) {
	var cfg sendConfig
	for _, o := range opts {
		o(&cfg)
	}

	s.ensureSystem()
	s.messages.AddUser(text)
	defer s.record()

	choice := schema.ToolChoiceAuto
	if cfg.requireTools {
		choice = schema.ToolChoiceAny
	}
	catalog := s.registry.List()

	var reply Reply
	for reply.Iterations < s.settings.MaxIter {
		reply.Iterations++

		resp, err := s.provider.Chat(ctx, s.messages, catalog, schema.NewChatOptions(
			s.settings.Model, s.settings.MaxTokens, s.settings.Temperature, choice))
		if err != nil {
			return reply, fmt.Errorf("chat: %w", err)
		}
		reply.Usage = reply.Usage.Add(resp.Usage)
		content := llmutils.StripThink(resp.Content)

		if !resp.HasToolCalls() {
			s.messages.AddAssistant(content)
			reply.Text = content
			return reply, nil
		}

		if content != "" {
			s.progress(content)
		}
		s.progress(llmutils.ToolHint(resp.ToolCalls))

		s.messages.AddToolCalls(content, resp.ToolCalls)
		changes := s.runCalls(ctx, resp.ToolCalls, &reply)
		if len(changes) > 0 {
			reply.Changes = append(reply.Changes, changes...)
			s.save()
		}

		choice = schema.ToolChoiceAuto
	}

	s.logger.Warn("tool iteration cap reached",
		zap.Int("max_iterations", s.settings.MaxIter),
		zap.Strings("tools_used", reply.ToolsUsed))
	reply.Text = s.messages.LastAssistantText()
	reply.Incomplete = true
	return reply, nil
}

// runCalls executes calls in order and appends one tool_result message
// holding every result. It returns the changes of successful mutations.
func (s *Session) runCalls(ctx context.Context, calls []schema.ToolCall, reply *Reply) []string {
	results := make([]schema.ToolResult, 0, len(calls))
	var changes []string
	for _, tc := range calls {
		args, _ := json.Marshal(tc.Input)
		s.logger.Info("tool call",
			zap.String("tool", tc.Name),
			zap.String("call_id", tc.ID),
			zap.String("args", llmutils.Truncate(string(args), 200)))

		out := s.executor.Execute(ctx, tc.Name, tc.Input, tc.ID)
		reply.ToolsUsed = append(reply.ToolsUsed, tc.Name)
		results = append(results, schema.ToolResult{
			CallID:  tc.ID,
			Content: out.JSON(),
			IsError: out.IsError(),
		})
		if out.Mutated() {
			changes = append(changes, out.Changes...)
		}
	}
	s.messages.AddToolResults(results)
	return changes
}

// Resolve settles a parked destructive call. An approved call that changes
// the character is saved like any other mutation.
func (s *Session) Resolve(ctx context.Context, callID string, approved bool) (tools.Outcome, error) {
	out, err := s.executor.ResolveConfirmation(ctx, callID, approved)
	if err != nil {
		return out, err
	}
	if out.Mutated() {
		s.save()
	}
	return out, nil
}

// Pending lists the calls awaiting confirmation.
func (s *Session) Pending() []tools.PendingConfirmation { return s.executor.Pending() }

// ClearHistory drops everything but the system message and forgets any
// parked confirmations, whose calls are no longer in the transcript.
func (s *Session) ClearHistory() {
	s.messages.Reset()
	if n := s.executor.ClearPending(); n > 0 {
		s.logger.Info("dropped pending confirmations", zap.Int("count", n))
	}
	s.record()
}

// RefreshSubject reloads the bound character from the store and rebinds it.
func (s *Session) RefreshSubject() error {
	if s.store == nil {
		return errors.New("no character store configured")
	}
	cur := s.executor.Subject()
	if cur == nil {
		return errors.New("no character loaded")
	}
	c, err := s.store.Load(cur.Name)
	if err != nil {
		return fmt.Errorf("reload %s: %w", cur.Name, err)
	}
	s.executor.Bind(c)
	return nil
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() schema.Messages { return s.messages.Clone() }

// Subject returns the bound character, or nil.
func (s *Session) Subject() *character.Character { return s.executor.Subject() }

func (s *Session) ensureSystem() {
	if s.messages.HasSystem() {
		return
	}
	sys := schema.NewSystemMessage(s.prompt.Build(s.executor.Subject()))
	s.messages = schema.NewMessages(append([]schema.Message{sys}, s.messages.Messages...)...)
}

func (s *Session) save() {
	if !s.settings.AutoSave || s.store == nil {
		return
	}
	c := s.executor.Subject()
	if c == nil {
		return
	}
	if err := s.store.Save(c); err != nil {
		s.logger.Warn("failed to save character", zap.String("character", c.Name), zap.Error(err))
	}
}

func (s *Session) record() {
	if s.archive == nil {
		return
	}
	if err := s.archive.Record(s.archiveKey, s.messages); err != nil {
		s.logger.Warn("failed to archive transcript", zap.String("key", s.archiveKey), zap.Error(err))
	}
}

func (s *Session) progress(text string) {
	if s.onProgress != nil && text != "" {
		s.onProgress(text)
	}
}
