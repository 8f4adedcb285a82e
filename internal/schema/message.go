package schema

import "time"

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleSystem     Role = "system"
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// ToolCall is one tool invocation requested by the backend.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolResult answers one ToolCall from the preceding assistant turn.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}

// Message is one entry in the conversation transcript.
//
// Text carries the content of system, user and plain assistant messages.
// An assistant message that requests tools carries ToolCalls instead, and a
// tool_result message carries ToolResults.
type Message struct {
	Role        Role         `json:"role"`
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// HasToolCalls reports whether m is an assistant tool-call message.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Text: text, Timestamp: time.Now()}
}

func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text, Timestamp: time.Now()}
}

func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Text: text, Timestamp: time.Now()}
}

// NewToolCallMessage builds an assistant turn requesting calls. text is any
// prose the backend sent alongside them.
func NewToolCallMessage(text string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Text: text, ToolCalls: calls, Timestamp: time.Now()}
}

func NewToolResultMessage(results []ToolResult) Message {
	return Message{Role: RoleToolResult, ToolResults: results, Timestamp: time.Now()}
}
