package schema

import "context"

// ToolChoice controls whether the backend may, must, or must not call tools.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceAny  ToolChoice = "any"
	ToolChoiceNone ToolChoice = "none"
)

// BackendKind names a wire protocol family.
type BackendKind string

const (
	BackendAnthropic BackendKind = "anthropic"
	BackendGemini    BackendKind = "gemini"
)

// ChatOptions configures a single LLM chat request.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	ToolChoice  ToolChoice
}

// Usage counts tokens reported by the backend.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add returns the element-wise sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{InputTokens: u.InputTokens + o.InputTokens, OutputTokens: u.OutputTokens + o.OutputTokens}
}

// LLMResponse is the normalised response from any LLM provider.
type LLMResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        Usage
}

// HasToolCalls reports whether the response contains at least one tool call.
func (r LLMResponse) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// LLMProvider is the adapter every chat backend must satisfy. Implementations
// own all wire-format differences; callers never branch on Kind.
type LLMProvider interface {
	Chat(ctx context.Context, messages Messages, tools []ToolDefinition, opts ChatOptions) (LLMResponse, error)
	DefaultModel() string
	Kind() BackendKind
}

func NewChatOptions(model string, maxTokens int, temperature float64, choice ToolChoice) ChatOptions {
	return ChatOptions{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		ToolChoice:  choice,
	}
}
