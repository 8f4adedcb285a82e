package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

const anthropicVersion = "2023-06-01"

// AnthropicProvider talks to the Messages API, which carries tool traffic as
// typed content blocks inside each message.
type AnthropicProvider struct {
	apiKey       string
	apiBase      string
	defaultModel string
	extraHeaders map[string]string
	client       *http.Client
}

func NewAnthropicProvider(apiKey, apiBase, defaultModel string, extraHeaders map[string]string) *AnthropicProvider {
	return &AnthropicProvider{
		apiKey:       apiKey,
		apiBase:      strings.TrimRight(apiBase, "/"),
		defaultModel: defaultModel,
		extraHeaders: extraHeaders,
		client:       &http.Client{Timeout: defaultTimeout},
	}
}

func (p *AnthropicProvider) DefaultModel() string { return p.defaultModel }
func (p *AnthropicProvider) Kind() schema.BackendKind { return schema.BackendAnthropic }

// Chat sends the conversation and returns the normalised response. Backend
// failures come back as content with FinishReason "error"; only transport
// failures are returned as errors.
func (p *AnthropicProvider) Chat(ctx context.Context, messages schema.Messages, tools []schema.ToolDefinition, opts schema.ChatOptions) (schema.LLMResponse, error) {
	model := opts.Model
	if model == "" {
		model = p.defaultModel
	}
	body := buildAnthropicRequest(messages, tools, model, opts)

	headers := mergeHeaders(map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}, p.extraHeaders)

	code, raw, err := postJSON(ctx, p.client, p.apiBase+"/messages", body, headers)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("anthropic %w", err)
	}
	if !isSuccess(code) {
		return httpErrResponse(code, raw)
	}
	return parseAnthropicResponse(raw)
}

// ---------------------------------------------------------------------------
// Request building
// ---------------------------------------------------------------------------

func buildAnthropicRequest(messages schema.Messages, tools []schema.ToolDefinition, model string, opts schema.ChatOptions) map[string]any {
	system, msgs := convertMessagesToAnthropic(messages)

	body := map[string]any{
		"model":       model,
		"max_tokens":  opts.MaxTokens,
		"temperature": opts.Temperature,
		"messages":    msgs,
	}
	if system != "" {
		body["system"] = system
	}

	// Choice none withholds the catalog entirely.
	if len(tools) > 0 && opts.ToolChoice != schema.ToolChoiceNone {
		defs := make([]map[string]any, 0, len(tools))
		for _, t := range tools {
			defs = append(defs, anthropicTool(t))
		}
		body["tools"] = defs
		if opts.ToolChoice == schema.ToolChoiceAny {
			body["tool_choice"] = map[string]any{"type": "any"}
		} else {
			body["tool_choice"] = map[string]any{"type": "auto"}
		}
	}
	return body
}

// convertMessagesToAnthropic lifts the system prompt out of the transcript
// and rewrites tool results as user turns of tool_result blocks. Adjacent
// user turns are merged so roles keep alternating.
func convertMessagesToAnthropic(messages schema.Messages) (string, []map[string]any) {
	var system string
	out := make([]map[string]any, 0, messages.Len())

	for _, m := range messages.Messages {
		switch m.Role {
		case schema.RoleSystem:
			system = m.Text

		case schema.RoleUser:
			out = appendUserBlocks(out, []map[string]any{{"type": "text", "text": m.Text}})

		case schema.RoleAssistant:
			if !m.HasToolCalls() {
				if m.Text != "" {
					out = append(out, map[string]any{"role": "assistant", "content": m.Text})
				}
				continue
			}
			blocks := make([]map[string]any, 0, len(m.ToolCalls)+1)
			if m.Text != "" {
				blocks = append(blocks, map[string]any{"type": "text", "text": m.Text})
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, map[string]any{
					"type":  "tool_use",
					"id":    tc.ID,
					"name":  tc.Name,
					"input": orEmptyMap(tc.Input),
				})
			}
			out = append(out, map[string]any{"role": "assistant", "content": blocks})

		case schema.RoleToolResult:
			blocks := make([]map[string]any, 0, len(m.ToolResults))
			for _, r := range m.ToolResults {
				blocks = append(blocks, map[string]any{
					"type":        "tool_result",
					"tool_use_id": r.CallID,
					"content":     r.Content,
					"is_error":    r.IsError,
				})
			}
			if len(blocks) > 0 {
				out = appendUserBlocks(out, blocks)
			}
		}
	}

	// A user turn holding a single text block goes out as a plain string.
	for _, msg := range out {
		if msg["role"] != "user" {
			continue
		}
		if blocks, ok := msg["content"].([]map[string]any); ok && len(blocks) == 1 && blocks[0]["type"] == "text" {
			msg["content"] = blocks[0]["text"]
		}
	}
	return system, out
}

func appendUserBlocks(out []map[string]any, blocks []map[string]any) []map[string]any {
	if n := len(out); n > 0 && out[n-1]["role"] == "user" {
		prev, _ := out[n-1]["content"].([]map[string]any)
		out[n-1]["content"] = append(prev, blocks...)
		return out
	}
	return append(out, map[string]any{"role": "user", "content": blocks})
}

// ---------------------------------------------------------------------------
// Response parsing
// ---------------------------------------------------------------------------

type anthropicResponse struct {
	Content []struct {
		Type  string         `json:"type"`
		Text  string         `json:"text"`
		ID    string         `json:"id"`
		Name  string         `json:"name"`
		Input map[string]any `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func parseAnthropicResponse(raw []byte) (schema.LLMResponse, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return errResponse(fmt.Sprintf("parse anthropic response: %v", err))
	}

	var text strings.Builder
	var calls []schema.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			calls = append(calls, schema.ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: orEmptyMap(block.Input),
			})
		}
	}

	finish := resp.StopReason
	switch finish {
	case "tool_use":
		finish = "tool_calls"
	case "end_turn", "":
		finish = "stop"
	}

	return schema.LLMResponse{
		Content:      text.String(),
		ToolCalls:    calls,
		FinishReason: finish,
		Usage: schema.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}
