package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

// GeminiProvider talks to the generateContent REST endpoint, which carries
// tool traffic as functionCall and functionResponse parts.
type GeminiProvider struct {
	apiKey       string
	apiBase      string
	defaultModel string
	extraHeaders map[string]string
	client       *http.Client
	newCallID    func() string
}

func NewGeminiProvider(apiKey, apiBase, defaultModel string, extraHeaders map[string]string) *GeminiProvider {
	return &GeminiProvider{
		apiKey:       apiKey,
		apiBase:      strings.TrimRight(apiBase, "/"),
		defaultModel: defaultModel,
		extraHeaders: extraHeaders,
		client:       &http.Client{Timeout: defaultTimeout},
		newCallID:    newGeminiCallID,
	}
}

func (p *GeminiProvider) DefaultModel() string { return p.defaultModel }
func (p *GeminiProvider) Kind() schema.BackendKind { return schema.BackendGemini }

// newGeminiCallID mints an identifier for a function call; the backend does
// not supply one.
func newGeminiCallID() string {
	return "toolu_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Chat sends the conversation and returns the normalised response.
func (p *GeminiProvider) Chat(ctx context.Context, messages schema.Messages, tools []schema.ToolDefinition, opts schema.ChatOptions) (schema.LLMResponse, error) {
	model := opts.Model
	if model == "" {
		model = p.defaultModel
	}
	body := buildGeminiRequest(messages, tools, opts)

	headers := mergeHeaders(map[string]string{"x-goog-api-key": p.apiKey}, p.extraHeaders)
	endpoint := p.apiBase + "/models/" + url.PathEscape(model) + ":generateContent"

	code, raw, err := postJSON(ctx, p.client, endpoint, body, headers)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("gemini %w", err)
	}
	if !isSuccess(code) {
		return httpErrResponse(code, raw)
	}
	return parseGeminiResponse(raw, p.newCallID)
}

// ---------------------------------------------------------------------------
// Request building
// ---------------------------------------------------------------------------

func buildGeminiRequest(messages schema.Messages, tools []schema.ToolDefinition, opts schema.ChatOptions) map[string]any {
	system, contents := convertMessagesToGemini(messages)

	body := map[string]any{
		"contents": contents,
		"generationConfig": map[string]any{
			"maxOutputTokens": opts.MaxTokens,
			"temperature":     opts.Temperature,
		},
	}
	if system != "" {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]any{{"text": system}},
		}
	}

	// Mode NONE keeps the declarations so earlier function parts stay valid.
	if len(tools) > 0 {
		decls := make([]map[string]any, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, geminiDeclaration(t))
		}
		body["tools"] = []map[string]any{{"functionDeclarations": decls}}
		body["toolConfig"] = map[string]any{
			"functionCallingConfig": map[string]any{"mode": geminiMode(opts.ToolChoice)},
		}
	}
	return body
}

func geminiMode(c schema.ToolChoice) string {
	switch c {
	case schema.ToolChoiceAny:
		return "ANY"
	case schema.ToolChoiceNone:
		return "NONE"
	default:
		return "AUTO"
	}
}

// convertMessagesToGemini maps the transcript onto user and model contents.
// A functionResponse part needs the tool name, which is recovered from the
// call that produced the result.
func convertMessagesToGemini(messages schema.Messages) (string, []map[string]any) {
	var system string
	out := make([]map[string]any, 0, messages.Len())

	for _, m := range messages.Messages {
		switch m.Role {
		case schema.RoleSystem:
			system = m.Text

		case schema.RoleUser:
			out = appendContent(out, "user", []map[string]any{{"text": m.Text}})

		case schema.RoleAssistant:
			parts := make([]map[string]any, 0, len(m.ToolCalls)+1)
			if m.Text != "" {
				parts = append(parts, map[string]any{"text": m.Text})
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, map[string]any{
					"functionCall": map[string]any{
						"name": tc.Name,
						"args": orEmptyMap(tc.Input),
					},
				})
			}
			if len(parts) > 0 {
				out = appendContent(out, "model", parts)
			}

		case schema.RoleToolResult:
			parts := make([]map[string]any, 0, len(m.ToolResults))
			for _, r := range m.ToolResults {
				parts = append(parts, map[string]any{
					"functionResponse": map[string]any{
						"name":     messages.ToolNameFor(r.CallID),
						"response": map[string]any{"result": r.Content},
					},
				})
			}
			if len(parts) > 0 {
				out = appendContent(out, "user", parts)
			}
		}
	}
	return system, out
}

func appendContent(out []map[string]any, role string, parts []map[string]any) []map[string]any {
	if n := len(out); n > 0 && out[n-1]["role"] == role {
		prev, _ := out[n-1]["parts"].([]map[string]any)
		out[n-1]["parts"] = append(prev, parts...)
		return out
	}
	return append(out, map[string]any{"role": role, "parts": parts})
}

// ---------------------------------------------------------------------------
// Response parsing
// ---------------------------------------------------------------------------

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text         string `json:"text"`
				FunctionCall *struct {
					Name string         `json:"name"`
					Args map[string]any `json:"args"`
				} `json:"functionCall"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func parseGeminiResponse(raw []byte, newID func() string) (schema.LLMResponse, error) {
	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return errResponse(fmt.Sprintf("parse gemini response: %v", err))
	}
	usage := schema.Usage{
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
	}

	if len(resp.Candidates) == 0 {
		if reason := resp.PromptFeedback.BlockReason; reason != "" {
			r, _ := errResponse("prompt blocked: " + reason)
			r.Usage = usage
			return r, nil
		}
		return schema.LLMResponse{FinishReason: "stop", Usage: usage}, nil
	}

	cand := resp.Candidates[0]
	var text strings.Builder
	var calls []schema.ToolCall
	for _, part := range cand.Content.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, schema.ToolCall{
				ID:    newID(),
				Name:  part.FunctionCall.Name,
				Input: orEmptyMap(part.FunctionCall.Args),
			})
			continue
		}
		text.WriteString(part.Text)
	}

	finish := strings.ToLower(cand.FinishReason)
	if len(calls) > 0 {
		finish = "tool_calls"
	} else if finish == "" {
		finish = "stop"
	}

	return schema.LLMResponse{
		Content:      text.String(),
		ToolCalls:    calls,
		FinishReason: finish,
		Usage:        usage,
	}, nil
}
