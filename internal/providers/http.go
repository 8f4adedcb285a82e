// Package providers adapts the internal conversation model to each chat
// backend's wire format. Every adapter implements schema.LLMProvider.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

const defaultTimeout = 120 * time.Second

// postJSON marshals body, POSTs it to url and returns the status and raw
// response. Non-2xx statuses are not errors here; callers decide.
func postJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func isSuccess(code int) bool { return code >= 200 && code < 300 }

// errResponse reports a backend-side failure as assistant text so the
// conversation can carry on.
func errResponse(msg string) (schema.LLMResponse, error) {
	return schema.LLMResponse{Content: "Error: " + msg, FinishReason: "error"}, nil
}

func httpErrResponse(code int, body []byte) (schema.LLMResponse, error) {
	return errResponse(fmt.Sprintf("HTTP %d: %s", code, friendlyHTTPError(code, body)))
}

func friendlyHTTPError(code int, body []byte) string {
	if code == http.StatusTooManyRequests {
		return "rate limit exceeded"
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}

func mergeHeaders(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
