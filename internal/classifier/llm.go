package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ops-insights-go/internal/logger"
)

const (
	llmHTTPTimeout  = 25 * time.Second
	llmMaxRetryTime = 45 * time.Second
)

const classifyPrompt = `You are a customer-operations insights engine.

Analyze this chat transcript:
"""%s"""

Return ONLY a JSON object with keys:
complaint_type (short category code or empty),
issue_tags (list of short issue phrases),
phrases (notable customer phrases, verbatim),
frustrated (true/false),
confused (true/false),
summary (one sentence).
`

func (c *Classifier) classifyOne(ctx context.Context, transcript string) (Classification, error) {
	log := logger.New().WithComponent("classifier")

	if c.cfg.UseMock {
		// deterministic offline result
		return Classification{
			ComplaintType: "service_delay",
			IssueTags:     []string{"late response"},
			Frustrated:    strings.Contains(strings.ToLower(transcript), "frustrat"),
			Confused:      strings.Contains(strings.ToLower(transcript), "confus"),
			Summary:       "Mock classification",
		}, nil
	}
	if c.cfg.GatewayURL == "" || c.cfg.APIKey == "" {
		return Classification{}, fmt.Errorf("llm gateway not configured")
	}

	reqBody := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": fmt.Sprintf(classifyPrompt, transcript)},
		},
		"temperature": 0.0,
	}
	data, _ := json.Marshal(reqBody)

	var out Classification
	var lastErr error
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, llmHTTPTimeout)
		defer cancel()

		req, _ := http.NewRequestWithContext(callCtx, "POST", c.cfg.GatewayURL, bytes.NewReader(data))
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")

		client := &http.Client{Timeout: llmHTTPTimeout}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			log.WithError(err).Warn("llm request failed")
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		// Try choices[0].message.content (OpenAI-like)
		if inner := extractContentFromChoices(body); inner != "" {
			if err := json.Unmarshal([]byte(inner), &out); err == nil {
				lastErr = nil
				return nil
			}
		}
		// Fallback: first balanced JSON anywhere in the body
		if fallback := extractJSON(string(body)); fallback != "" {
			if err := json.Unmarshal([]byte(fallback), &out); err == nil {
				lastErr = nil
				return nil
			}
		}

		lastErr = fmt.Errorf("no JSON found in LLM output")
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Permanent: don't retry on client errors
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = llmMaxRetryTime
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return Classification{}, fmt.Errorf("llm classify failed: %w", lastErr)
	}
	return out, nil
}

// extractContentFromChoices attempts to read openai-style choices[0].message.content JSON
func extractContentFromChoices(body []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}
	choices, ok := obj["choices"].([]any)
	if !ok || len(choices) == 0 {
		return ""
	}
	c0, _ := choices[0].(map[string]any)
	if c0 == nil {
		return ""
	}
	msg, _ := c0["message"].(map[string]any)
	if msg == nil {
		return ""
	}
	content, _ := msg["content"].(string)
	return extractJSON(content)
}

// extractJSON finds the first balanced JSON object in a string,
// stripping common markdown fences first.
func extractJSON(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, r := range []string{"```json", "```yaml", "```text", "```", "`json", "`"} {
		s = strings.ReplaceAll(s, r, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}
